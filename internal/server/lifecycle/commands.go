package lifecycle

import (
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/filanov/stateswitch"
)

const (
	TransitionTypeEvaluate      stateswitch.TransitionType = "Evaluate"
	TransitionTypeAdminSetState stateswitch.TransitionType = "AdminSetState"
	TransitionTypeRotate        stateswitch.TransitionType = "Rotate"
	TransitionTypeReport        stateswitch.TransitionType = "Report"
)

// Command is one of Evaluate, AdminSetState, Rotate or Report. The set is
// closed: only these types implement it.
type Command interface {
	transitionType() stateswitch.TransitionType
}

// Evaluate is issued by the verification engine for a presentation whose
// baseline was Valid or AlreadyUsed. It can only reach consumed or blocked.
type Evaluate struct {
	Anomalous bool
	At        time.Time
}

// AdminSetState is an explicit administrative override. Flagged, when set,
// replaces the sticky flag; otherwise the flag is left alone.
type AdminSetState struct {
	Target  models.LifecycleState
	Flagged *bool
}

// Rotate installs a fresh token and resets the record to active.
type Rotate struct {
	Token      string
	QRImageURL string
}

// Report flags the product after a counterfeit report without touching its state.
type Report struct{}

func (Evaluate) transitionType() stateswitch.TransitionType      { return TransitionTypeEvaluate }
func (AdminSetState) transitionType() stateswitch.TransitionType { return TransitionTypeAdminSetState }
func (Rotate) transitionType() stateswitch.TransitionType        { return TransitionTypeRotate }
func (Report) transitionType() stateswitch.TransitionType        { return TransitionTypeReport }
