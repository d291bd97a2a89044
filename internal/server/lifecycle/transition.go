package lifecycle

import (
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/filanov/stateswitch"
)

func notExpired(sw stateswitch.StateSwitch, args stateswitch.TransitionArgs) (bool, error) {
	sp, _ := sw.(*stateProduct)
	cmd, _ := args.(Evaluate)
	return !sp.product.Expired(cmd.At), nil
}

func isAnomalous(_ stateswitch.StateSwitch, args stateswitch.TransitionArgs) (bool, error) {
	cmd, _ := args.(Evaluate)
	return cmd.Anomalous, nil
}

func targetIs(target models.LifecycleState) stateswitch.Condition {
	return func(_ stateswitch.StateSwitch, args stateswitch.TransitionArgs) (bool, error) {
		cmd, _ := args.(AdminSetState)
		return cmd.Target == target, nil
	}
}

func flagProduct(sw stateswitch.StateSwitch, _ stateswitch.TransitionArgs) error {
	sw.(*stateProduct).setFlag(true)
	return nil
}

// Evaluation writes only land on the token that was presented; a rotation
// in between leaves the new token untouched.
func blockAnomalous(sw stateswitch.StateSwitch, _ stateswitch.TransitionArgs) error {
	sp := sw.(*stateProduct)
	sp.setFlag(true)
	sp.guardToken()
	return nil
}

func reveal(sw stateswitch.StateSwitch, args stateswitch.TransitionArgs) error {
	sp := sw.(*stateProduct)
	at := args.(Evaluate).At
	sp.update.RevealedAt = &at
	sp.update.OnlyFrom = []models.LifecycleState{models.StateActive, models.StateConsumed}
	sp.guardToken()
	return nil
}

func adminFlag(sw stateswitch.StateSwitch, args stateswitch.TransitionArgs) error {
	if f := args.(AdminSetState).Flagged; f != nil {
		sw.(*stateProduct).setFlag(*f)
	}
	return nil
}

func installToken(sw stateswitch.StateSwitch, args stateswitch.TransitionArgs) error {
	sp := sw.(*stateProduct)
	cmd := args.(Rotate)

	token, url := cmd.Token, cmd.QRImageURL
	sp.update.Token = &token
	sp.update.QRImageURL = &url
	sp.update.ResetVerification = true
	sp.setFlag(false)
	return nil
}
