// Package lifecycle is the token lifecycle state machine. Every change to a
// product's lifecycle state or sticky flag goes through Machine.Apply with
// one of the Command variants, so automatic unblocking has no code path.
package lifecycle

import (
	"fmt"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/filanov/stateswitch"
)

var allStates = []models.LifecycleState{
	models.StateGenerated,
	models.StateActive,
	models.StateConsumed,
	models.StateBlocked,
}

type Machine struct {
	sm stateswitch.StateMachine
}

func NewMachine() *Machine {
	return &Machine{sm: newStateMachine()}
}

func states(s ...models.LifecycleState) stateswitch.States {
	out := make(stateswitch.States, 0, len(s))
	for _, st := range s {
		out = append(out, stateswitch.State(st))
	}
	return out
}

func newStateMachine() stateswitch.StateMachine {
	sm := stateswitch.NewStateMachine()

	// Anomalous presentation of a circulating token
	sm.AddTransition(stateswitch.TransitionRule{
		TransitionType:   TransitionTypeEvaluate,
		SourceStates:     states(models.StateActive, models.StateConsumed),
		Condition:        stateswitch.And(notExpired, isAnomalous),
		DestinationState: stateswitch.State(models.StateBlocked),
		Transition:       blockAnomalous,
	})

	// Legitimate reveal
	sm.AddTransition(stateswitch.TransitionRule{
		TransitionType:   TransitionTypeEvaluate,
		SourceStates:     states(models.StateActive, models.StateConsumed),
		Condition:        stateswitch.And(notExpired, stateswitch.Not(isAnomalous)),
		DestinationState: stateswitch.State(models.StateConsumed),
		Transition:       reveal,
	})

	for _, target := range allStates {
		sm.AddTransition(stateswitch.TransitionRule{
			TransitionType:   TransitionTypeAdminSetState,
			SourceStates:     states(allStates...),
			Condition:        targetIs(target),
			DestinationState: stateswitch.State(target),
			Transition:       adminFlag,
		})
	}

	sm.AddTransition(stateswitch.TransitionRule{
		TransitionType:   TransitionTypeRotate,
		SourceStates:     states(allStates...),
		DestinationState: stateswitch.State(models.StateActive),
		Transition:       installToken,
	})

	// Reports keep the state, only the flag moves
	for _, st := range allStates {
		sm.AddTransition(stateswitch.TransitionRule{
			TransitionType:   TransitionTypeReport,
			SourceStates:     states(st),
			DestinationState: stateswitch.State(st),
			Transition:       flagProduct,
		})
	}

	return sm
}

// Apply runs cmd against p. On success p reflects the new values and the
// returned update holds exactly the fields to persist. On failure p is
// unchanged and the error wraps common.ErrInvalidTransition or
// common.ErrorValidation.
func (m *Machine) Apply(p *models.Product, cmd Command) (models.ProductUpdate, error) {
	if c, ok := cmd.(AdminSetState); ok && !c.Target.Valid() {
		return models.ProductUpdate{}, fmt.Errorf("%w: unknown lifecycle state %q", common.ErrorValidation, c.Target)
	}
	if c, ok := cmd.(Rotate); ok && c.Token == "" {
		return models.ProductUpdate{}, fmt.Errorf("%w: empty token", common.ErrorValidation)
	}

	sp := newStateProduct(p)
	if err := m.sm.Run(cmd.transitionType(), sp, cmd); err != nil {
		return models.ProductUpdate{}, fmt.Errorf("%w: %v", common.ErrInvalidTransition, err)
	}

	sp.update.Apply(p)
	return sp.update, nil
}
