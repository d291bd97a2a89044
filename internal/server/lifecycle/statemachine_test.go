package lifecycle

import (
	"testing"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func product(state models.LifecycleState) *models.Product {
	return &models.Product{
		ID:             "p1",
		Token:          "tok",
		LifecycleState: state,
		ExpiresAt:      now.Add(30 * 24 * time.Hour),
	}
}

func TestEvaluate_Reveal(t *testing.T) {
	m := NewMachine()

	for _, st := range []models.LifecycleState{models.StateActive, models.StateConsumed} {
		t.Run(string(st), func(t *testing.T) {
			p := product(st)
			p.VerificationCount = 4

			u, err := m.Apply(p, Evaluate{At: now})
			require.NoError(t, err)

			assert.Equal(t, models.StateConsumed, p.LifecycleState)
			assert.EqualValues(t, 5, p.VerificationCount)
			assert.Equal(t, now, *p.LastVerifiedAt)
			require.NotNil(t, u.RevealedAt)
			assert.Nil(t, u.IsFlagged)
			assert.ElementsMatch(t, []models.LifecycleState{models.StateActive, models.StateConsumed}, u.OnlyFrom)
			assert.False(t, u.Allows(models.StateBlocked), "a reveal never lands on a blocked record")
			require.NotNil(t, u.OnlyToken)
			assert.Equal(t, "tok", *u.OnlyToken)
			if st == models.StateConsumed {
				assert.Nil(t, u.LifecycleState, "unchanged state is not rewritten")
			} else {
				assert.Equal(t, models.StateConsumed, *u.LifecycleState)
			}
		})
	}
}

func TestEvaluate_Anomalous(t *testing.T) {
	m := NewMachine()
	p := product(models.StateConsumed)
	p.VerificationCount = 2

	u, err := m.Apply(p, Evaluate{Anomalous: true, At: now})
	require.NoError(t, err)

	assert.Equal(t, models.StateBlocked, p.LifecycleState)
	assert.True(t, p.IsFlagged)
	assert.EqualValues(t, 2, p.VerificationCount, "blocking never counts as a reveal")
	assert.Nil(t, u.RevealedAt)
	assert.True(t, *u.IsFlagged)
	require.NotNil(t, u.OnlyToken)
	assert.False(t, u.Admits(&models.Product{Token: "rotated", LifecycleState: models.StateActive}),
		"a block never lands on a rotated record")
}

func TestEvaluate_Rejected(t *testing.T) {
	m := NewMachine()

	tests := []struct {
		name string
		p    *models.Product
	}{
		{"blocked never reverts", product(models.StateBlocked)},
		{"generated is not in circulation", product(models.StateGenerated)},
		{"expired is frozen", func() *models.Product {
			p := product(models.StateActive)
			p.ExpiresAt = now.Add(-time.Second)
			return p
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := *tt.p
			for _, anomalous := range []bool{false, true} {
				u, err := m.Apply(tt.p, Evaluate{Anomalous: anomalous, At: now})
				assert.ErrorIs(t, err, common.ErrInvalidTransition)
				assert.True(t, u.IsEmpty())
				assert.Equal(t, before, *tt.p)
			}
		})
	}
}

func TestAdminSetState(t *testing.T) {
	m := NewMachine()

	t.Run("unblock keeps flag unless told", func(t *testing.T) {
		p := product(models.StateBlocked)
		p.IsFlagged = true

		u, err := m.Apply(p, AdminSetState{Target: models.StateActive})
		require.NoError(t, err)
		assert.Equal(t, models.StateActive, p.LifecycleState)
		assert.True(t, p.IsFlagged)
		assert.Nil(t, u.IsFlagged)
	})

	t.Run("unblock and clear flag", func(t *testing.T) {
		p := product(models.StateBlocked)
		p.IsFlagged = true
		unflag := false

		u, err := m.Apply(p, AdminSetState{Target: models.StateActive, Flagged: &unflag})
		require.NoError(t, err)
		assert.False(t, p.IsFlagged)
		require.NotNil(t, u.IsFlagged)
		assert.False(t, *u.IsFlagged)
	})

	t.Run("every state reachable from every state", func(t *testing.T) {
		for _, from := range allStates {
			for _, to := range allStates {
				p := product(from)
				_, err := m.Apply(p, AdminSetState{Target: to})
				require.NoError(t, err)
				assert.Equal(t, to, p.LifecycleState)
			}
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		p := product(models.StateActive)
		_, err := m.Apply(p, AdminSetState{Target: "expired"})
		assert.ErrorIs(t, err, common.ErrorValidation)
	})
}

func TestRotate(t *testing.T) {
	m := NewMachine()
	last := now.Add(-time.Hour)

	p := product(models.StateBlocked)
	p.IsFlagged = true
	p.VerificationCount = 7
	p.LastVerifiedAt = &last

	u, err := m.Apply(p, Rotate{Token: "fresh", QRImageURL: "http://qr/fresh.png"})
	require.NoError(t, err)

	assert.Equal(t, "fresh", p.Token)
	assert.Equal(t, "http://qr/fresh.png", p.QRImageURL)
	assert.Equal(t, models.StateActive, p.LifecycleState)
	assert.False(t, p.IsFlagged)
	assert.Zero(t, p.VerificationCount)
	assert.Nil(t, p.LastVerifiedAt)
	assert.True(t, u.ResetVerification)

	_, err = m.Apply(p, Rotate{})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestReport(t *testing.T) {
	m := NewMachine()

	for _, st := range allStates {
		p := product(st)
		u, err := m.Apply(p, Report{})
		require.NoError(t, err)
		assert.Equal(t, st, p.LifecycleState)
		assert.True(t, p.IsFlagged)
		assert.Nil(t, u.LifecycleState)
	}

	p := product(models.StateActive)
	p.IsFlagged = true
	u, err := m.Apply(p, Report{})
	require.NoError(t, err)
	assert.True(t, u.IsEmpty(), "already flagged needs no write")
}
