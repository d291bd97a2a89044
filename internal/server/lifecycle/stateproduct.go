package lifecycle

import (
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/filanov/stateswitch"
)

// stateProduct adapts a product snapshot to stateswitch. Transitions only
// record the partial update; the snapshot is changed after Run succeeds.
type stateProduct struct {
	product *models.Product
	update  models.ProductUpdate
}

func newStateProduct(p *models.Product) *stateProduct {
	return &stateProduct{product: p}
}

func (sp *stateProduct) State() stateswitch.State {
	return stateswitch.State(sp.product.LifecycleState)
}

func (sp *stateProduct) SetState(state stateswitch.State) error {
	st := models.LifecycleState(state)
	if st != sp.product.LifecycleState {
		sp.update.LifecycleState = &st
	}
	return nil
}

func (sp *stateProduct) setFlag(v bool) {
	if v != sp.product.IsFlagged {
		sp.update.IsFlagged = &v
	}
}

func (sp *stateProduct) guardToken() {
	token := sp.product.Token
	sp.update.OnlyToken = &token
}
