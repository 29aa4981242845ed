package resource

import "sync/atomic"

// Permit is one consumed table slot.
//
// A Permit keeps its Controller reachable, so the controller can never be
// collected while a permit is outstanding. Release returns the slot exactly
// once; later calls are no-ops. Permits are only minted by a Controller and
// must not be copied.
type Permit struct {
	c        *Controller
	released atomic.Bool
}

// Release returns the slot to the controller.
func (p *Permit) Release() {
	if p == nil || !p.released.CompareAndSwap(false, true) {
		return
	}
	if p.c != nil {
		p.c.releaseTable()
	}
}

// Released reports whether Release has been called.
func (p *Permit) Released() bool {
	return p != nil && p.released.Load()
}

// Controller returns the issuing controller (nil for a detached permit).
func (p *Permit) Controller() *Controller {
	if p == nil {
		return nil
	}
	return p.c
}
