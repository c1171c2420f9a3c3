// Package gate decides, per protected dashboard, whether to show the password
// prompt or the content. A successful verification is remembered for a fixed
// wall-clock window in client-local storage; the server keeps no session
// state.
package gate

import (
	"time"

	"github.com/dohwa-law/portal-gate/internal/domain"
)

type State int

const (
	// Locked means no usable session stamp exists: show the prompt.
	Locked State = iota
	// Unlocked means a fresh stamp exists: show the dashboard.
	Unlocked
	// Expired means a stale stamp was found and purged. Callers treat it
	// exactly like Locked; it exists so staleness is observable in tests.
	Expired
)

func (s State) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case Expired:
		return "expired"
	default:
		return "locked"
	}
}

// Window is how long a successful verification stays valid. Fixed from the
// unlock instant; activity does not renew it.
const Window = 24 * time.Hour

type Gate struct {
	store  SessionStore
	window time.Duration
	now    func() time.Time
}

func New(store SessionStore) *Gate {
	return &Gate{
		store:  store,
		window: Window,
		now:    time.Now,
	}
}

// Check runs the dashboard mount decision. A stale stamp is purged on sight,
// so a later Check of the same category reports Locked, not Expired.
func (g *Gate) Check(category domain.Category) State {
	stamp, ok := g.store.Get(category)
	if !ok {
		return Locked
	}
	if g.now().Sub(stamp.UnlockedAt) < g.window {
		return Unlocked
	}
	g.store.Clear(category)
	return Expired
}

// Unlock records a fresh session stamp after a successful verification.
func (g *Gate) Unlock(category domain.Category) {
	g.store.Set(Stamp{Category: category, UnlockedAt: g.now()})
}

// Logout clears the stamps of every category at once: a single "return to
// home" revokes all open sessions in the tab, not just the current one.
func (g *Gate) Logout() {
	for _, category := range domain.Categories() {
		g.store.Clear(category)
	}
}
