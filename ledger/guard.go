package ledger

// reentryGuard rejects nested guarded calls. Operations that hand control to
// an external system mid-operation (withdrawals, swaps) acquire it before
// validating, so a callback re-entering the ledger observes the guard set and
// fails ErrReentrant instead of reading stale balances.
type reentryGuard struct {
	busy bool
}

func (g *reentryGuard) enter() error {
	if g.busy {
		return ErrReentrant
	}
	g.busy = true
	return nil
}

func (g *reentryGuard) exit() {
	g.busy = false
}
