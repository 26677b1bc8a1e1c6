package ledger

// Caller identifies who invokes an operation. Authorization is explicit: each
// privileged operation takes the caller and checks it against the configured
// AccessController instead of relying on ambient identity.
type Caller string

type Capability string

// CapOperator gates every privileged operation: withdrawals, spends, code
// rotation, borrowing, escrow and liquidation.
const CapOperator Capability = "operator"

// AccessController is the capability check performed before every privileged
// operation. Implementations live outside the engine.
type AccessController interface {
	Allow(caller Caller, capability Capability) bool
}

// StaticAccess is an allowlist-backed AccessController.
type StaticAccess struct {
	grants map[Caller]map[Capability]struct{}
}

func NewStaticAccess() *StaticAccess {
	return &StaticAccess{grants: make(map[Caller]map[Capability]struct{})}
}

func (s *StaticAccess) Grant(caller Caller, caps ...Capability) *StaticAccess {
	set, ok := s.grants[caller]
	if !ok {
		set = make(map[Capability]struct{})
		s.grants[caller] = set
	}
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return s
}

func (s *StaticAccess) Allow(caller Caller, capability Capability) bool {
	set, ok := s.grants[caller]
	if !ok {
		return false
	}
	_, ok = set[capability]
	return ok
}
