package alerts

import "github.com/carelink/clinic-alerts/pkg/types"

// The clearance gate evaluates which required roles have signed off on
// a dosing hold. It is display-level only: the hold's Status field is
// authoritative for blocking and is owned by the registry. The two can
// disagree briefly (all roles matched locally while Status still reads
// active) until a reload picks up the registry's transition.

// RoleCleared reports whether any clearance record on the hold
// satisfies the given required role
func RoleCleared(hold *types.DosingHold, role types.Role) bool {
	for _, c := range hold.ClearedBy {
		if c.Matches(role) {
			return true
		}
	}
	return false
}

// FullyCleared reports whether every required role has at least one
// matching clearance record. Vacuously true when nothing is required.
func FullyCleared(hold *types.DosingHold) bool {
	for _, role := range hold.RequiresClearanceFrom {
		if !RoleCleared(hold, role) {
			return false
		}
	}
	return true
}

// OutstandingRoles returns the required roles not yet matched by any
// clearance record, in the order they were required
func OutstandingRoles(hold *types.DosingHold) []types.Role {
	var outstanding []types.Role
	for _, role := range hold.RequiresClearanceFrom {
		if !RoleCleared(hold, role) {
			outstanding = append(outstanding, role)
		}
	}
	return outstanding
}

// Blocking reports whether the hold currently blocks dosing. Only the
// authoritative status decides this; local role matching never does.
func Blocking(hold *types.DosingHold) bool {
	return hold.Status == types.HoldStatusActive
}

// HoldView is a dosing hold annotated with the gate's evaluation,
// returned to callers alongside the raw record
type HoldView struct {
	types.DosingHold
	FullyCleared     bool         `json:"fully_cleared"`
	OutstandingRoles []types.Role `json:"outstanding_roles,omitempty"`
	Blocking         bool         `json:"blocking"`
}

// NewHoldView evaluates the clearance gate for a hold
func NewHoldView(hold *types.DosingHold) HoldView {
	return HoldView{
		DosingHold:       *hold,
		FullyCleared:     FullyCleared(hold),
		OutstandingRoles: OutstandingRoles(hold),
		Blocking:         Blocking(hold),
	}
}
