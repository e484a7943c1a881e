// Package acl defines the closed catalog of permission codes and the
// authorization checks evaluated against a user's granted set. Permissions
// are defined in code and attached to roles; adding a code is a code change,
// never a data change.
package acl

// PermissionAll is the wildcard grant: holding it implies every other code.
const PermissionAll = "all"

// Permission codes grantable through roles.
const (
	PermSystemAdmin            = "system.admin"
	PermGroupManageMembers     = "group.manage_members"
	PermGroupManageGoals       = "group.manage_goals"
	PermGroupApproveLoans      = "group.approve_loans"
	PermGroupView              = "group.view"
	PermWalletView             = "wallet.view"
	PermWalletDebit            = "wallet.debit"
	PermWalletCredit           = "wallet.credit"
	PermFinanceManageInvoices  = "finance.manage_invoices"
	PermEventsManage           = "events.manage"
	PermNotificationsConfigure = "notifications.configure"
)

var catalog = map[string]struct{}{
	PermissionAll:              {},
	PermSystemAdmin:            {},
	PermGroupManageMembers:     {},
	PermGroupManageGoals:       {},
	PermGroupApproveLoans:      {},
	PermGroupView:              {},
	PermWalletView:             {},
	PermWalletDebit:            {},
	PermWalletCredit:           {},
	PermFinanceManageInvoices:  {},
	PermEventsManage:           {},
	PermNotificationsConfigure: {},
}

// All returns a copy of every permission code known to the system.
func All() map[string]struct{} {
	out := make(map[string]struct{}, len(catalog))
	for code := range catalog {
		out[code] = struct{}{}
	}
	return out
}

// Valid reports whether code is part of the catalog.
func Valid(code string) bool {
	_, ok := catalog[code]
	return ok
}

// Has reports whether granted contains the required code or the wildcard.
func Has(granted map[string]struct{}, required string) bool {
	if _, ok := granted[PermissionAll]; ok {
		return true
	}
	_, ok := granted[required]
	return ok
}

// HasAny reports whether granted covers at least one required code.
// An empty required set is vacuously satisfied.
func HasAny(granted, required map[string]struct{}) bool {
	if len(required) == 0 {
		return true
	}
	if _, ok := granted[PermissionAll]; ok {
		return true
	}
	for code := range required {
		if _, ok := granted[code]; ok {
			return true
		}
	}
	return false
}

// HasAll reports whether granted covers every required code.
func HasAll(granted, required map[string]struct{}) bool {
	if len(required) == 0 {
		return true
	}
	if _, ok := granted[PermissionAll]; ok {
		return true
	}
	for code := range required {
		if _, ok := granted[code]; !ok {
			return false
		}
	}
	return true
}

// Set builds a permission set from codes. Convenience for callers and tests.
func Set(codes ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		out[code] = struct{}{}
	}
	return out
}
