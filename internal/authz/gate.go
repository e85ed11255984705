package authz

import (
	"github.com/curadesk/support-platform/internal/domain"
	"github.com/curadesk/support-platform/pkg/util/errorutil"
)

// Action enumerates everything the support service can be asked to do.
type Action string

const (
	ActionTicketCreate  Action = "ticket_create"
	ActionTicketRead    Action = "ticket_read"
	ActionTicketList    Action = "ticket_list"
	ActionStateUpdate   Action = "state_update"
	ActionCommentAdd    Action = "comment_add"
	ActionCommentRead   Action = "comment_read"
	ActionBundleRead    Action = "bundle_read"
	ActionTicketListAll Action = "ticket_list_all"
)

// scope says whose resources an action may touch.
type scope int

const (
	scopeNone scope = iota // never allowed for this role
	scopeOwn               // only resources the caller owns
	scopeAny               // any resource
)

// decisionTable is the complete authorization policy. Admin and support are
// equivalent here; they stay separate roles for audit. A (role, action) pair
// absent from the table denies.
var decisionTable = map[domain.Role]map[Action]scope{
	domain.RoleAdmin: {
		ActionTicketCreate:  scopeAny,
		ActionTicketRead:    scopeAny,
		ActionTicketList:    scopeAny,
		ActionStateUpdate:   scopeAny,
		ActionCommentAdd:    scopeAny,
		ActionCommentRead:   scopeAny,
		ActionBundleRead:    scopeAny,
		ActionTicketListAll: scopeAny,
	},
	domain.RoleSupport: {
		ActionTicketCreate:  scopeAny,
		ActionTicketRead:    scopeAny,
		ActionTicketList:    scopeAny,
		ActionStateUpdate:   scopeAny,
		ActionCommentAdd:    scopeAny,
		ActionCommentRead:   scopeAny,
		ActionBundleRead:    scopeAny,
		ActionTicketListAll: scopeAny,
	},
	domain.RoleCustomer: {
		ActionTicketCreate: scopeOwn,
		ActionTicketRead:   scopeOwn,
		ActionTicketList:   scopeOwn,
		ActionCommentRead:  scopeOwn,
		ActionBundleRead:   scopeOwn,
	},
}

// Principal is the authenticated caller as seen by the support service.
type Principal struct {
	UserID int64
	Email  string
	Role   domain.Role
}

// Staff reports whether the principal carries staff rights.
func (p Principal) Staff() bool {
	return p.Role.Staff()
}

// Decide returns nil when the principal may perform action on a resource
// owned by ownerID, and a Forbidden error otherwise. Unauthenticated callers
// never reach this point; the middleware rejects them with a distinct error
// class first.
func Decide(principal Principal, action Action, ownerID int64) error {
	actions, ok := decisionTable[principal.Role]
	if !ok {
		return errorutil.NewForbidden("unknown role")
	}
	switch actions[action] {
	case scopeAny:
		return nil
	case scopeOwn:
		if principal.UserID == ownerID {
			return nil
		}
	}
	return errorutil.NewForbidden("not allowed")
}

// Actions lists every action, for exhaustive sweeps.
func Actions() []Action {
	return []Action{
		ActionTicketCreate,
		ActionTicketRead,
		ActionTicketList,
		ActionStateUpdate,
		ActionCommentAdd,
		ActionCommentRead,
		ActionBundleRead,
		ActionTicketListAll,
	}
}
