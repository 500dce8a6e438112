package inspection

import (
	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/i18n"
)

// Action is something an employee tries to do to an inspection.
type Action string

const (
	ActionView     Action = "view"
	ActionCreate   Action = "create"
	ActionEdit     Action = "edit"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionCapture  Action = "capture"
	ActionDelete   Action = "delete"
	ActionExport   Action = "export"
)

// Actor is the employee attempting an action.
type Actor struct {
	UserID uint
	Role   string
}

// Elevated reports whether the actor holds supervisory edit rights.
func (a Actor) Elevated() bool {
	switch a.Role {
	case database.RoleSuperAdmin, database.RoleAdmin, database.RoleSupervisor:
		return true
	default:
		return false
	}
}

// IsRestrictedEditor reports whether the actor may only touch the
// general comment and item-level data when editing.
func (a Actor) IsRestrictedEditor() bool {
	return a.Role == database.RoleInspector
}

// assigned reports whether the actor is one of the inspection's
// assigned inspectors.
func assigned(a Actor, insp *database.Inspection) bool {
	for i := range insp.Inspectors {
		if insp.Inspectors[i].ID == a.UserID {
			return true
		}
	}
	return false
}

// predicate is an extra condition evaluated after the role check.
type predicate func(a Actor, insp *database.Inspection) error

// rule is one row of the authorization table.
type rule struct {
	roles map[string]bool
	check predicate
}

func roles(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var everyone = roles(database.RoleSuperAdmin, database.RoleAdmin, database.RoleSupervisor, database.RoleInspector)
var supervisory = roles(database.RoleSuperAdmin, database.RoleAdmin, database.RoleSupervisor)

func notCompleted(_ Actor, insp *database.Inspection) error {
	if insp.Status == database.StatusCompleted {
		return i18n.ErrorInspectionNotEditable
	}
	return nil
}

func inProgressOnly(_ Actor, insp *database.Inspection) error {
	if insp.Status != database.StatusInProgress {
		return i18n.ErrorInspectionNotInProgress
	}
	return nil
}

func canStart(a Actor, insp *database.Inspection) error {
	if insp.Status != database.StatusPending {
		return i18n.ErrorInspectionTransition
	}
	if !a.Elevated() && !assigned(a, insp) {
		return i18n.ErrorInspectionStartDenied
	}
	return nil
}

func canComplete(_ Actor, insp *database.Inspection) error {
	if insp.Status != database.StatusInProgress {
		return i18n.ErrorInspectionTransition
	}
	return ValidateComplete(insp)
}

// policy is the single authorization table: action x role, plus an
// extra predicate where the state machine has a say. Assigned
// inspectors may start but never complete.
var policy = map[Action]rule{
	ActionView:     {roles: everyone},
	ActionExport:   {roles: everyone},
	ActionCreate:   {roles: supervisory},
	ActionEdit:     {roles: everyone, check: notCompleted},
	ActionCapture:  {roles: everyone, check: inProgressOnly},
	ActionStart:    {roles: everyone, check: canStart},
	ActionComplete: {roles: supervisory, check: canComplete},
	ActionDelete:   {roles: supervisory, check: notCompleted},
}

// Decide evaluates the authorization table for one action. A nil
// error means allowed. Inspection may be nil for actions that do not
// target an existing row (create).
func Decide(action Action, actor Actor, insp *database.Inspection) error {
	r, ok := policy[action]
	if !ok {
		return i18n.ErrForbidden
	}
	if !r.roles[actor.Role] {
		if action == ActionComplete {
			return i18n.ErrorInspectionCompleteDenied
		}
		return i18n.ErrForbidden
	}
	if r.check != nil && insp != nil {
		return r.check(actor, insp)
	}
	return nil
}
