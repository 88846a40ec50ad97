// Package policy decides, per user role and per record, what a user may see
// and change, and which building and shift are forced onto their writes.
//
// The policy never fails: it only answers with capability flags. Callers turn
// a denial into a "Not allowed" response without touching the record store.
// Row-level security in the database remains the real enforcement boundary;
// this package mirrors it so the API and the dashboard agree.
package policy

import (
	"strings"

	"precisionpulse/models"
)

// Entity names a building-scoped record type.
type Entity string

const (
	Containers    Entity = "containers"
	Workforce     Entity = "workforce"
	Candidates    Entity = "candidates"
	InjuryReports Entity = "injury_reports"
	Checklists    Entity = "checklists"
	Terminations  Entity = "terminations"
	DamageReports Entity = "damage_reports"
	Chat          Entity = "chat"
)

// Entities lists every entity the policy knows about.
var Entities = []Entity{Containers, Workforce, Candidates, InjuryReports, Checklists, Terminations, DamageReports, Chat}

// ParseEntity accepts both "injury_reports" and "injury-reports".
func ParseEntity(s string) (Entity, bool) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, ent := range Entities {
		if string(ent) == s {
			return ent, true
		}
	}
	return "", false
}

// rule captures how an entity deviates from the common role hierarchy.
type rule struct {
	// only Super Admin and Building Manager may create
	managerCreate bool
	// only Super Admin and Building Manager may edit or delete
	managerWrite bool
	// Leads see only rows from their own shift
	leadShift bool
	// Leads see only rows they created
	leadOwnView bool
	// Leads write every row in their building, not just their own
	leadBuildingWrite bool
	// only Super Admin may delete
	superAdminDelete bool
}

var rules = map[Entity]rule{
	Containers:    {managerCreate: true},
	Workforce:     {managerCreate: true, managerWrite: true},
	Candidates:    {leadBuildingWrite: true},
	InjuryReports: {},
	Checklists:    {leadShift: true, leadOwnView: true, superAdminDelete: true},
	Terminations:  {},
	DamageReports: {},
	Chat:          {leadShift: true},
}

// Access is the per-record answer.
type Access struct {
	CanView   bool `json:"can_view"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

// Scope is the building and shift a write must carry.
type Scope struct {
	Building       models.Building `json:"building"`
	Shift          models.Shift    `json:"shift"`
	BuildingLocked bool            `json:"building_locked"`
	ShiftLocked    bool            `json:"shift_locked"`
}

// Filter narrows a store query before rows are loaded. None means the user
// may not list the entity at all.
type Filter struct {
	Building models.Building
	Shift    models.Shift
	None     bool
}

// Capabilities are role-wide flags that do not depend on a record.
type Capabilities struct {
	CanCloseInjuryReports bool `json:"can_close_injury_reports"`
	CanViewAllBuildings   bool `json:"can_view_all_buildings"`
	CanManageUsers        bool `json:"can_manage_users"`
	CanBackup             bool `json:"can_backup"`
	CanExport             bool `json:"can_export"`
}

// Policy is stateless; one value is shared by every service.
type Policy struct{}

func New() *Policy {
	return &Policy{}
}

// Capabilities returns the role-wide flags for user.
func (p *Policy) Capabilities(user *models.User) Capabilities {
	if user == nil {
		return Capabilities{}
	}
	oversight := user.IsSuperAdmin() || user.IsHRTier()
	return Capabilities{
		CanCloseInjuryReports: oversight,
		CanViewAllBuildings:   oversight,
		CanManageUsers:        user.IsSuperAdmin(),
		CanBackup:             user.IsSuperAdmin(),
		CanExport:             oversight || (user.IsBuildingManager() && user.Building != ""),
	}
}

// Decide answers view/edit/delete for one record.
func (p *Policy) Decide(user *models.User, entity Entity, rec models.RecordScope) Access {
	r, ok := rules[entity]
	if user == nil || !ok {
		return Access{}
	}
	if !p.canView(user, r, rec) {
		return Access{}
	}
	access := Access{CanView: true, CanEdit: p.canEdit(user, r, rec)}
	if r.superAdminDelete {
		access.CanDelete = user.IsSuperAdmin()
	} else {
		access.CanDelete = access.CanEdit
	}
	return access
}

// CanView is shorthand for Decide(...).CanView.
func (p *Policy) CanView(user *models.User, entity Entity, rec models.RecordScope) bool {
	return p.Decide(user, entity, rec).CanView
}

// CanCreate reports whether user may add a new row of entity at all.
func (p *Policy) CanCreate(user *models.User, entity Entity) bool {
	r, ok := rules[entity]
	if user == nil || !ok {
		return false
	}
	switch {
	case user.IsSuperAdmin():
		return true
	case user.IsBuildingManager():
		return user.Building != ""
	case r.managerCreate:
		return false
	case user.IsLead():
		// shift-scoped rows need a shift to pin to
		return user.Building != "" && (!r.leadShift || user.Shift != "")
	case user.IsHRTier():
		return true
	}
	return false
}

// Scope returns the building and shift a create or edit by user must carry.
// Building Managers are pinned to their building; Leads are pinned to their
// building and, when their profile has one, their shift. Oversight roles keep
// whatever the form asked for.
func (p *Policy) Scope(user *models.User, building models.Building, shift models.Shift) Scope {
	s := Scope{Building: building, Shift: shift}
	if user == nil {
		return s
	}
	switch {
	case user.IsSuperAdmin(), user.IsHRTier():
		return s
	case user.IsBuildingManager():
		s.Building = user.Building
		s.BuildingLocked = true
	default:
		s.Building = user.Building
		s.BuildingLocked = true
		if user.Shift != "" {
			s.Shift = user.Shift
			s.ShiftLocked = true
		}
	}
	return s
}

// ListFilter returns the query scope applied before loading rows of entity.
// Rows are still checked one by one with Decide afterwards.
func (p *Policy) ListFilter(user *models.User, entity Entity) Filter {
	r, ok := rules[entity]
	if user == nil || !ok {
		return Filter{None: true}
	}
	switch {
	case user.IsSuperAdmin(), user.IsHRTier():
		return Filter{}
	case user.IsBuildingManager():
		if user.Building == "" {
			return Filter{None: true}
		}
		return Filter{Building: user.Building}
	case user.IsLead():
		if user.Building == "" {
			return Filter{None: true}
		}
		f := Filter{Building: user.Building}
		if r.leadShift {
			if user.Shift == "" {
				return Filter{None: true}
			}
			f.Shift = user.Shift
		}
		return f
	}
	return Filter{None: true}
}

func (p *Policy) canView(user *models.User, r rule, rec models.RecordScope) bool {
	switch {
	case user.IsSuperAdmin(), user.IsHRTier():
		return true
	case user.IsBuildingManager():
		return sameBuilding(user, rec)
	case user.IsLead():
		if !sameBuilding(user, rec) {
			return false
		}
		if r.leadShift && (user.Shift == "" || rec.Shift != user.Shift) {
			return false
		}
		if r.leadOwnView && !IsCreator(user, rec) {
			return false
		}
		return true
	}
	return false
}

func (p *Policy) canEdit(user *models.User, r rule, rec models.RecordScope) bool {
	if isPrivileged(user, rec) {
		return true
	}
	if r.managerWrite {
		return false
	}
	if r.leadBuildingWrite && user.IsLead() {
		return true
	}
	return IsCreator(user, rec) && !rec.Locked
}

// Privileged reports whether user holds full write access over rec regardless
// of who created it or whether it is locked.
func (p *Policy) Privileged(user *models.User, rec models.RecordScope) bool {
	return user != nil && isPrivileged(user, rec)
}

// isPrivileged is true for Super Admin anywhere and for a Building Manager
// inside their own building.
func isPrivileged(user *models.User, rec models.RecordScope) bool {
	return user.IsSuperAdmin() || (user.IsBuildingManager() && sameBuilding(user, rec))
}

func sameBuilding(user *models.User, rec models.RecordScope) bool {
	return user.Building != "" && rec.Building == user.Building
}

// IsCreator matches the stored creator id, falling back to the creator email
// when the row carries no id.
func IsCreator(user *models.User, rec models.RecordScope) bool {
	if user == nil {
		return false
	}
	if rec.CreatedByUserID != "" {
		return rec.CreatedByUserID == user.ID.String()
	}
	return rec.CreatedByEmail != "" && strings.EqualFold(rec.CreatedByEmail, user.Email)
}
