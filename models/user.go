package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSuperAdmin           Role = "Super Admin"
	RoleDirectorOfOperations Role = "Director of Operations"
	RoleRegionalManager      Role = "Regional Manager"
	RoleBuildingManager      Role = "Building Manager"
	RoleHR                   Role = "HR"
	RoleLead                 Role = "Lead"
	RoleWorker               Role = "Worker/Lumper"
	RoleOther                Role = "Other"
)

// Roles lists every access role, most privileged first.
var Roles = []Role{
	RoleSuperAdmin,
	RoleDirectorOfOperations,
	RoleRegionalManager,
	RoleBuildingManager,
	RoleHR,
	RoleLead,
	RoleWorker,
	RoleOther,
}

// ParseRole matches s case-insensitively against the known roles.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for _, r := range Roles {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	return "", false
}

// User is the profile row keyed 1:1 by the identity id. Users are never
// deleted, only role-changed.
type User struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	Email              string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	FullName           string    `gorm:"size:200" json:"full_name"`
	PasswordHash       string    `gorm:"not null" json:"-"`
	Role               Role      `gorm:"not null;size:40" json:"access_role"`
	Building           Building  `gorm:"size:10" json:"building,omitempty"`
	Shift              Shift     `gorm:"size:4" json:"shift,omitempty"`
	MustChangePassword bool      `gorm:"not null" json:"must_change_password"`
}

func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

func (u *User) IsBuildingManager() bool {
	return u.Role == RoleBuildingManager
}

func (u *User) IsLead() bool {
	return u.Role == RoleLead
}

// IsHRTier reports whether the user holds one of the cross-building
// oversight roles (HR, Director of Operations, Regional Manager).
func (u *User) IsHRTier() bool {
	switch u.Role {
	case RoleHR, RoleDirectorOfOperations, RoleRegionalManager:
		return true
	}
	return false
}

// HasManagementRole is false for Worker/Lumper, Other and unknown roles.
func (u *User) HasManagementRole() bool {
	return u.IsSuperAdmin() || u.IsBuildingManager() || u.IsLead() || u.IsHRTier()
}
