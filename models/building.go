package models

import "strings"

// Building is a warehouse site code, the primary scoping key of almost every
// record.
type Building string

const (
	BuildingDC1   Building = "DC1"
	BuildingDC5   Building = "DC5"
	BuildingDC11  Building = "DC11"
	BuildingDC14  Building = "DC14"
	BuildingDC18  Building = "DC18"
	BuildingDC301 Building = "DC301"
)

var Buildings = []Building{BuildingDC1, BuildingDC5, BuildingDC11, BuildingDC14, BuildingDC18, BuildingDC301}

func (b Building) Valid() bool {
	for _, known := range Buildings {
		if b == known {
			return true
		}
	}
	return false
}

// ParseBuilding normalises user input such as "dc5" or " DC5 ".
func ParseBuilding(s string) (Building, bool) {
	b := Building(strings.ToUpper(strings.TrimSpace(s)))
	return b, b.Valid()
}

// Shift is one of the four work periods of a building-day.
type Shift string

const (
	Shift1 Shift = "1st"
	Shift2 Shift = "2nd"
	Shift3 Shift = "3rd"
	Shift4 Shift = "4th"
)

var Shifts = []Shift{Shift1, Shift2, Shift3, Shift4}

func (s Shift) Valid() bool {
	for _, known := range Shifts {
		if s == known {
			return true
		}
	}
	return false
}

// ParseShift accepts "1st".."4th" as well as the bare digits "1".."4".
func ParseShift(s string) (Shift, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "1":
		return Shift1, true
	case "2":
		return Shift2, true
	case "3":
		return Shift3, true
	case "4":
		return Shift4, true
	}
	sh := Shift(s)
	return sh, sh.Valid()
}

// RecordScope is the slice of a row the access policy looks at.
type RecordScope struct {
	Building        Building
	Shift           Shift
	CreatedByUserID string
	CreatedByEmail  string
	// Locked is set once the record's status has moved past its draft-like
	// state; only privileged roles may still write it.
	Locked bool
}

// Scoped is implemented by every building-scoped row.
type Scoped interface {
	AccessScope() RecordScope
}

// Creator is the identity stamped on rows for ownership checks.
type Creator struct {
	CreatedByUserID string `gorm:"size:64;index" json:"created_by_user_id,omitempty"`
	CreatedByEmail  string `gorm:"size:255" json:"created_by_email,omitempty"`
}

// CreatorOf returns the ownership stamp for u.
func CreatorOf(u *User) Creator {
	if u == nil {
		return Creator{}
	}
	return Creator{CreatedByUserID: u.ID.String(), CreatedByEmail: u.Email}
}
