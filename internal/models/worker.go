package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleCareworker Role = "CAREWORKER"
	RoleManager    Role = "MANAGER"
)

// ParseRole maps an external role claim onto the closed role set.
// Unrecognized values fall back to RoleCareworker; ok reports whether
// the input was recognized so callers can log the coercion.
func ParseRole(s string) (role Role, ok bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleManager:
		return RoleManager, true
	case RoleCareworker:
		return RoleCareworker, true
	default:
		return RoleCareworker, false
	}
}

func (r Role) Valid() bool {
	return r == RoleCareworker || r == RoleManager
}

type Worker struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AuthSubject string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	Name        string    `gorm:"not null" json:"name"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Role        Role      `gorm:"type:varchar(20);index;not null" json:"role"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`

	ClockEvents []ClockEvent `gorm:"foreignKey:WorkerID;constraint:OnDelete:RESTRICT" json:"-"`
}
