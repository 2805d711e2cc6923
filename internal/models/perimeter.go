package models

import "time"

// PerimeterConfig is the singleton allowed-location row. The boolean primary
// key can only ever hold true, so a second row cannot exist.
type PerimeterConfig struct {
	Singleton   bool      `gorm:"primaryKey;default:true" json:"-"`
	Name        string    `gorm:"not null" json:"name"`
	CenterLat   float64   `gorm:"not null" json:"centerLat"`
	CenterLng   float64   `gorm:"not null" json:"centerLng"`
	RadiusKm    float64   `gorm:"not null" json:"radiusKm"`
	CreatedByID uint      `gorm:"not null" json:"createdById"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

func (PerimeterConfig) TableName() string { return "location_perimeter" }

func (p PerimeterConfig) RadiusMeters() float64 { return p.RadiusKm * 1000 }
