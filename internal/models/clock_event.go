package models

import (
	"encoding/json"
	"time"
)

// ClockEvent is one shift: opened by a clock-in, closed exactly once by the
// matching clock-out. A nil ClockOutAt means the shift is still open; at most
// one open shift per worker is enforced by the one_open_shift index.
type ClockEvent struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	WorkerID uint   `gorm:"index;not null" json:"workerId"`
	Worker   Worker `gorm:"foreignKey:WorkerID" json:"-"`

	ClockInAt   time.Time `gorm:"index;not null" json:"-"`
	ClockInLat  float64   `gorm:"not null" json:"clockInLat"`
	ClockInLng  float64   `gorm:"not null" json:"clockInLng"`
	ClockInNote *string   `json:"clockInNote"`

	ClockOutAt   *time.Time `gorm:"index" json:"-"`
	ClockOutLat  *float64   `json:"clockOutLat"`
	ClockOutLng  *float64   `json:"clockOutLng"`
	ClockOutNote *string    `json:"clockOutNote"`
}

func (e ClockEvent) Open() bool { return e.ClockOutAt == nil }

// Duration is the length of a closed shift; zero for an open one.
func (e ClockEvent) Duration() time.Duration {
	if e.ClockOutAt == nil {
		return 0
	}
	return e.ClockOutAt.Sub(e.ClockInAt)
}

// WindowedEvent is a ClockEvent joined with its owner's role and name, the
// row shape the aggregation reads.
type WindowedEvent struct {
	ClockEvent
	WorkerName string
	WorkerRole Role
}

func (e ClockEvent) MarshalJSON() ([]byte, error) {
	type alias ClockEvent
	return json.Marshal(struct {
		alias
		ClockInAt  Timestamp  `json:"clockInAt"`
		ClockOutAt *Timestamp `json:"clockOutAt"`
	}{
		alias:      alias(e),
		ClockInAt:  NewTimestamp(e.ClockInAt),
		ClockOutAt: TimestampPtr(e.ClockOutAt),
	})
}
