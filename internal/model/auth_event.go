package model

import "time"

const (
	AuthActionRegister = "register"
	AuthActionLogin    = "login"

	AuthStatusSuccess = "success"
	AuthStatusFailure = "failure"
)

// AuthEvent is one audit record for a registration or login attempt.
// EventID carries the publisher-side UUID so redelivered queue messages
// collapse onto the same row.
type AuthEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EventID    string    `gorm:"size:36;not null;uniqueIndex" json:"event_id"`
	Action     string    `gorm:"size:16;not null;index" json:"action"`
	Status     string    `gorm:"size:16;not null;index" json:"status"`
	UserID     uint      `gorm:"index" json:"user_id"`
	Identifier string    `gorm:"size:128" json:"identifier"`
	Reason     string    `gorm:"size:128" json:"reason"`
	RemoteIP   string    `gorm:"size:64" json:"remote_ip"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
