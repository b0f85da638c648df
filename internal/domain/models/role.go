// internal/domain/models/role.go
package models

import "time"

// BaselineRoleName is the role every identity holds when no role row exists.
const BaselineRoleName = "member"

// RoleRecord is the single role row per user. Exactly one document per
// user_id (the _id). Version increments on every write and is the
// compare-and-swap token; an absent row has version 0.
type RoleRecord struct {
	UserID     string     `bson:"_id" json:"user_id"`
	Role       string     `bson:"role" json:"role"`
	EventLabel string     `bson:"event_label,omitempty" json:"event_label,omitempty"`
	ExpiresAt  *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	Version    int64      `bson:"version" json:"version"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
	UpdatedBy  string     `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// BaselineRole is the record reported for a user without a role row.
func BaselineRole(userID string) RoleRecord {
	return RoleRecord{UserID: userID, Role: BaselineRoleName}
}
