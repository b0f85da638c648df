// internal/domain/models/application.go
package models

import "time"

// Application statuses.
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// Application is a membership registration awaiting review. It never
// leaves approved or rejected once it reaches them.
type Application struct {
	ID          string `bson:"_id" json:"id"`
	UserID      string `bson:"user_id,omitempty" json:"user_id,omitempty"` // applicant's auth user id, if signed in
	FullName    string `bson:"full_name" json:"full_name"`
	Email       string `bson:"email" json:"email"`
	Phone       string `bson:"phone" json:"phone"`
	PhoneDigits string `bson:"phone_digits" json:"-"`
	AvatarURL   string `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	State       string `bson:"state" json:"state"`
	District    string `bson:"district" json:"district"`

	Status          string     `bson:"status" json:"status"`
	RejectionReason string     `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`
	AppliedAt       time.Time  `bson:"applied_at" json:"applied_at"`
	ReviewedBy      string     `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	MembershipID    string     `bson:"membership_id,omitempty" json:"membership_id,omitempty"`
}
