// internal/domain/models/user.go
package models

import "time"

// Identity is a member of the organization. The ID is the user id owned by
// the authentication collaborator.
//
// NOTE:
//   - The role is not embedded here. Use the user_roles collection
//     (RoleRecord) and always read it through authz.EffectiveRole.
//   - AllowEmailSharing / AllowMobileSharing gate public disclosure of
//     Email / Phone only; every other field is public once verified.
type Identity struct {
	ID          string `bson:"_id" json:"id"`
	FullName    string `bson:"full_name" json:"full_name"`
	FullNameCI  string `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email       string `bson:"email" json:"email"`
	Phone       string `bson:"phone" json:"phone"`
	PhoneDigits string `bson:"phone_digits" json:"-"`
	AvatarURL   string `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	State       string `bson:"state" json:"state"`
	District    string `bson:"district" json:"district"`
	Designation string `bson:"designation,omitempty" json:"designation,omitempty"`

	MembershipID   *string    `bson:"membership_id,omitempty" json:"membership_id,omitempty"`
	IDCardIssuedAt *time.Time `bson:"id_card_issued_at" json:"id_card_issued_at"`

	AllowEmailSharing  bool `bson:"allow_email_sharing" json:"allow_email_sharing"`
	AllowMobileSharing bool `bson:"allow_mobile_sharing" json:"allow_mobile_sharing"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ConsentField names one of the two disclosure flags on Identity.
type ConsentField string

const (
	ConsentEmail  ConsentField = "allow_email_sharing"
	ConsentMobile ConsentField = "allow_mobile_sharing"
)

// Valid reports whether f is a known consent field.
func (f ConsentField) Valid() bool {
	return f == ConsentEmail || f == ConsentMobile
}
