// internal/domain/models/eventform.go
package models

import "time"

// Form field kinds. The set is closed.
const (
	FieldText   = "text"
	FieldNumber = "number"
	FieldEmail  = "email"
	FieldTel    = "tel"
	FieldSelect = "select"
)

// FieldKinds lists every supported form field kind.
var FieldKinds = []string{FieldText, FieldNumber, FieldEmail, FieldTel, FieldSelect}

// FormField is one entry of an event registration form. Options only apply
// to select fields.
type FormField struct {
	ID       string   `bson:"id" json:"id"`
	Label    string   `bson:"label" json:"label"`
	Type     string   `bson:"type" json:"type"`
	Required bool     `bson:"required" json:"required"`
	Options  []string `bson:"options,omitempty" json:"options,omitempty"`
}

// EventForm is the registration form owned by one event manager.
// Exactly one document per manager (the _id).
type EventForm struct {
	ManagerID string      `bson:"_id" json:"manager_id"`
	Fields    []FormField `bson:"fields" json:"fields"`
	IsActive  bool        `bson:"is_active" json:"is_active"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time   `bson:"updated_at" json:"updated_at"`
}
