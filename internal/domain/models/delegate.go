// internal/domain/models/delegate.go
package models

import "time"

// Delegate is a registration submitted through an event manager's form.
// Delegates carry no consent flags; every field is public to anyone who
// knows the id, and they outlive the manager's grant.
type Delegate struct {
	ID          string            `bson:"_id" json:"id"`
	ManagerID   string            `bson:"manager_id" json:"manager_id"`
	EventName   string            `bson:"event_name" json:"event_name"`
	FullName    string            `bson:"full_name" json:"full_name"`
	Email       string            `bson:"email" json:"email"`
	Phone       string            `bson:"phone" json:"phone"`
	RoleInEvent string            `bson:"role_in_event" json:"role_in_event"`
	Delegation  string            `bson:"delegation" json:"delegation"`
	CustomData  map[string]string `bson:"custom_data" json:"custom_data"`
	CreatedAt   time.Time         `bson:"created_at" json:"created_at"`
}
