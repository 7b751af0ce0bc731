package model

import "github.com/google/uuid"

// Dentist is a domain profile, optionally linked 1:1 to an account and to
// the surgery the dentist works at.
type Dentist struct {
	Base
	UserID         *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Phone          string     `db:"phone" json:"phone,omitempty"`
	Email          string     `db:"email" json:"email,omitempty"`
	Specialization string     `db:"specialization" json:"specialization,omitempty"`
	SurgeryID      *uuid.UUID `db:"surgery_id" json:"surgery_id,omitempty"`
}
