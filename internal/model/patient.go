package model

import "github.com/google/uuid"

// Patient is a domain profile, optionally linked 1:1 to an account. A
// profile may exist before any account is attached (admin-created) or be
// created together with one at self-registration.
type Patient struct {
	Base
	UserID    *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	PatientNo string     `db:"patient_no" json:"patient_no"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	Phone     string     `db:"phone" json:"phone,omitempty"`
	Email     string     `db:"email" json:"email,omitempty"`
	AddressID *uuid.UUID `db:"address_id" json:"address_id,omitempty"`
	Address   *Address   `db:"-" json:"address,omitempty"`
}

// CreatePatientRequest represents patient creation parameters
type CreatePatientRequest struct {
	PatientNo string          `json:"patient_no" binding:"required"`
	FirstName string          `json:"first_name" binding:"required"`
	LastName  string          `json:"last_name" binding:"required"`
	Phone     string          `json:"phone"`
	Email     string          `json:"email" binding:"omitempty,email"`
	Address   *AddressRequest `json:"address"`
}

// UpdatePatientRequest represents patient update parameters
type UpdatePatientRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email" binding:"omitempty,email"`
}
