package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "BOOKED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
)

// Appointment occupies a slot: the (dentist, date, time) triple. No two
// appointments may share a slot; the storage layer enforces this.
type Appointment struct {
	Base
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	DentistID uuid.UUID         `db:"dentist_id" json:"dentist_id"`
	SurgeryID uuid.UUID         `db:"surgery_id" json:"surgery_id"`
	Date      time.Time         `db:"appointment_date" json:"appointment_date"`
	TimeOfDay string            `db:"appointment_time" json:"appointment_time"`
	Status    AppointmentStatus `db:"status" json:"status"`
}

// BookAppointmentRequest represents booking parameters. Date and time
// arrive as strings and are re-parsed by the service after binding.
type BookAppointmentRequest struct {
	DentistID uuid.UUID `json:"dentist_id" binding:"required"`
	SurgeryID uuid.UUID `json:"surgery_id" binding:"required"`
	Date      string    `json:"appointment_date" binding:"required,dateonly"`
	TimeOfDay string    `json:"appointment_time" binding:"required,timehhmm"`
}
