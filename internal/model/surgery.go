package model

import "github.com/google/uuid"

type Address struct {
	Base
	Street  string `db:"street" json:"street"`
	City    string `db:"city" json:"city"`
	State   string `db:"state" json:"state"`
	ZipCode string `db:"zip_code" json:"zip_code"`
}

// Surgery is a clinic site. Each surgery has its own address; an address
// is never shared across surgeries.
type Surgery struct {
	Base
	SurgeryNo string    `db:"surgery_no" json:"surgery_no"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	AddressID uuid.UUID `db:"address_id" json:"address_id"`
	Address   *Address  `db:"-" json:"address,omitempty"`
}
