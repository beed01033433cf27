package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	IsSuperAdmin bool      `json:"is_super_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

type Address struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	Name              string    `json:"name"`
	Phone             string    `json:"phone"`
	Line1             string    `json:"line1"`
	Line2             string    `json:"line2,omitempty"`
	City              string    `json:"city"`
	State             string    `json:"state"`
	Pincode           string    `json:"pincode"`
	Country           string    `json:"country"`
	IsDefaultShipping bool      `json:"is_default_shipping"`
	IsDefaultBilling  bool      `json:"is_default_billing"`
	CreatedAt         time.Time `json:"created_at"`
}

// Snapshot freezes the address into the immutable form stored on orders.
func (a *Address) Snapshot() *AddressSnapshot {
	if a == nil {
		return nil
	}
	return &AddressSnapshot{
		Name:    a.Name,
		Phone:   a.Phone,
		Line1:   a.Line1,
		Line2:   a.Line2,
		City:    a.City,
		State:   a.State,
		Pincode: a.Pincode,
		Country: a.Country,
	}
}

// Permission grants an admin user one action on one module, e.g.
// ("products", "write"). Super admins bypass permission checks.
type Permission struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Module string    `json:"module"`
	Action string    `json:"action"`
}
