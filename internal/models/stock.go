package models

import (
	"time"

	"github.com/google/uuid"
)

type Warehouse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Pincode   string    `json:"pincode"`
	Address   string    `json:"address"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Stock tracks quantity per (product, variant?, warehouse). Quantity is
// never negative; all mutations go through adjustment rows.
type Stock struct {
	ID                uuid.UUID  `json:"id"`
	ProductID         uuid.UUID  `json:"product_id"`
	VariantID         *uuid.UUID `json:"variant_id,omitempty"`
	WarehouseID       uuid.UUID  `json:"warehouse_id"`
	Quantity          int        `json:"quantity"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// StockAdjustment is an append-only audit record: a signed delta, the
// reason, and who made it.
type StockAdjustment struct {
	ID        uuid.UUID `json:"id"`
	StockID   uuid.UUID `json:"stock_id"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	ActorID   uuid.UUID `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ReturnStatus string

const (
	ReturnRequested ReturnStatus = "requested"
	ReturnApproved  ReturnStatus = "approved"
	ReturnRejected  ReturnStatus = "rejected"
	ReturnCompleted ReturnStatus = "completed"
)

type ReturnRequest struct {
	ID          uuid.UUID    `json:"id"`
	OrderID     uuid.UUID    `json:"order_id"`
	OrderItemID uuid.UUID    `json:"order_item_id"`
	UserID      uuid.UUID    `json:"user_id"`
	Reason      string       `json:"reason"`
	Status      ReturnStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type ConsultationStatus string

const (
	ConsultationRequested ConsultationStatus = "requested"
	ConsultationConfirmed ConsultationStatus = "confirmed"
	ConsultationDone      ConsultationStatus = "done"
	ConsultationCancelled ConsultationStatus = "cancelled"
)

type Consultation struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"user_id"`
	Topic         string             `json:"topic"`
	Notes         string             `json:"notes,omitempty"`
	PreferredSlot time.Time          `json:"preferred_slot"`
	ContactPhone  string             `json:"contact_phone"`
	Status        ConsultationStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
}
