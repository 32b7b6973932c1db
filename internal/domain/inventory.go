package domain

import "time"

type Accessory struct {
	ID   int64  `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// InventoryItem is the stock record of one accessory at one location.
// Invariant: 0 <= QtyReserved <= QtyOnHand after every operation.
type InventoryItem struct {
	ID          int64     `json:"id"`
	AccessoryID int64     `json:"accessory_id"`
	Location    string    `json:"location"`
	QtyOnHand   int32     `json:"qty_on_hand"`
	QtyReserved int32     `json:"qty_reserved"`
	UpdatedOn   time.Time `json:"updated_on"`
}

func (it *InventoryItem) Available() int32 {
	return it.QtyOnHand - it.QtyReserved
}

type MovementType string

const (
	MovementTypeReserve    MovementType = "RESERVE"
	MovementTypeRelease    MovementType = "RELEASE"
	MovementTypeReturnItem MovementType = "RETURN_ITEM"
)

// InventoryMovement is the immutable audit record of every reservation,
// release, or return against an accessory. Append-only.
type InventoryMovement struct {
	ID              int64        `json:"id"`
	AccessoryID     int64        `json:"accessory_id"`
	Type            MovementType `json:"type"`
	Qty             int32        `json:"qty"`
	RelatedRentalID int64        `json:"related_rental_id"`
	Comment         string       `json:"comment,omitempty"`
	CreatedOn       time.Time    `json:"created_on"`
}
