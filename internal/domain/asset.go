package domain

import "time"

type AssetStatus string

const (
	AssetStatusAvailable AssetStatus = "AVAILABLE"
	AssetStatusReserved  AssetStatus = "RESERVED"
	AssetStatusRented    AssetStatus = "RENTED"
	AssetStatusSold      AssetStatus = "SOLD"
	AssetStatusArchived  AssetStatus = "ARCHIVED"
)

// Asset is one physical equipment unit. Its status is a pure function of
// the most recent non-terminal deal/rental referencing it; an asset with
// zero open rentals is AVAILABLE unless sold or archived.
type Asset struct {
	ID        int64       `json:"id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Status    AssetStatus `json:"status"`
	IsActive  bool        `json:"is_active"`
	CreatedOn time.Time   `json:"created_on"`
	UpdatedOn time.Time   `json:"updated_on"`
}

type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedOn time.Time `json:"created_on"`
}
