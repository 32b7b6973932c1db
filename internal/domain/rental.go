package domain

import "time"

type CloseReason string

const (
	CloseReasonReturn   CloseReason = "RETURN"
	CloseReasonPurchase CloseReason = "PURCHASE"
)

type Rental struct {
	ID            int64      `json:"id"`
	DealID        int64      `json:"deal_id"`
	AssetID       int64      `json:"asset_id"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	ActualEndDate *time.Time `json:"actual_end_date,omitempty"`
	PlannedMonths int32      `json:"planned_months"`
	// Monetary breakdown, integer cents. TotalPlannedCents is derived:
	// rent + delivery + assembly - discount, and grows with each extension.
	RentCents               int64       `json:"rent_cents"`
	DeliveryCents           int64       `json:"delivery_cents"`
	AssemblyCents           int64       `json:"assembly_cents"`
	DepositCents            int64       `json:"deposit_cents"`
	DiscountCents           int64       `json:"discount_cents"`
	TotalPlannedCents       int64       `json:"total_planned_cents"`
	AddressDelivery         string      `json:"address_delivery,omitempty"`
	AddressPickup           string      `json:"address_pickup,omitempty"`
	CloseReason             CloseReason `json:"close_reason,omitempty"`
	PurchaseConversionCents *int64      `json:"purchase_conversion_cents,omitempty"`
	CreatedOn               time.Time   `json:"created_on"`
	UpdatedOn               time.Time   `json:"updated_on"`
}

// IsOpen reports whether the rental has not been closed yet. A rental
// transitions from open to closed exactly once.
func (r *Rental) IsOpen() bool {
	return r.ActualEndDate == nil
}

func (r *Rental) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

type PeriodType string

const (
	PeriodTypeFirst     PeriodType = "FIRST"
	PeriodTypeExtension PeriodType = "EXTENSION"
)

// RentalPeriod is an append-only ledger entry: the original term (FIRST)
// plus one EXTENSION row appended each time the end date is pushed out.
// Period numbers are strictly increasing per rental.
type RentalPeriod struct {
	ID            int64      `json:"id"`
	RentalID      int64      `json:"rental_id"`
	PeriodNumber  int32      `json:"period_number"`
	Type          PeriodType `json:"type"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	RentCents     int64      `json:"rent_cents"`
	DeliveryCents int64      `json:"delivery_cents"`
	AssemblyCents int64      `json:"assembly_cents"`
	DiscountCents int64      `json:"discount_cents"`
	TotalCents    int64      `json:"total_cents"`
	Comment       string     `json:"comment,omitempty"`
	CreatedOn     time.Time  `json:"created_on"`
}

type RentalAccessoryLine struct {
	ID          int64 `json:"id"`
	RentalID    int64 `json:"rental_id"`
	AccessoryID int64 `json:"accessory_id"`
	Qty         int32 `json:"qty"`
	PriceCents  int64 `json:"price_cents"`
	IsIncluded  bool  `json:"is_included"`
}

// Amounts is the monetary breakdown supplied on creation and extension.
type Amounts struct {
	RentCents     int64 `json:"rent_cents"`
	DeliveryCents int64 `json:"delivery_cents"`
	AssemblyCents int64 `json:"assembly_cents"`
	DepositCents  int64 `json:"deposit_cents"`
	DiscountCents int64 `json:"discount_cents"`
}

// Total is rent + delivery + assembly - discount. The deposit is refundable
// and never part of the planned total.
func (a Amounts) Total() int64 {
	return a.RentCents + a.DeliveryCents + a.AssemblyCents - a.DiscountCents
}
