package domain

import "time"

type DealType string

const (
	DealTypeRent           DealType = "RENT"
	DealTypeRentToPurchase DealType = "RENT_TO_PURCHASE"
	DealTypeSale           DealType = "SALE"
)

type DealStatus string

const (
	DealStatusLead              DealStatus = "LEAD"
	DealStatusBooked            DealStatus = "BOOKED"
	DealStatusDeliveryScheduled DealStatus = "DELIVERY_SCHEDULED"
	DealStatusDelivered         DealStatus = "DELIVERED"
	DealStatusActive            DealStatus = "ACTIVE"
	DealStatusExtended          DealStatus = "EXTENDED"
	DealStatusReturnScheduled   DealStatus = "RETURN_SCHEDULED"
	DealStatusClosedReturn      DealStatus = "CLOSED_RETURN"
	DealStatusClosedPurchase    DealStatus = "CLOSED_PURCHASE"
	DealStatusCanceled          DealStatus = "CANCELED"
)

// BlockingDealStatuses are the statuses that still occupy the asset for
// scheduling purposes. A rental under a deal in any of these statuses
// conflicts with overlapping candidate date ranges.
var BlockingDealStatuses = []DealStatus{
	DealStatusBooked,
	DealStatusDeliveryScheduled,
	DealStatusDelivered,
	DealStatusActive,
	DealStatusExtended,
	DealStatusReturnScheduled,
}

// IsTerminal reports whether no further transition is possible.
func (s DealStatus) IsTerminal() bool {
	switch s {
	case DealStatusClosedReturn, DealStatusClosedPurchase, DealStatusCanceled:
		return true
	}
	return false
}

// IsBlocking reports whether the status still occupies the asset.
func (s DealStatus) IsBlocking() bool {
	for _, b := range BlockingDealStatuses {
		if s == b {
			return true
		}
	}
	return false
}

// CanTransitionTo encodes the deal state machine:
//
//	lead → booked → delivery_scheduled → delivered → active
//	     → {extended ⟲, return_scheduled} → {closed_return, closed_purchase}
//
// Cancel is reachable from every non-terminal status.
func (s DealStatus) CanTransitionTo(next DealStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == DealStatusCanceled {
		return true
	}
	switch s {
	case DealStatusLead:
		return next == DealStatusBooked
	case DealStatusBooked:
		return next == DealStatusDeliveryScheduled || next == DealStatusDelivered || next == DealStatusActive
	case DealStatusDeliveryScheduled:
		return next == DealStatusDelivered || next == DealStatusActive
	case DealStatusDelivered:
		return next == DealStatusActive
	case DealStatusActive:
		return next == DealStatusExtended || next == DealStatusReturnScheduled ||
			next == DealStatusClosedReturn || next == DealStatusClosedPurchase
	case DealStatusExtended:
		// Re-enterable: another extension keeps the deal in EXTENDED.
		return next == DealStatusExtended || next == DealStatusReturnScheduled ||
			next == DealStatusClosedReturn || next == DealStatusClosedPurchase
	case DealStatusReturnScheduled:
		return next == DealStatusClosedReturn || next == DealStatusClosedPurchase
	}
	return false
}

type Deal struct {
	ID           int64      `json:"id"`
	Type         DealType   `json:"type"`
	Status       DealStatus `json:"status"`
	ClientID     int64      `json:"client_id"`
	ParentDealID *int64     `json:"parent_deal_id,omitempty"`
	Source       string     `json:"source,omitempty"`
	Comment      string     `json:"comment,omitempty"`
	CreatedByID  *int64     `json:"created_by_id,omitempty"`
	CreatedOn    time.Time  `json:"created_on"`
	UpdatedOn    time.Time  `json:"updated_on"`
}
