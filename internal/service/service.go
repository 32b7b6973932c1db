package service

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

// AccessoryLineInput is one requested accessory attachment on a new rental.
type AccessoryLineInput struct {
	AccessoryID int64 `json:"accessory_id"`
	Qty         int32 `json:"qty"`
	PriceCents  int64 `json:"price_cents"`
	IsIncluded  bool  `json:"is_included"`
}

type CreateDealParams struct {
	ClientID        int64                `json:"client_id"`
	Type            domain.DealType      `json:"type"`
	AssetID         int64                `json:"asset_id"`
	Range           domain.DateRange     `json:"range"`
	PlannedMonths   int32                `json:"planned_months"`
	Amounts         domain.Amounts       `json:"amounts"`
	Lines           []AccessoryLineInput `json:"lines"`
	AddressDelivery string               `json:"address_delivery"`
	AddressPickup   string               `json:"address_pickup"`
	Source          string               `json:"source"`
	Comment         string               `json:"comment"`
	CreatedByID     *int64               `json:"-"`
}

// RentalBundle is a rental with its period ledger and accessory lines.
type RentalBundle struct {
	Rental  domain.Rental               `json:"rental"`
	Periods []domain.RentalPeriod       `json:"periods"`
	Lines   []domain.RentalAccessoryLine `json:"lines"`
}

// DealBundle is the externally visible deal aggregate: what the document
// generation and reporting collaborators read. Read-only for them.
type DealBundle struct {
	Deal    domain.Deal    `json:"deal"`
	Client  domain.Client  `json:"client"`
	Rentals []RentalBundle `json:"rentals"`
}

// DealService owns the deal status state machine and is the entry point for
// every command that touches scheduling or inventory; it delegates those to
// the rental engine inside a single unit of work.
type DealService interface {
	CreateDeal(ctx context.Context, params CreateDealParams) (*DealBundle, error)
	Activate(ctx context.Context, dealID int64) error
	ScheduleDelivery(ctx context.Context, dealID int64) error
	MarkDelivered(ctx context.Context, dealID int64) error
	ScheduleReturn(ctx context.Context, dealID int64) error
	Cancel(ctx context.Context, dealID int64) error

	GetDealBundle(ctx context.Context, dealID int64) (*DealBundle, error)
	ListDeals(ctx context.Context, status string, page, pageSize int32) ([]domain.Deal, int32, error)
}

// RentalEngineService exposes the rental lifecycle operations that run as
// one atomic transaction each.
type RentalEngineService interface {
	Extend(ctx context.Context, rentalID int64, newEnd time.Time, amounts domain.Amounts, comment string) (*domain.Rental, error)
	CloseByReturn(ctx context.Context, rentalID int64) (*domain.Rental, error)
	CloseByBuyout(ctx context.Context, rentalID int64, purchaseCents *int64) (*domain.Rental, error)
	FindConflicts(ctx context.Context, assetID int64, rng domain.DateRange) ([]repository.Conflict, error)
}
