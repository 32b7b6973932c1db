package repository

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
)

// Conflict is one existing rental blocking a candidate date range, with the
// owning deal and client eagerly loaded so callers can build a readable
// conflict message.
type Conflict struct {
	Rental     domain.Rental
	DealID     int64
	DealStatus domain.DealStatus
	ClientName string
	AssetCode  string
}

type DealRepository interface {
	Create(ctx context.Context, deal *domain.Deal) error
	GetByID(ctx context.Context, id int64) (*domain.Deal, error)
	UpdateStatus(ctx context.Context, id int64, status domain.DealStatus) error
	List(ctx context.Context, status string, page, pageSize int32) ([]domain.Deal, int32, error)
}

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id int64) (*domain.Rental, error)
	// GetByIDForUpdate locks the rental row for the remainder of the
	// enclosing transaction, so the open/closed state read here cannot
	// change under a concurrent close or extension.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error)
	Update(ctx context.Context, rental *domain.Rental) error
	ListByDeal(ctx context.Context, dealID int64) ([]domain.Rental, error)

	// FindConflicting returns rentals for the asset whose deal status is in
	// the blocking set and whose date range overlaps rng (half-open).
	FindConflicting(ctx context.Context, assetID int64, rng domain.DateRange, excludeRentalID *int64) ([]Conflict, error)

	// ListReturnDue returns open rentals ending on or before the given date
	// whose deal is still ACTIVE or EXTENDED.
	ListReturnDue(ctx context.Context, by time.Time) ([]domain.Rental, error)

	CreatePeriod(ctx context.Context, period *domain.RentalPeriod) error
	ListPeriods(ctx context.Context, rentalID int64) ([]domain.RentalPeriod, error)

	CreateAccessoryLine(ctx context.Context, line *domain.RentalAccessoryLine) error
	ListAccessoryLines(ctx context.Context, rentalID int64) ([]domain.RentalAccessoryLine, error)
}

type AssetRepository interface {
	Create(ctx context.Context, asset *domain.Asset) error
	GetByID(ctx context.Context, id int64) (*domain.Asset, error)
	// GetByIDForUpdate locks the asset row for the remainder of the
	// enclosing transaction. The lock serializes concurrent bookings of the
	// same asset around the conflict check.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Asset, error)
	UpdateStatus(ctx context.Context, id int64, status domain.AssetStatus) error
}

type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
}

type InventoryRepository interface {
	CreateAccessory(ctx context.Context, acc *domain.Accessory) error
	GetAccessory(ctx context.Context, id int64) (*domain.Accessory, error)

	CreateItem(ctx context.Context, item *domain.InventoryItem) error
	GetItemByAccessory(ctx context.Context, accessoryID int64) (*domain.InventoryItem, error)
	// GetItemByAccessoryForUpdate locks the stock row for the remainder of
	// the enclosing transaction.
	GetItemByAccessoryForUpdate(ctx context.Context, accessoryID int64) (*domain.InventoryItem, error)
	UpdateItemReserved(ctx context.Context, itemID int64, qtyReserved int32) error

	CreateMovement(ctx context.Context, mv *domain.InventoryMovement) error
	ListMovementsByRental(ctx context.Context, rentalID int64) ([]domain.InventoryMovement, error)
}

// UnitOfWork exposes the repositories bound to one transaction. Every core
// operation (create, extend, close, cancel) runs against a single unit of
// work: all decision-making reads and all writes share its isolation
// boundary, and either everything commits or everything rolls back.
type UnitOfWork interface {
	Deals() DealRepository
	Rentals() RentalRepository
	Assets() AssetRepository
	Clients() ClientRepository
	Inventory() InventoryRepository

	Commit() error
	Rollback() error
}

// Store opens units of work and offers repositories outside any transaction
// for plain reads.
type Store interface {
	Begin(ctx context.Context) (UnitOfWork, error)

	Deals() DealRepository
	Rentals() RentalRepository
	Assets() AssetRepository
	Clients() ClientRepository
	Inventory() InventoryRepository
}
