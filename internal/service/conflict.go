package service

import (
	"context"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

// ConflictDetector answers whether an overlapping, non-terminal rental
// already exists for an asset. Read-only; it runs against whichever
// repository set the caller hands it, transactional or not.
type ConflictDetector struct{}

func NewConflictDetector() *ConflictDetector { return &ConflictDetector{} }

func (d *ConflictDetector) FindConflicts(ctx context.Context, rentals repository.RentalRepository, assetID int64, rng domain.DateRange, excludeRentalID *int64) ([]repository.Conflict, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return rentals.FindConflicting(ctx, assetID, rng, excludeRentalID)
}

// Check returns a ConflictError built from the first conflicting booking,
// or nil when the range is free.
func (d *ConflictDetector) Check(ctx context.Context, rentals repository.RentalRepository, assetID int64, rng domain.DateRange, excludeRentalID *int64) error {
	conflicts, err := d.FindConflicts(ctx, rentals, assetID, rng, excludeRentalID)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}
	first := conflicts[0]
	end := first.Rental.EndDate
	if first.Rental.ActualEndDate != nil {
		end = *first.Rental.ActualEndDate
	}
	return &domain.ConflictError{
		AssetCode:  first.AssetCode,
		ClientName: first.ClientName,
		Start:      first.Rental.StartDate,
		End:        end,
	}
}
