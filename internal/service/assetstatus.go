package service

import (
	"context"
	"fmt"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

// AssetLifecycleEvent names the deal/rental transitions that drive an
// asset's status.
type AssetLifecycleEvent string

const (
	AssetEventBooked    AssetLifecycleEvent = "BOOKED"
	AssetEventActivated AssetLifecycleEvent = "ACTIVATED"
	AssetEventReturned  AssetLifecycleEvent = "RETURNED"
	AssetEventCanceled  AssetLifecycleEvent = "CANCELED"
	AssetEventBoughtOut AssetLifecycleEvent = "BOUGHT_OUT"
)

// AssetStatusSynchronizer derives the asset's lifecycle status from its
// controlling deal/rental event and writes it in the same transaction as
// the triggering operation. It never runs as an independent pass, which is
// what keeps the asset row consistent with its deal.
type AssetStatusSynchronizer struct{}

func NewAssetStatusSynchronizer() *AssetStatusSynchronizer {
	return &AssetStatusSynchronizer{}
}

// StatusFor is the pure mapping: reserved on booking, rented on activation,
// available on return or cancellation, sold on buyout.
func (s *AssetStatusSynchronizer) StatusFor(event AssetLifecycleEvent) (domain.AssetStatus, error) {
	switch event {
	case AssetEventBooked:
		return domain.AssetStatusReserved, nil
	case AssetEventActivated:
		return domain.AssetStatusRented, nil
	case AssetEventReturned, AssetEventCanceled:
		return domain.AssetStatusAvailable, nil
	case AssetEventBoughtOut:
		return domain.AssetStatusSold, nil
	}
	return "", fmt.Errorf("unknown asset lifecycle event %q", event)
}

func (s *AssetStatusSynchronizer) Apply(ctx context.Context, assets repository.AssetRepository, assetID int64, event AssetLifecycleEvent) error {
	status, err := s.StatusFor(event)
	if err != nil {
		return err
	}
	return assets.UpdateStatus(ctx, assetID, status)
}
