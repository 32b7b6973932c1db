package service

import (
	"context"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
)

type dealService struct {
	store  repository.Store
	engine *RentalEngine
}

func NewDealService(store repository.Store, engine *RentalEngine) DealService {
	return &dealService{store: store, engine: engine}
}

// CreateDeal books a deal: the deal row, its rental with the first period,
// the asset reservation and the accessory stock holds are created in one
// transaction, or none of them are.
func (s *dealService) CreateDeal(ctx context.Context, params CreateDealParams) (*DealBundle, error) {
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	client, err := uow.Clients().GetByID(ctx, params.ClientID)
	if err != nil {
		return nil, err
	}

	deal := &domain.Deal{
		Type:        params.Type,
		Status:      domain.DealStatusBooked,
		ClientID:    params.ClientID,
		Source:      params.Source,
		Comment:     params.Comment,
		CreatedByID: params.CreatedByID,
	}
	if err := uow.Deals().Create(ctx, deal); err != nil {
		return nil, err
	}

	rental, err := s.engine.createRental(ctx, uow, deal.ID, params)
	if err != nil {
		return nil, err
	}

	periods, err := uow.Rentals().ListPeriods(ctx, rental.ID)
	if err != nil {
		return nil, err
	}
	lines, err := uow.Rentals().ListAccessoryLines(ctx, rental.ID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	logger.Info("deal booked", "deal_id", deal.ID, "client_id", client.ID, "asset_id", params.AssetID,
		"start", params.Range.Start.Format("2006-01-02"), "end", params.Range.End.Format("2006-01-02"),
		"days", params.Range.Days())

	return &DealBundle{
		Deal:   *deal,
		Client: *client,
		Rentals: []RentalBundle{
			{Rental: *rental, Periods: periods, Lines: lines},
		},
	}, nil
}

// Activate moves the deal to ACTIVE and every asset under it to RENTED.
func (s *dealService) Activate(ctx context.Context, dealID int64) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	if err := s.transition(ctx, uow, dealID, domain.DealStatusActive); err != nil {
		return err
	}
	if err := s.engine.activateAssets(ctx, uow, dealID); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}
	logger.Info("deal activated", "deal_id", dealID)
	return nil
}

func (s *dealService) ScheduleDelivery(ctx context.Context, dealID int64) error {
	return s.statusOnly(ctx, dealID, domain.DealStatusDeliveryScheduled)
}

func (s *dealService) MarkDelivered(ctx context.Context, dealID int64) error {
	return s.statusOnly(ctx, dealID, domain.DealStatusDelivered)
}

func (s *dealService) ScheduleReturn(ctx context.Context, dealID int64) error {
	return s.statusOnly(ctx, dealID, domain.DealStatusReturnScheduled)
}

// Cancel terminates a non-terminal deal: assets return to AVAILABLE and all
// outstanding accessory reservations are released.
func (s *dealService) Cancel(ctx context.Context, dealID int64) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	if err := s.transition(ctx, uow, dealID, domain.DealStatusCanceled); err != nil {
		return err
	}
	if err := s.engine.cancelRentals(ctx, uow, dealID); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}
	logger.Info("deal canceled", "deal_id", dealID)
	return nil
}

// statusOnly performs a pure status transition with no asset or inventory
// side effects.
func (s *dealService) statusOnly(ctx context.Context, dealID int64, next domain.DealStatus) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	if err := s.transition(ctx, uow, dealID, next); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}
	logger.Info("deal status changed", "deal_id", dealID, "status", next)
	return nil
}

func (s *dealService) transition(ctx context.Context, uow repository.UnitOfWork, dealID int64, next domain.DealStatus) error {
	deal, err := uow.Deals().GetByID(ctx, dealID)
	if err != nil {
		return err
	}
	if !deal.Status.CanTransitionTo(next) {
		return &domain.InvalidTransitionError{
			Entity: "deal", From: string(deal.Status), To: string(next),
		}
	}
	return uow.Deals().UpdateStatus(ctx, dealID, next)
}

// GetDealBundle assembles the aggregate the document generation and
// reporting collaborators read. Plain reads, no transaction, no mutation.
func (s *dealService) GetDealBundle(ctx context.Context, dealID int64) (*DealBundle, error) {
	deal, err := s.store.Deals().GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	client, err := s.store.Clients().GetByID(ctx, deal.ClientID)
	if err != nil {
		return nil, err
	}
	rentals, err := s.store.Rentals().ListByDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}

	bundle := &DealBundle{Deal: *deal, Client: *client}
	for _, rt := range rentals {
		periods, err := s.store.Rentals().ListPeriods(ctx, rt.ID)
		if err != nil {
			return nil, err
		}
		lines, err := s.store.Rentals().ListAccessoryLines(ctx, rt.ID)
		if err != nil {
			return nil, err
		}
		bundle.Rentals = append(bundle.Rentals, RentalBundle{Rental: rt, Periods: periods, Lines: lines})
	}
	return bundle, nil
}

func (s *dealService) ListDeals(ctx context.Context, status string, page, pageSize int32) ([]domain.Deal, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.store.Deals().List(ctx, status, page, pageSize)
}
