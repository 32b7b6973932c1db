package service

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
)

// RentalEngine orchestrates creation, extension and closing of rentals.
// Every public operation opens one unit of work: the conflict check, every
// decision-making read and every write share its isolation boundary, and a
// failure at any step rolls the whole call back.
type RentalEngine struct {
	store     repository.Store
	clock     Clock
	conflicts *ConflictDetector
	inventory *InventoryReservationManager
	assetSync *AssetStatusSynchronizer
}

func NewRentalEngine(store repository.Store, clock Clock) *RentalEngine {
	return &RentalEngine{
		store:     store,
		clock:     clock,
		conflicts: NewConflictDetector(),
		inventory: NewInventoryReservationManager(),
		assetSync: NewAssetStatusSynchronizer(),
	}
}

// createRental runs inside the caller's unit of work (deal creation opens
// it). It locks the asset row first, so the conflict check and the writes
// that follow are serialized per asset.
func (e *RentalEngine) createRental(ctx context.Context, uow repository.UnitOfWork, dealID int64, params CreateDealParams) (*domain.Rental, error) {
	asset, err := uow.Assets().GetByIDForUpdate(ctx, params.AssetID)
	if err != nil {
		return nil, err
	}
	if !asset.IsActive || asset.Status == domain.AssetStatusSold || asset.Status == domain.AssetStatusArchived {
		return nil, &domain.InvalidTransitionError{
			Entity: "asset",
			From:   string(asset.Status),
			To:     string(domain.AssetStatusReserved),
			Reason: "asset is not rentable",
		}
	}

	if err := e.conflicts.Check(ctx, uow.Rentals(), params.AssetID, params.Range, nil); err != nil {
		return nil, err
	}

	rental := &domain.Rental{
		DealID:            dealID,
		AssetID:           params.AssetID,
		StartDate:         params.Range.Start,
		EndDate:           params.Range.End,
		PlannedMonths:     params.PlannedMonths,
		RentCents:         params.Amounts.RentCents,
		DeliveryCents:     params.Amounts.DeliveryCents,
		AssemblyCents:     params.Amounts.AssemblyCents,
		DepositCents:      params.Amounts.DepositCents,
		DiscountCents:     params.Amounts.DiscountCents,
		TotalPlannedCents: params.Amounts.Total(),
		AddressDelivery:   params.AddressDelivery,
		AddressPickup:     params.AddressPickup,
	}
	if err := uow.Rentals().Create(ctx, rental); err != nil {
		return nil, err
	}

	period := &domain.RentalPeriod{
		RentalID:      rental.ID,
		PeriodNumber:  1,
		Type:          domain.PeriodTypeFirst,
		StartDate:     rental.StartDate,
		EndDate:       rental.EndDate,
		RentCents:     params.Amounts.RentCents,
		DeliveryCents: params.Amounts.DeliveryCents,
		AssemblyCents: params.Amounts.AssemblyCents,
		DiscountCents: params.Amounts.DiscountCents,
		TotalCents:    params.Amounts.Total(),
	}
	if err := uow.Rentals().CreatePeriod(ctx, period); err != nil {
		return nil, err
	}

	if err := e.assetSync.Apply(ctx, uow.Assets(), params.AssetID, AssetEventBooked); err != nil {
		return nil, err
	}

	if err := e.inventory.ReserveLines(ctx, uow.Inventory(), rental.ID, params.Lines); err != nil {
		return nil, err
	}
	for _, l := range params.Lines {
		line := &domain.RentalAccessoryLine{
			RentalID:    rental.ID,
			AccessoryID: l.AccessoryID,
			Qty:         l.Qty,
			PriceCents:  l.PriceCents,
			IsIncluded:  l.IsIncluded,
		}
		if err := uow.Rentals().CreateAccessoryLine(ctx, line); err != nil {
			return nil, err
		}
	}
	return rental, nil
}

// Extend pushes the rental's end date out: appends an extension period,
// bumps the cumulative amounts, creates the child deal record for the
// extension event and flips the parent deal to EXTENDED.
func (e *RentalEngine) Extend(ctx context.Context, rentalID int64, newEnd time.Time, amounts domain.Amounts, comment string) (*domain.Rental, error) {
	uow, err := e.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	rental, err := uow.Rentals().GetByIDForUpdate(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if !rental.IsOpen() {
		return nil, &domain.InvalidTransitionError{
			Entity: "rental", From: "closed", To: "extended", Reason: "rental is already closed",
		}
	}

	// Lock the asset row before the conflict check, same as on creation:
	// a concurrent booking of this asset holds the same lock, so one of
	// the two sees the other's committed range.
	if _, err := uow.Assets().GetByIDForUpdate(ctx, rental.AssetID); err != nil {
		return nil, err
	}

	newEnd = domain.DateOnly(newEnd)
	if !newEnd.After(rental.EndDate) {
		return nil, &domain.InvalidTransitionError{
			Entity: "rental",
			From:   rental.EndDate.Format("2006-01-02"),
			To:     newEnd.Format("2006-01-02"),
			Reason: "new end date must be after the current end date",
		}
	}

	deal, err := uow.Deals().GetByID(ctx, rental.DealID)
	if err != nil {
		return nil, err
	}
	if !deal.Status.CanTransitionTo(domain.DealStatusExtended) {
		return nil, &domain.InvalidTransitionError{
			Entity: "deal", From: string(deal.Status), To: string(domain.DealStatusExtended),
		}
	}

	// Only the delta window needs to be free; the rental itself occupies
	// everything up to its current end date.
	delta := domain.DateRange{Start: rental.EndDate, End: newEnd}
	if err := e.conflicts.Check(ctx, uow.Rentals(), rental.AssetID, delta, &rental.ID); err != nil {
		return nil, err
	}

	periods, err := uow.Rentals().ListPeriods(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	nextNumber := int32(1)
	if n := len(periods); n > 0 {
		nextNumber = periods[n-1].PeriodNumber + 1
	}
	period := &domain.RentalPeriod{
		RentalID:      rentalID,
		PeriodNumber:  nextNumber,
		Type:          domain.PeriodTypeExtension,
		StartDate:     rental.EndDate,
		EndDate:       newEnd,
		RentCents:     amounts.RentCents,
		DeliveryCents: amounts.DeliveryCents,
		AssemblyCents: amounts.AssemblyCents,
		DiscountCents: amounts.DiscountCents,
		TotalCents:    amounts.Total(),
		Comment:       comment,
	}
	if err := uow.Rentals().CreatePeriod(ctx, period); err != nil {
		return nil, err
	}

	rental.EndDate = newEnd
	rental.RentCents += amounts.RentCents
	rental.TotalPlannedCents += amounts.Total()
	if err := uow.Rentals().Update(ctx, rental); err != nil {
		return nil, err
	}

	child := &domain.Deal{
		Type:         deal.Type,
		Status:       domain.DealStatusExtended,
		ClientID:     deal.ClientID,
		ParentDealID: &deal.ID,
		Source:       deal.Source,
		Comment:      comment,
	}
	if err := uow.Deals().Create(ctx, child); err != nil {
		return nil, err
	}

	if err := uow.Deals().UpdateStatus(ctx, deal.ID, domain.DealStatusExtended); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	logger.Info("rental extended", "rental_id", rentalID, "deal_id", deal.ID, "new_end", newEnd.Format("2006-01-02"), "period", nextNumber)
	return rental, nil
}

// CloseByReturn closes the rental with reason RETURN: the asset goes back
// to AVAILABLE and every outstanding accessory reservation is released with
// a RETURN_ITEM movement.
func (e *RentalEngine) CloseByReturn(ctx context.Context, rentalID int64) (*domain.Rental, error) {
	return e.close(ctx, rentalID, domain.CloseReasonReturn, nil)
}

// CloseByBuyout closes the rental with reason PURCHASE: the asset is SOLD
// and accessory reservations are kept, ownership transfers with the
// equipment.
func (e *RentalEngine) CloseByBuyout(ctx context.Context, rentalID int64, purchaseCents *int64) (*domain.Rental, error) {
	return e.close(ctx, rentalID, domain.CloseReasonPurchase, purchaseCents)
}

func (e *RentalEngine) close(ctx context.Context, rentalID int64, reason domain.CloseReason, purchaseCents *int64) (*domain.Rental, error) {
	uow, err := e.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	// The row lock pins the open/closed state: a concurrent close waits
	// here and then fails the IsOpen guard instead of closing twice.
	rental, err := uow.Rentals().GetByIDForUpdate(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if !rental.IsOpen() {
		return nil, &domain.InvalidTransitionError{
			Entity: "rental", From: "closed", To: "closed", Reason: "rental is already closed",
		}
	}

	dealStatus := domain.DealStatusClosedReturn
	assetEvent := AssetEventReturned
	if reason == domain.CloseReasonPurchase {
		dealStatus = domain.DealStatusClosedPurchase
		assetEvent = AssetEventBoughtOut
	}

	deal, err := uow.Deals().GetByID(ctx, rental.DealID)
	if err != nil {
		return nil, err
	}
	if !deal.Status.CanTransitionTo(dealStatus) {
		return nil, &domain.InvalidTransitionError{
			Entity: "deal", From: string(deal.Status), To: string(dealStatus),
		}
	}

	now := e.clock.Now()
	rental.ActualEndDate = &now
	rental.CloseReason = reason
	rental.PurchaseConversionCents = purchaseCents
	if err := uow.Rentals().Update(ctx, rental); err != nil {
		return nil, err
	}

	if err := uow.Deals().UpdateStatus(ctx, deal.ID, dealStatus); err != nil {
		return nil, err
	}

	if err := e.assetSync.Apply(ctx, uow.Assets(), rental.AssetID, assetEvent); err != nil {
		return nil, err
	}

	if reason == domain.CloseReasonReturn {
		lines, err := uow.Rentals().ListAccessoryLines(ctx, rentalID)
		if err != nil {
			return nil, err
		}
		if err := e.inventory.ReleaseLines(ctx, uow.Inventory(), rentalID, lines, domain.MovementTypeReturnItem); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	logger.Info("rental closed", "rental_id", rentalID, "deal_id", deal.ID, "reason", reason)
	return rental, nil
}

// FindConflicts is the read-only calendar feed: blocking rentals of an
// asset overlapping the given range. No side effects, no transaction.
func (e *RentalEngine) FindConflicts(ctx context.Context, assetID int64, rng domain.DateRange) ([]repository.Conflict, error) {
	if _, err := e.store.Assets().GetByID(ctx, assetID); err != nil {
		return nil, err
	}
	return e.conflicts.FindConflicts(ctx, e.store.Rentals(), assetID, rng, nil)
}

// cancelRentals releases every asset and outstanding accessory reservation
// under a deal being canceled. Runs inside the deal service's unit of work.
func (e *RentalEngine) cancelRentals(ctx context.Context, uow repository.UnitOfWork, dealID int64) error {
	rentals, err := uow.Rentals().ListByDeal(ctx, dealID)
	if err != nil {
		return err
	}
	for i := range rentals {
		rental := &rentals[i]
		if !rental.IsOpen() {
			continue
		}
		if err := e.assetSync.Apply(ctx, uow.Assets(), rental.AssetID, AssetEventCanceled); err != nil {
			return err
		}
		lines, err := uow.Rentals().ListAccessoryLines(ctx, rental.ID)
		if err != nil {
			return err
		}
		if err := e.inventory.ReleaseLines(ctx, uow.Inventory(), rental.ID, lines, domain.MovementTypeRelease); err != nil {
			return err
		}
	}
	return nil
}

// activateAssets flips every asset under the deal to RENTED as part of deal
// activation.
func (e *RentalEngine) activateAssets(ctx context.Context, uow repository.UnitOfWork, dealID int64) error {
	rentals, err := uow.Rentals().ListByDeal(ctx, dealID)
	if err != nil {
		return err
	}
	for i := range rentals {
		if !rentals[i].IsOpen() {
			continue
		}
		if err := e.assetSync.Apply(ctx, uow.Assets(), rentals[i].AssetID, AssetEventActivated); err != nil {
			return err
		}
	}
	return nil
}
