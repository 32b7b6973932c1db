package service

import (
	"context"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

// InventoryReservationManager maintains per-accessory reserved counters and
// writes the paired audit movement for every mutation. All methods expect
// to run inside the caller's unit of work; stock rows are read FOR UPDATE
// so two rentals cannot reserve the same units.
type InventoryReservationManager struct{}

func NewInventoryReservationManager() *InventoryReservationManager {
	return &InventoryReservationManager{}
}

func (m *InventoryReservationManager) Reserve(ctx context.Context, inv repository.InventoryRepository, accessoryID int64, qty int32, rentalID int64) error {
	if qty <= 0 {
		return nil
	}
	item, err := inv.GetItemByAccessoryForUpdate(ctx, accessoryID)
	if err != nil {
		return err
	}
	if item.Available() < qty {
		acc, accErr := inv.GetAccessory(ctx, accessoryID)
		name := ""
		if accErr == nil {
			name = acc.Name
		}
		return &domain.InsufficientInventoryError{
			AccessoryName: name,
			Requested:     qty,
			Available:     item.Available(),
		}
	}
	if err := inv.UpdateItemReserved(ctx, item.ID, item.QtyReserved+qty); err != nil {
		return err
	}
	return inv.CreateMovement(ctx, &domain.InventoryMovement{
		AccessoryID:     accessoryID,
		Type:            domain.MovementTypeReserve,
		Qty:             qty,
		RelatedRentalID: rentalID,
	})
}

// Release decrements the reserved counter, never below zero, and records a
// movement of the given type (RETURN_ITEM on rental close, RELEASE on
// cancellation). The movement carries the quantity actually released.
func (m *InventoryReservationManager) Release(ctx context.Context, inv repository.InventoryRepository, accessoryID int64, qty int32, rentalID int64, mvType domain.MovementType) error {
	if qty <= 0 {
		return nil
	}
	item, err := inv.GetItemByAccessoryForUpdate(ctx, accessoryID)
	if err != nil {
		return err
	}
	released := qty
	if released > item.QtyReserved {
		released = item.QtyReserved
	}
	if released == 0 {
		return nil
	}
	if err := inv.UpdateItemReserved(ctx, item.ID, item.QtyReserved-released); err != nil {
		return err
	}
	return inv.CreateMovement(ctx, &domain.InventoryMovement{
		AccessoryID:     accessoryID,
		Type:            mvType,
		Qty:             released,
		RelatedRentalID: rentalID,
	})
}

// ReserveLines reserves stock for every accessory line of a rental,
// aggregating quantities per accessory first so one stock row is written
// once even when multiple lines reference it.
func (m *InventoryReservationManager) ReserveLines(ctx context.Context, inv repository.InventoryRepository, rentalID int64, lines []AccessoryLineInput) error {
	for _, agg := range aggregateInputs(lines) {
		if err := m.Reserve(ctx, inv, agg.accessoryID, agg.qty, rentalID); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseLines releases the outstanding reservations of a rental's lines,
// aggregated per accessory like ReserveLines.
func (m *InventoryReservationManager) ReleaseLines(ctx context.Context, inv repository.InventoryRepository, rentalID int64, lines []domain.RentalAccessoryLine, mvType domain.MovementType) error {
	byAccessory := map[int64]int32{}
	order := []int64{}
	for _, l := range lines {
		if _, seen := byAccessory[l.AccessoryID]; !seen {
			order = append(order, l.AccessoryID)
		}
		byAccessory[l.AccessoryID] += l.Qty
	}
	for _, id := range order {
		if err := m.Release(ctx, inv, id, byAccessory[id], rentalID, mvType); err != nil {
			return err
		}
	}
	return nil
}

type aggregatedLine struct {
	accessoryID int64
	qty         int32
}

func aggregateInputs(lines []AccessoryLineInput) []aggregatedLine {
	byAccessory := map[int64]int32{}
	order := []int64{}
	for _, l := range lines {
		if _, seen := byAccessory[l.AccessoryID]; !seen {
			order = append(order, l.AccessoryID)
		}
		byAccessory[l.AccessoryID] += l.Qty
	}
	out := make([]aggregatedLine, 0, len(order))
	for _, id := range order {
		out = append(out, aggregatedLine{accessoryID: id, qty: byAccessory[id]})
	}
	return out
}
