package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type inventoryRepository struct {
	q Queryer
}

func NewInventoryRepository(q Queryer) repository.InventoryRepository {
	return &inventoryRepository{q: q}
}

func (r *inventoryRepository) CreateAccessory(ctx context.Context, acc *domain.Accessory) error {
	query := `INSERT INTO accessories (sku, name) VALUES ($1, $2) RETURNING id`
	return r.q.QueryRowContext(ctx, query, acc.SKU, acc.Name).Scan(&acc.ID)
}

func (r *inventoryRepository) GetAccessory(ctx context.Context, id int64) (*domain.Accessory, error) {
	acc := &domain.Accessory{}
	query := `SELECT id, sku, name FROM accessories WHERE id = $1`
	err := r.q.QueryRowContext(ctx, query, id).Scan(&acc.ID, &acc.SKU, &acc.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "accessory", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (r *inventoryRepository) CreateItem(ctx context.Context, item *domain.InventoryItem) error {
	query := `INSERT INTO inventory_items (accessory_id, location, qty_on_hand, qty_reserved, updated_on)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	now := time.Now()
	item.UpdatedOn = now
	return r.q.QueryRowContext(ctx, query, item.AccessoryID, item.Location, item.QtyOnHand, item.QtyReserved, now).Scan(&item.ID)
}

func (r *inventoryRepository) GetItemByAccessory(ctx context.Context, accessoryID int64) (*domain.InventoryItem, error) {
	return r.getItem(ctx, accessoryID, false)
}

func (r *inventoryRepository) GetItemByAccessoryForUpdate(ctx context.Context, accessoryID int64) (*domain.InventoryItem, error) {
	return r.getItem(ctx, accessoryID, true)
}

func (r *inventoryRepository) getItem(ctx context.Context, accessoryID int64, forUpdate bool) (*domain.InventoryItem, error) {
	it := &domain.InventoryItem{}
	query := `SELECT id, accessory_id, location, qty_on_hand, qty_reserved, updated_on
	          FROM inventory_items WHERE accessory_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	err := r.q.QueryRowContext(ctx, query, accessoryID).Scan(&it.ID, &it.AccessoryID, &it.Location, &it.QtyOnHand, &it.QtyReserved, &it.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "inventory item for accessory", ID: accessoryID}
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *inventoryRepository) UpdateItemReserved(ctx context.Context, itemID int64, qtyReserved int32) error {
	// The check constraint 0 <= qty_reserved <= qty_on_hand backs up the
	// service-level guard.
	query := `UPDATE inventory_items SET qty_reserved=$1, updated_on=$2 WHERE id=$3`
	res, err := r.q.ExecContext(ctx, query, qtyReserved, time.Now(), itemID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return &domain.NotFoundError{Entity: "inventory item", ID: itemID}
	}
	return nil
}

func (r *inventoryRepository) CreateMovement(ctx context.Context, mv *domain.InventoryMovement) error {
	query := `INSERT INTO inventory_movements (accessory_id, type, qty, related_rental_id, comment, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	now := time.Now()
	mv.CreatedOn = now
	return r.q.QueryRowContext(ctx, query, mv.AccessoryID, mv.Type, mv.Qty, mv.RelatedRentalID, mv.Comment, now).Scan(&mv.ID)
}

func (r *inventoryRepository) ListMovementsByRental(ctx context.Context, rentalID int64) ([]domain.InventoryMovement, error) {
	query := `SELECT id, accessory_id, type, qty, related_rental_id, comment, created_on
	          FROM inventory_movements WHERE related_rental_id = $1 ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []domain.InventoryMovement
	for rows.Next() {
		var mv domain.InventoryMovement
		if err := rows.Scan(&mv.ID, &mv.AccessoryID, &mv.Type, &mv.Qty, &mv.RelatedRentalID, &mv.Comment, &mv.CreatedOn); err != nil {
			return nil, err
		}
		movements = append(movements, mv)
	}
	return movements, rows.Err()
}
