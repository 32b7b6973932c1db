package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type assetRepository struct {
	q Queryer
}

func NewAssetRepository(q Queryer) repository.AssetRepository {
	return &assetRepository{q: q}
}

func (r *assetRepository) Create(ctx context.Context, a *domain.Asset) error {
	query := `INSERT INTO assets (code, name, status, is_active, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	now := time.Now()
	a.CreatedOn = now
	a.UpdatedOn = now
	return r.q.QueryRowContext(ctx, query, a.Code, a.Name, a.Status, a.IsActive, now, now).Scan(&a.ID)
}

func (r *assetRepository) GetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate takes a row lock held until the transaction ends,
// serializing concurrent bookings of the same asset.
func (r *assetRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Asset, error) {
	return r.get(ctx, id, true)
}

func (r *assetRepository) get(ctx context.Context, id int64, forUpdate bool) (*domain.Asset, error) {
	a := &domain.Asset{}
	query := `SELECT id, code, name, status, is_active, created_on, updated_on FROM assets WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	err := r.q.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Code, &a.Name, &a.Status, &a.IsActive, &a.CreatedOn, &a.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "asset", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *assetRepository) UpdateStatus(ctx context.Context, id int64, status domain.AssetStatus) error {
	query := `UPDATE assets SET status=$1, updated_on=$2 WHERE id=$3`
	res, err := r.q.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return &domain.NotFoundError{Entity: "asset", ID: id}
	}
	return nil
}

type clientRepository struct {
	q Queryer
}

func NewClientRepository(q Queryer) repository.ClientRepository {
	return &clientRepository{q: q}
}

func (r *clientRepository) Create(ctx context.Context, c *domain.Client) error {
	query := `INSERT INTO clients (name, phone, created_on) VALUES ($1, $2, $3) RETURNING id`
	now := time.Now()
	c.CreatedOn = now
	return r.q.QueryRowContext(ctx, query, c.Name, c.Phone, now).Scan(&c.ID)
}

func (r *clientRepository) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	c := &domain.Client{}
	query := `SELECT id, name, phone, created_on FROM clients WHERE id = $1`
	err := r.q.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Phone, &c.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "client", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
