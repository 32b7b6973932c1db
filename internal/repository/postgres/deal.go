package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type dealRepository struct {
	q Queryer
}

func NewDealRepository(q Queryer) repository.DealRepository {
	return &dealRepository{q: q}
}

func (r *dealRepository) Create(ctx context.Context, d *domain.Deal) error {
	query := `INSERT INTO deals (type, status, client_id, parent_deal_id, source, comment, created_by_id, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	now := time.Now()
	d.CreatedOn = now
	d.UpdatedOn = now
	return r.q.QueryRowContext(ctx, query,
		d.Type, d.Status, d.ClientID, d.ParentDealID, d.Source, d.Comment, d.CreatedByID, now, now,
	).Scan(&d.ID)
}

func (r *dealRepository) GetByID(ctx context.Context, id int64) (*domain.Deal, error) {
	d := &domain.Deal{}
	query := `SELECT id, type, status, client_id, parent_deal_id, source, comment, created_by_id, created_on, updated_on
	          FROM deals WHERE id = $1`
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.Type, &d.Status, &d.ClientID, &d.ParentDealID, &d.Source, &d.Comment, &d.CreatedByID, &d.CreatedOn, &d.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "deal", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *dealRepository) UpdateStatus(ctx context.Context, id int64, status domain.DealStatus) error {
	query := `UPDATE deals SET status=$1, updated_on=$2 WHERE id=$3`
	res, err := r.q.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return &domain.NotFoundError{Entity: "deal", ID: id}
	}
	return nil
}

func (r *dealRepository) List(ctx context.Context, status string, page, pageSize int32) ([]domain.Deal, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT id, type, status, client_id, parent_deal_id, source, comment, created_by_id, created_on, updated_on
	          FROM deals`
	args := []interface{}{}
	argIdx := 1
	if status != "" {
		query += fmt.Sprintf(" WHERE status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") as sub"
	if err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var deals []domain.Deal
	for rows.Next() {
		var d domain.Deal
		if err := rows.Scan(&d.ID, &d.Type, &d.Status, &d.ClientID, &d.ParentDealID, &d.Source, &d.Comment, &d.CreatedByID, &d.CreatedOn, &d.UpdatedOn); err != nil {
			return nil, 0, err
		}
		deals = append(deals, d)
	}
	return deals, count, rows.Err()
}
