package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type rentalRepository struct {
	q Queryer
}

func NewRentalRepository(q Queryer) repository.RentalRepository {
	return &rentalRepository{q: q}
}

const rentalColumns = `id, deal_id, asset_id, start_date, end_date, actual_end_date, planned_months,
	rent_cents, delivery_cents, assembly_cents, deposit_cents, discount_cents, total_planned_cents,
	address_delivery, address_pickup, close_reason, purchase_conversion_cents, created_on, updated_on`

func scanRental(row interface{ Scan(...any) error }, rt *domain.Rental) error {
	var closeReason sql.NullString
	err := row.Scan(&rt.ID, &rt.DealID, &rt.AssetID, &rt.StartDate, &rt.EndDate, &rt.ActualEndDate, &rt.PlannedMonths,
		&rt.RentCents, &rt.DeliveryCents, &rt.AssemblyCents, &rt.DepositCents, &rt.DiscountCents, &rt.TotalPlannedCents,
		&rt.AddressDelivery, &rt.AddressPickup, &closeReason, &rt.PurchaseConversionCents, &rt.CreatedOn, &rt.UpdatedOn)
	if err != nil {
		return err
	}
	rt.CloseReason = domain.CloseReason(closeReason.String)
	return nil
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	query := `INSERT INTO rentals (deal_id, asset_id, start_date, end_date, planned_months,
	            rent_cents, delivery_cents, assembly_cents, deposit_cents, discount_cents, total_planned_cents,
	            address_delivery, address_pickup, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15) RETURNING id`
	now := time.Now()
	rt.CreatedOn = now
	rt.UpdatedOn = now
	return r.q.QueryRowContext(ctx, query,
		rt.DealID, rt.AssetID, rt.StartDate, rt.EndDate, rt.PlannedMonths,
		rt.RentCents, rt.DeliveryCents, rt.AssemblyCents, rt.DepositCents, rt.DiscountCents, rt.TotalPlannedCents,
		rt.AddressDelivery, rt.AddressPickup, now, now,
	).Scan(&rt.ID)
}

func (r *rentalRepository) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate takes a row lock held until the transaction ends, so
// extension and close decisions are serialized per rental.
func (r *rentalRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error) {
	return r.get(ctx, id, true)
}

func (r *rentalRepository) get(ctx context.Context, id int64, forUpdate bool) (*domain.Rental, error) {
	rt := &domain.Rental{}
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	err := scanRental(r.q.QueryRowContext(ctx, query, id), rt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "rental", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *rentalRepository) Update(ctx context.Context, rt *domain.Rental) error {
	query := `UPDATE rentals SET end_date=$1, actual_end_date=$2,
	            rent_cents=$3, total_planned_cents=$4, close_reason=$5, purchase_conversion_cents=$6, updated_on=$7
	          WHERE id=$8`
	var closeReason interface{}
	if rt.CloseReason != "" {
		closeReason = string(rt.CloseReason)
	}
	_, err := r.q.ExecContext(ctx, query,
		rt.EndDate, rt.ActualEndDate, rt.RentCents, rt.TotalPlannedCents, closeReason, rt.PurchaseConversionCents, time.Now(), rt.ID)
	return err
}

func (r *rentalRepository) ListByDeal(ctx context.Context, dealID int64) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE deal_id = $1 ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		var rt domain.Rental
		if err := scanRental(rows, &rt); err != nil {
			return nil, err
		}
		rentals = append(rentals, rt)
	}
	return rentals, rows.Err()
}

// FindConflicting implements the half-open overlap predicate
// [s1,e1) ∩ [s2,e2) ≠ ∅  ⇔  s1 < e2 AND s2 < e1
// against rentals whose deal status still occupies the asset.
func (r *rentalRepository) FindConflicting(ctx context.Context, assetID int64, rng domain.DateRange, excludeRentalID *int64) ([]repository.Conflict, error) {
	statuses := make([]string, 0, len(domain.BlockingDealStatuses))
	for _, s := range domain.BlockingDealStatuses {
		statuses = append(statuses, string(s))
	}

	query := `SELECT r.id, r.deal_id, r.asset_id, r.start_date, r.end_date, r.actual_end_date, r.planned_months,
	            r.rent_cents, r.delivery_cents, r.assembly_cents, r.deposit_cents, r.discount_cents, r.total_planned_cents,
	            r.address_delivery, r.address_pickup, r.close_reason, r.purchase_conversion_cents, r.created_on, r.updated_on,
	            d.id, d.status, c.name, a.code
	          FROM rentals r
	          JOIN deals d ON d.id = r.deal_id
	          JOIN clients c ON c.id = d.client_id
	          JOIN assets a ON a.id = r.asset_id
	          WHERE r.asset_id = $1
	            AND d.status = ANY($2)
	            AND r.start_date < $3
	            AND $4 < COALESCE(r.actual_end_date, r.end_date)
	            AND ($5::bigint IS NULL OR r.id <> $5)
	          ORDER BY r.start_date`
	rows, err := r.q.QueryContext(ctx, query, assetID, pq.Array(statuses), rng.End, rng.Start, excludeRentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []repository.Conflict
	for rows.Next() {
		var cf repository.Conflict
		var closeReason sql.NullString
		err := rows.Scan(&cf.Rental.ID, &cf.Rental.DealID, &cf.Rental.AssetID, &cf.Rental.StartDate, &cf.Rental.EndDate,
			&cf.Rental.ActualEndDate, &cf.Rental.PlannedMonths,
			&cf.Rental.RentCents, &cf.Rental.DeliveryCents, &cf.Rental.AssemblyCents, &cf.Rental.DepositCents,
			&cf.Rental.DiscountCents, &cf.Rental.TotalPlannedCents,
			&cf.Rental.AddressDelivery, &cf.Rental.AddressPickup, &closeReason, &cf.Rental.PurchaseConversionCents,
			&cf.Rental.CreatedOn, &cf.Rental.UpdatedOn,
			&cf.DealID, &cf.DealStatus, &cf.ClientName, &cf.AssetCode)
		if err != nil {
			return nil, err
		}
		cf.Rental.CloseReason = domain.CloseReason(closeReason.String)
		conflicts = append(conflicts, cf)
	}
	return conflicts, rows.Err()
}

func (r *rentalRepository) ListReturnDue(ctx context.Context, by time.Time) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE actual_end_date IS NULL
	            AND end_date <= $1
	            AND deal_id IN (SELECT id FROM deals WHERE status IN ('ACTIVE', 'EXTENDED'))
	          ORDER BY end_date`
	rows, err := r.q.QueryContext(ctx, query, by)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		var rt domain.Rental
		if err := scanRental(rows, &rt); err != nil {
			return nil, err
		}
		rentals = append(rentals, rt)
	}
	return rentals, rows.Err()
}

func (r *rentalRepository) CreatePeriod(ctx context.Context, p *domain.RentalPeriod) error {
	query := `INSERT INTO rental_periods (rental_id, period_number, type, start_date, end_date,
	            rent_cents, delivery_cents, assembly_cents, discount_cents, total_cents, comment, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	now := time.Now()
	p.CreatedOn = now
	return r.q.QueryRowContext(ctx, query,
		p.RentalID, p.PeriodNumber, p.Type, p.StartDate, p.EndDate,
		p.RentCents, p.DeliveryCents, p.AssemblyCents, p.DiscountCents, p.TotalCents, p.Comment, now,
	).Scan(&p.ID)
}

func (r *rentalRepository) ListPeriods(ctx context.Context, rentalID int64) ([]domain.RentalPeriod, error) {
	query := `SELECT id, rental_id, period_number, type, start_date, end_date,
	            rent_cents, delivery_cents, assembly_cents, discount_cents, total_cents, comment, created_on
	          FROM rental_periods WHERE rental_id = $1 ORDER BY period_number`
	rows, err := r.q.QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []domain.RentalPeriod
	for rows.Next() {
		var p domain.RentalPeriod
		if err := rows.Scan(&p.ID, &p.RentalID, &p.PeriodNumber, &p.Type, &p.StartDate, &p.EndDate,
			&p.RentCents, &p.DeliveryCents, &p.AssemblyCents, &p.DiscountCents, &p.TotalCents, &p.Comment, &p.CreatedOn); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *rentalRepository) CreateAccessoryLine(ctx context.Context, l *domain.RentalAccessoryLine) error {
	query := `INSERT INTO rental_accessory_lines (rental_id, accessory_id, qty, price_cents, is_included)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return r.q.QueryRowContext(ctx, query, l.RentalID, l.AccessoryID, l.Qty, l.PriceCents, l.IsIncluded).Scan(&l.ID)
}

func (r *rentalRepository) ListAccessoryLines(ctx context.Context, rentalID int64) ([]domain.RentalAccessoryLine, error) {
	query := `SELECT id, rental_id, accessory_id, qty, price_cents, is_included
	          FROM rental_accessory_lines WHERE rental_id = $1 ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.RentalAccessoryLine
	for rows.Next() {
		var l domain.RentalAccessoryLine
		if err := rows.Scan(&l.ID, &l.RentalID, &l.AccessoryID, &l.Qty, &l.PriceCents, &l.IsIncluded); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
