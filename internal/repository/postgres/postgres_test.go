package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk-backend/internal/domain"
)

func TestDealRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewDealRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		deal := &domain.Deal{
			Type:     domain.DealTypeRent,
			Status:   domain.DealStatusBooked,
			ClientID: 7,
			Source:   "phone",
		}

		mock.ExpectQuery("INSERT INTO deals").
			WithArgs(deal.Type, deal.Status, deal.ClientID, nil, deal.Source, deal.Comment, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		err := repo.Create(ctx, deal)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), deal.ID)
		assert.False(t, deal.CreatedOn.IsZero())
	})
}

func TestDealRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewDealRepository(db)
	ctx := context.Background()

	dealColumns := []string{"id", "type", "status", "client_id", "parent_deal_id", "source", "comment", "created_by_id", "created_on", "updated_on"}

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(dealColumns).
			AddRow(1, "RENT", "BOOKED", 7, nil, "phone", "", nil, time.Now(), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM deals WHERE id = \\$1").
			WithArgs(int64(1)).
			WillReturnRows(rows)

		deal, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deal.ID)
		assert.Equal(t, domain.DealStatusBooked, deal.Status)
		assert.Nil(t, deal.ParentDealID)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM deals WHERE id = \\$1").
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(dealColumns))

		_, err := repo.GetByID(ctx, 99)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestDealRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewDealRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE deals SET status").
			WithArgs(domain.DealStatusActive, sqlmock.AnyArg(), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(ctx, 1, domain.DealStatusActive)
		assert.NoError(t, err)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec("UPDATE deals SET status").
			WithArgs(domain.DealStatusActive, sqlmock.AnyArg(), int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(ctx, 99, domain.DealStatusActive)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestDealRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewDealRepository(db)
	ctx := context.Background()

	t.Run("FilteredByStatus", func(t *testing.T) {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM").
			WithArgs("BOOKED").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		rows := sqlmock.NewRows([]string{"id", "type", "status", "client_id", "parent_deal_id", "source", "comment", "created_by_id", "created_on", "updated_on"}).
			AddRow(2, "RENT", "BOOKED", 7, nil, "", "", nil, time.Now(), time.Now()).
			AddRow(1, "RENT", "BOOKED", 8, nil, "", "", nil, time.Now(), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM deals WHERE status = \\$1 ORDER BY created_on DESC").
			WithArgs("BOOKED", int32(10), int32(0)).
			WillReturnRows(rows)

		deals, total, err := repo.List(ctx, "BOOKED", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int32(2), total)
		assert.Len(t, deals, 2)
	})
}

func TestRentalRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRentalRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rental := &domain.Rental{
			DealID:            1,
			AssetID:           2,
			StartDate:         time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			EndDate:           time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
			RentCents:         300000,
			TotalPlannedCents: 325000,
		}

		mock.ExpectQuery("INSERT INTO rentals").
			WithArgs(rental.DealID, rental.AssetID, rental.StartDate, rental.EndDate, rental.PlannedMonths,
				rental.RentCents, rental.DeliveryCents, rental.AssemblyCents, rental.DepositCents, rental.DiscountCents,
				rental.TotalPlannedCents, rental.AddressDelivery, rental.AddressPickup, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

		err := repo.Create(ctx, rental)
		assert.NoError(t, err)
		assert.Equal(t, int64(5), rental.ID)
	})
}

func rentalRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "deal_id", "asset_id", "start_date", "end_date", "actual_end_date", "planned_months",
		"rent_cents", "delivery_cents", "assembly_cents", "deposit_cents", "discount_cents", "total_planned_cents",
		"address_delivery", "address_pickup", "close_reason", "purchase_conversion_cents", "created_on", "updated_on"})
}

func TestRentalRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRentalRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := rentalRows().
			AddRow(5, 1, 2, time.Now(), time.Now().Add(30*24*time.Hour), nil, 0,
				300000, 0, 0, 0, 0, 300000, "", "", nil, nil, time.Now(), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1").
			WithArgs(int64(5)).
			WillReturnRows(rows)

		rental, err := repo.GetByID(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), rental.ID)
		assert.True(t, rental.IsOpen())
		assert.Equal(t, domain.CloseReason(""), rental.CloseReason)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1").
			WithArgs(int64(99)).
			WillReturnRows(rentalRows())

		_, err := repo.GetByID(ctx, 99)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestRentalRepository_GetByIDForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRentalRepository(db)
	ctx := context.Background()

	t.Run("TakesRowLock", func(t *testing.T) {
		rows := rentalRows().
			AddRow(5, 1, 2, time.Now(), time.Now().Add(30*24*time.Hour), nil, 0,
				300000, 0, 0, 0, 0, 300000, "", "", nil, nil, time.Now(), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1 FOR UPDATE").
			WithArgs(int64(5)).
			WillReturnRows(rows)

		rental, err := repo.GetByIDForUpdate(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), rental.ID)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1 FOR UPDATE").
			WithArgs(int64(99)).
			WillReturnRows(rentalRows())

		_, err := repo.GetByIDForUpdate(ctx, 99)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestRentalRepository_FindConflicting(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRentalRepository(db)
	ctx := context.Background()

	rng, rngErr := domain.NewDateRange(
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, rngErr)

	t.Run("ReturnsJoinedConflict", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"r.id", "r.deal_id", "r.asset_id", "r.start_date", "r.end_date", "r.actual_end_date", "r.planned_months",
			"r.rent_cents", "r.delivery_cents", "r.assembly_cents", "r.deposit_cents", "r.discount_cents", "r.total_planned_cents",
			"r.address_delivery", "r.address_pickup", "r.close_reason", "r.purchase_conversion_cents", "r.created_on", "r.updated_on",
			"d.id", "d.status", "c.name", "a.code"}).
			AddRow(5, 1, 2, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), nil, 0,
				300000, 0, 0, 0, 0, 300000, "", "", nil, nil, time.Now(), time.Now(),
				1, "BOOKED", "Vega Studio", "WS-001")

		mock.ExpectQuery("SELECT (.+) FROM rentals r").
			WithArgs(int64(2), sqlmock.AnyArg(), rng.End, rng.Start, nil).
			WillReturnRows(rows)

		conflicts, err := repo.FindConflicting(ctx, 2, rng, nil)
		require.NoError(t, err)
		require.Len(t, conflicts, 1)
		assert.Equal(t, int64(5), conflicts[0].Rental.ID)
		assert.Equal(t, int64(1), conflicts[0].DealID)
		assert.Equal(t, domain.DealStatusBooked, conflicts[0].DealStatus)
		assert.Equal(t, "Vega Studio", conflicts[0].ClientName)
		assert.Equal(t, "WS-001", conflicts[0].AssetCode)
	})

	t.Run("NoConflicts", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rentals r").
			WithArgs(int64(2), sqlmock.AnyArg(), rng.End, rng.Start, nil).
			WillReturnRows(rentalRows())

		conflicts, err := repo.FindConflicting(ctx, 2, rng, nil)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})
}

func TestRentalRepository_CreatePeriod(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRentalRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		period := &domain.RentalPeriod{
			RentalID:     5,
			PeriodNumber: 2,
			Type:         domain.PeriodTypeExtension,
			StartDate:    time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
			EndDate:      time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
			RentCents:    500000,
			TotalCents:   500000,
		}

		mock.ExpectQuery("INSERT INTO rental_periods").
			WithArgs(period.RentalID, period.PeriodNumber, period.Type, period.StartDate, period.EndDate,
				period.RentCents, period.DeliveryCents, period.AssemblyCents, period.DiscountCents,
				period.TotalCents, period.Comment, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

		err := repo.CreatePeriod(ctx, period)
		assert.NoError(t, err)
		assert.Equal(t, int64(11), period.ID)
	})
}

func TestRentalRepository_ListReturnDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRentalRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		by := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		rows := rentalRows().
			AddRow(5, 1, 2, time.Now(), time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), nil, 0,
				300000, 0, 0, 0, 0, 300000, "", "", nil, nil, time.Now(), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM rentals").
			WithArgs(by).
			WillReturnRows(rows)

		rentals, err := repo.ListReturnDue(ctx, by)
		require.NoError(t, err)
		require.Len(t, rentals, 1)
		assert.Equal(t, int64(5), rentals[0].ID)
	})
}

func TestAssetRepository_GetByIDForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewAssetRepository(db)
	ctx := context.Background()

	t.Run("TakesRowLock", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "code", "name", "status", "is_active", "created_on", "updated_on"}).
			AddRow(2, "WS-001", "Workstation", "AVAILABLE", true, time.Now(), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM assets WHERE id = \\$1 FOR UPDATE").
			WithArgs(int64(2)).
			WillReturnRows(rows)

		asset, err := repo.GetByIDForUpdate(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "WS-001", asset.Code)
		assert.Equal(t, domain.AssetStatusAvailable, asset.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM assets WHERE id = \\$1 FOR UPDATE").
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "status", "is_active", "created_on", "updated_on"}))

		_, err := repo.GetByIDForUpdate(ctx, 99)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestInventoryRepository_GetItemByAccessoryForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewInventoryRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "accessory_id", "location", "qty_on_hand", "qty_reserved", "updated_on"}).
			AddRow(3, 9, "main", 5, 2, time.Now())

		mock.ExpectQuery("SELECT (.+) FROM inventory_items WHERE accessory_id = \\$1 FOR UPDATE").
			WithArgs(int64(9)).
			WillReturnRows(rows)

		item, err := repo.GetItemByAccessoryForUpdate(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, int32(3), item.Available())
	})
}

func TestInventoryRepository_UpdateItemReserved(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewInventoryRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE inventory_items SET qty_reserved").
			WithArgs(int32(3), sqlmock.AnyArg(), int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateItemReserved(ctx, 3, 3)
		assert.NoError(t, err)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec("UPDATE inventory_items SET qty_reserved").
			WithArgs(int32(3), sqlmock.AnyArg(), int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateItemReserved(ctx, 99, 3)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestStore_UnitOfWork(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()

	t.Run("CommitsWritesInOneTransaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE deals SET status").
			WithArgs(domain.DealStatusActive, sqlmock.AnyArg(), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE assets SET status").
			WithArgs(domain.AssetStatusRented, sqlmock.AnyArg(), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		uow, err := store.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, uow.Deals().UpdateStatus(ctx, 1, domain.DealStatusActive))
		require.NoError(t, uow.Assets().UpdateStatus(ctx, 2, domain.AssetStatusRented))
		require.NoError(t, uow.Commit())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollbackDiscardsWrites", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()

		uow, err := store.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, uow.Rollback())

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
