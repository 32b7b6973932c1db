package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository/memory"
	"rentdesk-backend/internal/service"
)

type mockDealService struct {
	mock.Mock
}

func (m *mockDealService) CreateDeal(ctx context.Context, params service.CreateDealParams) (*service.DealBundle, error) {
	args := m.Called(ctx, params)
	if b := args.Get(0); b != nil {
		return b.(*service.DealBundle), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDealService) Activate(ctx context.Context, dealID int64) error {
	return m.Called(ctx, dealID).Error(0)
}

func (m *mockDealService) ScheduleDelivery(ctx context.Context, dealID int64) error {
	return m.Called(ctx, dealID).Error(0)
}

func (m *mockDealService) MarkDelivered(ctx context.Context, dealID int64) error {
	return m.Called(ctx, dealID).Error(0)
}

func (m *mockDealService) ScheduleReturn(ctx context.Context, dealID int64) error {
	return m.Called(ctx, dealID).Error(0)
}

func (m *mockDealService) Cancel(ctx context.Context, dealID int64) error {
	return m.Called(ctx, dealID).Error(0)
}

func (m *mockDealService) GetDealBundle(ctx context.Context, dealID int64) (*service.DealBundle, error) {
	args := m.Called(ctx, dealID)
	if b := args.Get(0); b != nil {
		return b.(*service.DealBundle), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDealService) ListDeals(ctx context.Context, status string, page, pageSize int32) ([]domain.Deal, int32, error) {
	args := m.Called(ctx, status, page, pageSize)
	if d := args.Get(0); d != nil {
		return d.([]domain.Deal), args.Get(1).(int32), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

func schedulerConfig(days int) *config.Config {
	return &config.Config{
		Scheduler: config.SchedulerConfig{
			MarkReturnDue:     "0 30 2 * * *",
			ReturnDueSoonDays: days,
		},
	}
}

func seedActiveDeal(t *testing.T, store *memory.Store, endDate time.Time) int64 {
	t.Helper()
	ctx := context.Background()

	client := &domain.Client{Name: "Orbit Films"}
	require.NoError(t, store.Clients().Create(ctx, client))
	asset := &domain.Asset{Code: "CAM-01", Status: domain.AssetStatusRented, IsActive: true}
	require.NoError(t, store.Assets().Create(ctx, asset))

	deal := &domain.Deal{Type: domain.DealTypeRent, Status: domain.DealStatusActive, ClientID: client.ID}
	require.NoError(t, store.Deals().Create(ctx, deal))
	rental := &domain.Rental{
		DealID:    deal.ID,
		AssetID:   asset.ID,
		StartDate: endDate.AddDate(0, -2, 0),
		EndDate:   endDate,
	}
	require.NoError(t, store.Rentals().Create(ctx, rental))
	return deal.ID
}

func TestMarkReturnDue(t *testing.T) {
	now := time.Date(2026, 4, 28, 10, 0, 0, 0, time.UTC)

	t.Run("Schedules returns for deals ending inside the window", func(t *testing.T) {
		store := memory.NewStore()
		clock := service.NewFixedClock(now)
		engine := service.NewRentalEngine(store, clock)
		deals := service.NewDealService(store, engine)

		dueID := seedActiveDeal(t, store, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC))
		laterID := seedActiveDeal(t, store, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC))

		jr := NewJobRunner(store, deals, clock, schedulerConfig(3))
		jr.MarkReturnDue()

		due, err := store.Deals().GetByID(context.Background(), dueID)
		require.NoError(t, err)
		assert.Equal(t, domain.DealStatusReturnScheduled, due.Status)

		later, err := store.Deals().GetByID(context.Background(), laterID)
		require.NoError(t, err)
		assert.Equal(t, domain.DealStatusActive, later.Status)
	})

	t.Run("Running twice is harmless", func(t *testing.T) {
		store := memory.NewStore()
		clock := service.NewFixedClock(now)
		engine := service.NewRentalEngine(store, clock)
		deals := service.NewDealService(store, engine)

		dueID := seedActiveDeal(t, store, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC))

		jr := NewJobRunner(store, deals, clock, schedulerConfig(3))
		jr.MarkReturnDue()
		jr.MarkReturnDue()

		deal, err := store.Deals().GetByID(context.Background(), dueID)
		require.NoError(t, err)
		assert.Equal(t, domain.DealStatusReturnScheduled, deal.Status)
	})

	t.Run("Each deal is scheduled once even with several due rentals", func(t *testing.T) {
		store := memory.NewStore()
		clock := service.NewFixedClock(now)
		ctx := context.Background()

		dealID := seedActiveDeal(t, store, time.Date(2026, 4, 29, 0, 0, 0, 0, time.UTC))
		require.NoError(t, store.Rentals().Create(ctx, &domain.Rental{
			DealID:    dealID,
			AssetID:   1,
			StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		}))

		deals := &mockDealService{}
		deals.On("ScheduleReturn", mock.Anything, dealID).Return(nil)

		jr := NewJobRunner(store, deals, clock, schedulerConfig(3))
		jr.MarkReturnDue()

		deals.AssertNumberOfCalls(t, "ScheduleReturn", 1)
	})

	t.Run("A deal that moved on is skipped, the rest still run", func(t *testing.T) {
		store := memory.NewStore()
		clock := service.NewFixedClock(now)

		firstID := seedActiveDeal(t, store, time.Date(2026, 4, 29, 0, 0, 0, 0, time.UTC))
		secondID := seedActiveDeal(t, store, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC))

		deals := &mockDealService{}
		deals.On("ScheduleReturn", mock.Anything, firstID).
			Return(&domain.InvalidTransitionError{Entity: "deal", From: "RETURN_SCHEDULED", To: "RETURN_SCHEDULED"})
		deals.On("ScheduleReturn", mock.Anything, secondID).Return(nil)

		jr := NewJobRunner(store, deals, clock, schedulerConfig(3))
		jr.MarkReturnDue()

		deals.AssertExpectations(t)
	})
}
