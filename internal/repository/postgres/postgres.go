package postgres

import (
	"context"
	"database/sql"

	"rentdesk-backend/internal/repository"

	_ "github.com/lib/pq"
)

// Queryer is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the same repository code serves plain reads and transactional work.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB

	deals     repository.DealRepository
	rentals   repository.RentalRepository
	assets    repository.AssetRepository
	clients   repository.ClientRepository
	inventory repository.InventoryRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		deals:     NewDealRepository(db),
		rentals:   NewRentalRepository(db),
		assets:    NewAssetRepository(db),
		clients:   NewClientRepository(db),
		inventory: NewInventoryRepository(db),
	}
}

func (s *Store) Deals() repository.DealRepository           { return s.deals }
func (s *Store) Rentals() repository.RentalRepository       { return s.rentals }
func (s *Store) Assets() repository.AssetRepository         { return s.assets }
func (s *Store) Clients() repository.ClientRepository       { return s.clients }
func (s *Store) Inventory() repository.InventoryRepository  { return s.inventory }

// Begin opens a unit of work backed by one sql transaction.
func (s *Store) Begin(ctx context.Context) (repository.UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &unitOfWork{
		tx:        tx,
		deals:     NewDealRepository(tx),
		rentals:   NewRentalRepository(tx),
		assets:    NewAssetRepository(tx),
		clients:   NewClientRepository(tx),
		inventory: NewInventoryRepository(tx),
	}, nil
}

type unitOfWork struct {
	tx *sql.Tx

	deals     repository.DealRepository
	rentals   repository.RentalRepository
	assets    repository.AssetRepository
	clients   repository.ClientRepository
	inventory repository.InventoryRepository
}

func (u *unitOfWork) Deals() repository.DealRepository          { return u.deals }
func (u *unitOfWork) Rentals() repository.RentalRepository      { return u.rentals }
func (u *unitOfWork) Assets() repository.AssetRepository        { return u.assets }
func (u *unitOfWork) Clients() repository.ClientRepository      { return u.clients }
func (u *unitOfWork) Inventory() repository.InventoryRepository { return u.inventory }

func (u *unitOfWork) Commit() error   { return u.tx.Commit() }
func (u *unitOfWork) Rollback() error { return u.tx.Rollback() }
