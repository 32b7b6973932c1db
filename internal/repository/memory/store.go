// Package memory is an in-memory implementation of the repository
// interfaces, used by service tests in place of postgres. Begin takes the
// store-wide lock and works on a deep copy of the state, so a unit of work
// is fully serialized against every other one and rolls back by discarding
// the copy. That mirrors the row-lock serialization the postgres store gets
// from SELECT ... FOR UPDATE.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type state struct {
	nextID int64

	deals       map[int64]domain.Deal
	rentals     map[int64]domain.Rental
	periods     map[int64]domain.RentalPeriod
	lines       map[int64]domain.RentalAccessoryLine
	assets      map[int64]domain.Asset
	clients     map[int64]domain.Client
	accessories map[int64]domain.Accessory
	items       map[int64]domain.InventoryItem
	movements   map[int64]domain.InventoryMovement
}

func newState() *state {
	return &state{
		nextID:      1,
		deals:       map[int64]domain.Deal{},
		rentals:     map[int64]domain.Rental{},
		periods:     map[int64]domain.RentalPeriod{},
		lines:       map[int64]domain.RentalAccessoryLine{},
		assets:      map[int64]domain.Asset{},
		clients:     map[int64]domain.Client{},
		accessories: map[int64]domain.Accessory{},
		items:       map[int64]domain.InventoryItem{},
		movements:   map[int64]domain.InventoryMovement{},
	}
}

func (st *state) id() int64 {
	id := st.nextID
	st.nextID++
	return id
}

func copyInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyDeal(d domain.Deal) domain.Deal {
	d.ParentDealID = copyInt64(d.ParentDealID)
	d.CreatedByID = copyInt64(d.CreatedByID)
	return d
}

func copyRental(rt domain.Rental) domain.Rental {
	rt.ActualEndDate = copyTime(rt.ActualEndDate)
	rt.PurchaseConversionCents = copyInt64(rt.PurchaseConversionCents)
	return rt
}

func (st *state) clone() *state {
	c := newState()
	c.nextID = st.nextID
	for k, v := range st.deals {
		c.deals[k] = copyDeal(v)
	}
	for k, v := range st.rentals {
		c.rentals[k] = copyRental(v)
	}
	for k, v := range st.periods {
		c.periods[k] = v
	}
	for k, v := range st.lines {
		c.lines[k] = v
	}
	for k, v := range st.assets {
		c.assets[k] = v
	}
	for k, v := range st.clients {
		c.clients[k] = v
	}
	for k, v := range st.accessories {
		c.accessories[k] = v
	}
	for k, v := range st.items {
		c.items[k] = v
	}
	for k, v := range st.movements {
		c.movements[k] = v
	}
	return c
}

// access yields the state a repository works on plus a release hook. Direct
// store repositories lock per call; unit-of-work repositories already own
// the lock and work on their private copy.
type access func() (*state, func())

type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) direct() (st *state, release func()) {
	s.mu.Lock()
	return s.st, s.mu.Unlock
}

func (s *Store) Begin(ctx context.Context) (repository.UnitOfWork, error) {
	s.mu.Lock()
	u := &unitOfWork{store: s, work: s.st.clone()}
	return u, nil
}

func (s *Store) Deals() repository.DealRepository          { return &dealRepo{s.direct} }
func (s *Store) Rentals() repository.RentalRepository      { return &rentalRepo{s.direct} }
func (s *Store) Assets() repository.AssetRepository        { return &assetRepo{s.direct} }
func (s *Store) Clients() repository.ClientRepository      { return &clientRepo{s.direct} }
func (s *Store) Inventory() repository.InventoryRepository { return &inventoryRepo{s.direct} }

type unitOfWork struct {
	store *Store
	work  *state
	done  bool
}

func (u *unitOfWork) owned() (*state, func()) {
	return u.work, func() {}
}

func (u *unitOfWork) Deals() repository.DealRepository          { return &dealRepo{u.owned} }
func (u *unitOfWork) Rentals() repository.RentalRepository      { return &rentalRepo{u.owned} }
func (u *unitOfWork) Assets() repository.AssetRepository        { return &assetRepo{u.owned} }
func (u *unitOfWork) Clients() repository.ClientRepository      { return &clientRepo{u.owned} }
func (u *unitOfWork) Inventory() repository.InventoryRepository { return &inventoryRepo{u.owned} }

func (u *unitOfWork) Commit() error {
	if u.done {
		return nil
	}
	u.done = true
	u.store.st = u.work
	u.store.mu.Unlock()
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	u.store.mu.Unlock()
	return nil
}

// --- deals ---

type dealRepo struct {
	acquire access
}

func (r *dealRepo) Create(ctx context.Context, d *domain.Deal) error {
	st, release := r.acquire()
	defer release()
	d.ID = st.id()
	now := time.Now()
	d.CreatedOn = now
	d.UpdatedOn = now
	st.deals[d.ID] = copyDeal(*d)
	return nil
}

func (r *dealRepo) GetByID(ctx context.Context, id int64) (*domain.Deal, error) {
	st, release := r.acquire()
	defer release()
	d, ok := st.deals[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "deal", ID: id}
	}
	d = copyDeal(d)
	return &d, nil
}

func (r *dealRepo) UpdateStatus(ctx context.Context, id int64, status domain.DealStatus) error {
	st, release := r.acquire()
	defer release()
	d, ok := st.deals[id]
	if !ok {
		return &domain.NotFoundError{Entity: "deal", ID: id}
	}
	d.Status = status
	d.UpdatedOn = time.Now()
	st.deals[id] = d
	return nil
}

func (r *dealRepo) List(ctx context.Context, status string, page, pageSize int32) ([]domain.Deal, int32, error) {
	st, release := r.acquire()
	defer release()
	var all []domain.Deal
	for _, d := range st.deals {
		if status == "" || string(d.Status) == status {
			all = append(all, copyDeal(d))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int32(len(all))
	from := (page - 1) * pageSize
	if from >= total {
		return nil, total, nil
	}
	to := from + pageSize
	if to > total {
		to = total
	}
	return all[from:to], total, nil
}

// --- rentals ---

type rentalRepo struct {
	acquire access
}

func (r *rentalRepo) Create(ctx context.Context, rt *domain.Rental) error {
	st, release := r.acquire()
	defer release()
	rt.ID = st.id()
	now := time.Now()
	rt.CreatedOn = now
	rt.UpdatedOn = now
	st.rentals[rt.ID] = copyRental(*rt)
	return nil
}

func (r *rentalRepo) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	st, release := r.acquire()
	defer release()
	rt, ok := st.rentals[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "rental", ID: id}
	}
	rt = copyRental(rt)
	return &rt, nil
}

// GetByIDForUpdate is the same as GetByID here: the unit of work already
// holds the store-wide lock.
func (r *rentalRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error) {
	return r.GetByID(ctx, id)
}

func (r *rentalRepo) Update(ctx context.Context, rt *domain.Rental) error {
	st, release := r.acquire()
	defer release()
	if _, ok := st.rentals[rt.ID]; !ok {
		return &domain.NotFoundError{Entity: "rental", ID: rt.ID}
	}
	rt.UpdatedOn = time.Now()
	st.rentals[rt.ID] = copyRental(*rt)
	return nil
}

func (r *rentalRepo) ListByDeal(ctx context.Context, dealID int64) ([]domain.Rental, error) {
	st, release := r.acquire()
	defer release()
	var out []domain.Rental
	for _, rt := range st.rentals {
		if rt.DealID == dealID {
			out = append(out, copyRental(rt))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *rentalRepo) FindConflicting(ctx context.Context, assetID int64, rng domain.DateRange, excludeRentalID *int64) ([]repository.Conflict, error) {
	st, release := r.acquire()
	defer release()
	var out []repository.Conflict
	for _, rt := range st.rentals {
		if rt.AssetID != assetID {
			continue
		}
		if excludeRentalID != nil && rt.ID == *excludeRentalID {
			continue
		}
		deal, ok := st.deals[rt.DealID]
		if !ok || !deal.Status.IsBlocking() {
			continue
		}
		end := rt.EndDate
		if rt.ActualEndDate != nil {
			end = *rt.ActualEndDate
		}
		if !rng.Overlaps(domain.DateRange{Start: rt.StartDate, End: end}) {
			continue
		}
		cf := repository.Conflict{
			Rental:     copyRental(rt),
			DealID:     deal.ID,
			DealStatus: deal.Status,
		}
		if c, ok := st.clients[deal.ClientID]; ok {
			cf.ClientName = c.Name
		}
		if a, ok := st.assets[rt.AssetID]; ok {
			cf.AssetCode = a.Code
		}
		out = append(out, cf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rental.StartDate.Before(out[j].Rental.StartDate) })
	return out, nil
}

func (r *rentalRepo) ListReturnDue(ctx context.Context, by time.Time) ([]domain.Rental, error) {
	st, release := r.acquire()
	defer release()
	var out []domain.Rental
	for _, rt := range st.rentals {
		if rt.ActualEndDate != nil || rt.EndDate.After(by) {
			continue
		}
		deal, ok := st.deals[rt.DealID]
		if !ok {
			continue
		}
		if deal.Status != domain.DealStatusActive && deal.Status != domain.DealStatusExtended {
			continue
		}
		out = append(out, copyRental(rt))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

func (r *rentalRepo) CreatePeriod(ctx context.Context, p *domain.RentalPeriod) error {
	st, release := r.acquire()
	defer release()
	p.ID = st.id()
	p.CreatedOn = time.Now()
	st.periods[p.ID] = *p
	return nil
}

func (r *rentalRepo) ListPeriods(ctx context.Context, rentalID int64) ([]domain.RentalPeriod, error) {
	st, release := r.acquire()
	defer release()
	var out []domain.RentalPeriod
	for _, p := range st.periods {
		if p.RentalID == rentalID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodNumber < out[j].PeriodNumber })
	return out, nil
}

func (r *rentalRepo) CreateAccessoryLine(ctx context.Context, l *domain.RentalAccessoryLine) error {
	st, release := r.acquire()
	defer release()
	l.ID = st.id()
	st.lines[l.ID] = *l
	return nil
}

func (r *rentalRepo) ListAccessoryLines(ctx context.Context, rentalID int64) ([]domain.RentalAccessoryLine, error) {
	st, release := r.acquire()
	defer release()
	var out []domain.RentalAccessoryLine
	for _, l := range st.lines {
		if l.RentalID == rentalID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- assets ---

type assetRepo struct {
	acquire access
}

func (r *assetRepo) Create(ctx context.Context, a *domain.Asset) error {
	st, release := r.acquire()
	defer release()
	a.ID = st.id()
	now := time.Now()
	a.CreatedOn = now
	a.UpdatedOn = now
	st.assets[a.ID] = *a
	return nil
}

func (r *assetRepo) GetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	st, release := r.acquire()
	defer release()
	a, ok := st.assets[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "asset", ID: id}
	}
	return &a, nil
}

// GetByIDForUpdate is the same as GetByID here: the unit of work already
// holds the store-wide lock.
func (r *assetRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Asset, error) {
	return r.GetByID(ctx, id)
}

func (r *assetRepo) UpdateStatus(ctx context.Context, id int64, status domain.AssetStatus) error {
	st, release := r.acquire()
	defer release()
	a, ok := st.assets[id]
	if !ok {
		return &domain.NotFoundError{Entity: "asset", ID: id}
	}
	a.Status = status
	a.UpdatedOn = time.Now()
	st.assets[id] = a
	return nil
}

// --- clients ---

type clientRepo struct {
	acquire access
}

func (r *clientRepo) Create(ctx context.Context, c *domain.Client) error {
	st, release := r.acquire()
	defer release()
	c.ID = st.id()
	c.CreatedOn = time.Now()
	st.clients[c.ID] = *c
	return nil
}

func (r *clientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	st, release := r.acquire()
	defer release()
	c, ok := st.clients[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "client", ID: id}
	}
	return &c, nil
}

// --- inventory ---

type inventoryRepo struct {
	acquire access
}

func (r *inventoryRepo) CreateAccessory(ctx context.Context, acc *domain.Accessory) error {
	st, release := r.acquire()
	defer release()
	acc.ID = st.id()
	st.accessories[acc.ID] = *acc
	return nil
}

func (r *inventoryRepo) GetAccessory(ctx context.Context, id int64) (*domain.Accessory, error) {
	st, release := r.acquire()
	defer release()
	acc, ok := st.accessories[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "accessory", ID: id}
	}
	return &acc, nil
}

func (r *inventoryRepo) CreateItem(ctx context.Context, item *domain.InventoryItem) error {
	st, release := r.acquire()
	defer release()
	item.ID = st.id()
	item.UpdatedOn = time.Now()
	st.items[item.ID] = *item
	return nil
}

func (r *inventoryRepo) GetItemByAccessory(ctx context.Context, accessoryID int64) (*domain.InventoryItem, error) {
	st, release := r.acquire()
	defer release()
	return findItem(st, accessoryID)
}

func (r *inventoryRepo) GetItemByAccessoryForUpdate(ctx context.Context, accessoryID int64) (*domain.InventoryItem, error) {
	return r.GetItemByAccessory(ctx, accessoryID)
}

func findItem(st *state, accessoryID int64) (*domain.InventoryItem, error) {
	for _, it := range st.items {
		if it.AccessoryID == accessoryID {
			cp := it
			return &cp, nil
		}
	}
	return nil, &domain.NotFoundError{Entity: "inventory item for accessory", ID: accessoryID}
}

func (r *inventoryRepo) UpdateItemReserved(ctx context.Context, itemID int64, qtyReserved int32) error {
	st, release := r.acquire()
	defer release()
	it, ok := st.items[itemID]
	if !ok {
		return &domain.NotFoundError{Entity: "inventory item", ID: itemID}
	}
	it.QtyReserved = qtyReserved
	it.UpdatedOn = time.Now()
	st.items[itemID] = it
	return nil
}

func (r *inventoryRepo) CreateMovement(ctx context.Context, mv *domain.InventoryMovement) error {
	st, release := r.acquire()
	defer release()
	mv.ID = st.id()
	mv.CreatedOn = time.Now()
	st.movements[mv.ID] = *mv
	return nil
}

func (r *inventoryRepo) ListMovementsByRental(ctx context.Context, rentalID int64) ([]domain.InventoryMovement, error) {
	st, release := r.acquire()
	defer release()
	var out []domain.InventoryMovement
	for _, mv := range st.movements {
		if mv.RelatedRentalID == rentalID {
			out = append(out, mv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
