package reconcile

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classsync/backend/internal/domain/reconcile"
	"github.com/classsync/backend/internal/domain/upstream"
)

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

type memRecordRepo struct {
	mu        sync.Mutex
	byKey     map[string]*reconcile.OrderRecord
	upserts   int
	upsertErr error
}

func newMemRecordRepo() *memRecordRepo {
	return &memRecordRepo{byKey: make(map[string]*reconcile.OrderRecord)}
}

func recordKey(storeID uuid.UUID, platformOrderID string) string {
	return storeID.String() + ":" + platformOrderID
}

func (r *memRecordRepo) Upsert(_ context.Context, record *reconcile.OrderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.upsertErr != nil {
		return r.upsertErr
	}
	clone := *record
	r.byKey[recordKey(record.StoreID, record.PlatformOrderID)] = &clone
	return nil
}

func (r *memRecordRepo) Save(_ context.Context, record *reconcile.OrderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *record
	r.byKey[recordKey(record.StoreID, record.PlatformOrderID)] = &clone
	return nil
}

func (r *memRecordRepo) FindByID(_ context.Context, id uuid.UUID) (*reconcile.OrderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.byKey {
		if rec.ID == id {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, reconcile.ErrRecordNotFound
}

func (r *memRecordRepo) FindByNaturalKey(_ context.Context, storeID uuid.UUID, platformOrderID string) (*reconcile.OrderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byKey[recordKey(storeID, platformOrderID)]
	if !ok {
		return nil, reconcile.ErrRecordNotFound
	}
	clone := *rec
	return &clone, nil
}

func (r *memRecordRepo) List(_ context.Context, storeID uuid.UUID, _ reconcile.OrderRecordFilter) ([]reconcile.OrderRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]reconcile.OrderRecord, 0)
	for _, rec := range r.byKey {
		if rec.StoreID == storeID {
			out = append(out, *rec)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memRecordRepo) DeleteByStore(_ context.Context, storeID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, rec := range r.byKey {
		if rec.StoreID == storeID {
			delete(r.byKey, k)
		}
	}
	return nil
}

func (r *memRecordRepo) DeleteOperatorEntered(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, rec := range r.byKey {
		if rec.ID == id && rec.OperatorEntered {
			delete(r.byKey, k)
			return nil
		}
	}
	return reconcile.ErrRecordNotFound
}

func (r *memRecordRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}

type memHistoryRepo struct {
	mu      sync.Mutex
	entries []reconcile.StatusHistory
}

func (r *memHistoryRepo) Append(_ context.Context, entry *reconcile.StatusHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memHistoryRepo) ListByRecord(_ context.Context, recordID uuid.UUID) ([]reconcile.StatusHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]reconcile.StatusHistory, 0)
	for _, e := range r.entries {
		if e.RecordID == recordID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memHistoryRepo) DeleteByStore(_ context.Context, storeID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.StoreID != storeID {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	return nil
}

type memRunRepo struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*reconcile.SyncRun
	// one rolling scheduled row per store
	scheduled map[uuid.UUID]*reconcile.SyncRun
}

func newMemRunRepo() *memRunRepo {
	return &memRunRepo{
		runs:      make(map[uuid.UUID]*reconcile.SyncRun),
		scheduled: make(map[uuid.UUID]*reconcile.SyncRun),
	}
}

func (r *memRunRepo) Create(_ context.Context, run *reconcile.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *run
	r.runs[run.ID] = &clone
	return nil
}

func (r *memRunRepo) Save(_ context.Context, run *reconcile.SyncRun) error {
	return r.Create(nil, run)
}

func (r *memRunRepo) UpsertScheduled(_ context.Context, run *reconcile.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *run
	r.scheduled[run.StoreID] = &clone
	return nil
}

func (r *memRunRepo) FindRunning(_ context.Context, storeID uuid.UUID) (*reconcile.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if run.StoreID == storeID && run.Status == reconcile.RunStatusRunning {
			clone := *run
			return &clone, nil
		}
	}
	if run, ok := r.scheduled[storeID]; ok && run.Status == reconcile.RunStatusRunning {
		clone := *run
		return &clone, nil
	}
	return nil, reconcile.ErrRunNotFound
}

func (r *memRunRepo) FindByID(_ context.Context, id uuid.UUID) (*reconcile.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok {
		clone := *run
		return &clone, nil
	}
	for _, run := range r.scheduled {
		if run.ID == id {
			clone := *run
			return &clone, nil
		}
	}
	return nil, reconcile.ErrRunNotFound
}

func (r *memRunRepo) ListByStore(_ context.Context, storeID uuid.UUID, limit int) ([]reconcile.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]reconcile.SyncRun, 0)
	for _, run := range r.runs {
		if run.StoreID == storeID {
			out = append(out, *run)
		}
	}
	if run, ok := r.scheduled[storeID]; ok {
		out = append(out, *run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRunRepo) DeleteByStore(_ context.Context, storeID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, run := range r.runs {
		if run.StoreID == storeID {
			delete(r.runs, id)
		}
	}
	delete(r.scheduled, storeID)
	return nil
}

type memScheduleRepo struct {
	mu        sync.Mutex
	schedules map[uuid.UUID]*reconcile.StoreSchedule
}

func newMemScheduleRepo() *memScheduleRepo {
	return &memScheduleRepo{schedules: make(map[uuid.UUID]*reconcile.StoreSchedule)}
}

func (r *memScheduleRepo) Find(_ context.Context, storeID uuid.UUID) (*reconcile.StoreSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[storeID]
	if !ok {
		return nil, reconcile.ErrScheduleNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *memScheduleRepo) Save(_ context.Context, schedule *reconcile.StoreSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *schedule
	r.schedules[schedule.StoreID] = &clone
	return nil
}

func (r *memScheduleRepo) FindEnabled(_ context.Context) ([]reconcile.StoreSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]reconcile.StoreSchedule, 0)
	for _, s := range r.schedules {
		if s.Enabled {
			out = append(out, *s)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Fake upstream client
// ---------------------------------------------------------------------------

type fakeClient struct {
	mu       sync.Mutex
	orders   []upstream.Order
	products map[string]*upstream.Product
	members  map[string]*upstream.Member
	pageSize int

	listErr    error
	productErr error
	memberErr  error
	listCalls  int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		products: make(map[string]*upstream.Product),
		members:  make(map[string]*upstream.Member),
	}
}

func (c *fakeClient) ListOrders(_ context.Context, req *upstream.OrderListRequest) (*upstream.OrderListResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}

	size := c.pageSize
	if size <= 0 {
		size = req.PageSize
	}
	start := (req.PageNo - 1) * size
	if start >= len(c.orders) {
		return &upstream.OrderListResponse{TotalCount: len(c.orders)}, nil
	}
	end := start + size
	if end > len(c.orders) {
		end = len(c.orders)
	}
	return &upstream.OrderListResponse{
		Orders:     append([]upstream.Order(nil), c.orders[start:end]...),
		TotalCount: len(c.orders),
		HasMore:    end < len(c.orders),
		NextPageNo: req.PageNo + 1,
	}, nil
}

func (c *fakeClient) GetOrder(_ context.Context, _ uuid.UUID, orderID string) (*upstream.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.orders {
		if c.orders[i].OrderID == orderID {
			clone := c.orders[i]
			return &clone, nil
		}
	}
	return nil, upstream.ErrOrderNotFound
}

func (c *fakeClient) GetProduct(_ context.Context, _ uuid.UUID, productID string) (*upstream.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.productErr != nil {
		return nil, c.productErr
	}
	p, ok := c.products[productID]
	if !ok {
		return nil, upstream.ErrProductNotFound
	}
	return p, nil
}

func (c *fakeClient) GetMember(_ context.Context, _ uuid.UUID, memberID string) (*upstream.Member, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.memberErr != nil {
		return nil, c.memberErr
	}
	m, ok := c.members[memberID]
	if !ok {
		return nil, upstream.ErrMemberNotFound
	}
	return m, nil
}

func (c *fakeClient) ListCategories(_ context.Context, _ uuid.UUID) ([]upstream.Category, error) {
	return nil, nil
}

// ---------------------------------------------------------------------------
// Fake collaborators
// ---------------------------------------------------------------------------

type fakeNotifier struct {
	mu    sync.Mutex
	calls []uuid.UUID
	err   error
}

func (n *fakeNotifier) StatusChanged(_ context.Context, record *reconcile.OrderRecord, _ reconcile.ManageStatus) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.calls = append(n.calls, record.ID)
	return nil
}

type fakeCredChecker struct {
	err error
}

func (c *fakeCredChecker) EnsureAutomation(_ context.Context, _ uuid.UUID) error {
	return c.err
}

func newTestLogger() *zap.Logger {
	return zap.NewNop()
}

// paidOrder builds a minimal paid order for tests
func paidOrder(orderID string, orderedAt time.Time) upstream.Order {
	return upstream.Order{
		OrderID:     orderID,
		OrderedAt:   orderedAt,
		OrdererName: "김영희",
		Payments: []upstream.Payment{
			{PaymentID: orderID + "-p1", Status: upstream.PaymentStatusPaid, Method: "CARD"},
		},
		Sections: []upstream.OrderSection{
			{
				SectionID:   orderID + "-s1",
				ClaimStatus: upstream.ClaimStatusNone,
				Items: []upstream.OrderItem{
					{ItemID: orderID + "-i1", ProductID: "prod-1", Name: "원데이 클래스", Quantity: 1},
				},
			},
		},
	}
}
