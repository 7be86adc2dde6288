package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/classsync/backend/internal/domain/reconcile"
	"github.com/classsync/backend/internal/interfaces/http/dto"
	"github.com/classsync/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestEngine builds a gin engine with the given registrars mounted
// under /api/v1
func newTestEngine(registrars ...router.RouteRegistrar) *gin.Engine {
	engine := gin.New()
	r := router.NewRouter(engine)
	for _, registrar := range registrars {
		r.Register(registrar)
	}
	r.Setup()
	return engine
}

// doRequest performs a request and decodes the standard envelope
func doRequest(t *testing.T, engine *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var resp dto.Response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

// decodeData re-decodes the envelope's data field into out
func decodeData(t *testing.T, resp dto.Response, out any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

// ---------------------------------------------------------------------------
// Service fakes
// ---------------------------------------------------------------------------

type fakeSyncService struct {
	startRun  *reconcile.SyncRun
	startErr  error
	progress  *reconcile.SyncRun
	progErr   error
	runs      []reconcile.SyncRun
	runsErr   error
	resetErr  error
	lastRange int
	lastLimit int
}

func (f *fakeSyncService) StartManual(_ context.Context, _ uuid.UUID, rangeDays int) (*reconcile.SyncRun, error) {
	f.lastRange = rangeDays
	return f.startRun, f.startErr
}

func (f *fakeSyncService) Progress(_ context.Context, _ uuid.UUID) (*reconcile.SyncRun, error) {
	return f.progress, f.progErr
}

func (f *fakeSyncService) ListRuns(_ context.Context, _ uuid.UUID, limit int) ([]reconcile.SyncRun, error) {
	f.lastLimit = limit
	return f.runs, f.runsErr
}

func (f *fakeSyncService) Reset(_ context.Context, _ uuid.UUID) error {
	return f.resetErr
}

type fakeRecordService struct {
	records   []reconcile.OrderRecord
	total     int64
	listErr   error
	record    *reconcile.OrderRecord
	getErr    error
	deleteErr error
	filter    reconcile.OrderRecordFilter
}

func (f *fakeRecordService) List(_ context.Context, _ uuid.UUID, filter reconcile.OrderRecordFilter) ([]reconcile.OrderRecord, int64, error) {
	f.filter = filter
	return f.records, f.total, f.listErr
}

func (f *fakeRecordService) Get(_ context.Context, _ uuid.UUID) (*reconcile.OrderRecord, error) {
	return f.record, f.getErr
}

func (f *fakeRecordService) Delete(_ context.Context, _ uuid.UUID) error {
	return f.deleteErr
}

type fakeStatusService struct {
	record    *reconcile.OrderRecord
	changeErr error
	history   []reconcile.StatusHistory
	histErr   error

	lastStatus reconcile.ManageStatus
	lastRound  *int
	lastActor  string
}

func (f *fakeStatusService) ChangeStatus(_ context.Context, _ uuid.UUID, requested reconcile.ManageStatus, round *int, actor string) (*reconcile.OrderRecord, error) {
	f.lastStatus = requested
	f.lastRound = round
	f.lastActor = actor
	return f.record, f.changeErr
}

func (f *fakeStatusService) History(_ context.Context, _ uuid.UUID) ([]reconcile.StatusHistory, error) {
	return f.history, f.histErr
}

type fakeScheduleService struct {
	schedule    *reconcile.StoreSchedule
	toggleErr   error
	statusErr   error
	lastEnabled bool
	lastMinutes int
}

func (f *fakeScheduleService) Toggle(_ context.Context, _ uuid.UUID, enabled bool, intervalMinutes int) (*reconcile.StoreSchedule, error) {
	f.lastEnabled = enabled
	f.lastMinutes = intervalMinutes
	return f.schedule, f.toggleErr
}

func (f *fakeScheduleService) Status(_ context.Context, _ uuid.UUID) (*reconcile.StoreSchedule, error) {
	return f.schedule, f.statusErr
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, resp dto.Response, wantStatus int, wantCode string) {
	t.Helper()
	require.Equal(t, wantStatus, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, wantCode, resp.Error.Code)
}
