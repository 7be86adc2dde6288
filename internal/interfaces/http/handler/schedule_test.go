package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classsync/backend/internal/domain/reconcile"
	"github.com/classsync/backend/internal/interfaces/http/dto"
)

func testSchedule(storeID uuid.UUID) *reconcile.StoreSchedule {
	return &reconcile.StoreSchedule{
		StoreID:         storeID,
		Enabled:         true,
		IntervalMinutes: 10,
		NextDueAt:       time.Now().Add(10 * time.Minute),
	}
}

func boolPtr(b bool) *bool { return &b }

func TestScheduleHandler_Toggle(t *testing.T) {
	storeID := uuid.New()

	t.Run("enables with interval", func(t *testing.T) {
		svc := &fakeScheduleService{schedule: testSchedule(storeID)}
		engine := newTestEngine(NewScheduleHandler(svc))

		rec, resp := doRequest(t, engine, http.MethodPut,
			fmt.Sprintf("/api/v1/stores/%s/schedule", storeID),
			ToggleScheduleRequest{Enabled: boolPtr(true), IntervalMinutes: 15})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, svc.lastEnabled)
		assert.Equal(t, 15, svc.lastMinutes)

		var out ScheduleResponse
		decodeData(t, resp, &out)
		assert.Equal(t, storeID, out.StoreID)
		assert.True(t, out.Enabled)
	})

	t.Run("enable without credential rejected", func(t *testing.T) {
		svc := &fakeScheduleService{toggleErr: reconcile.ErrNoAutomationCredential}
		engine := newTestEngine(NewScheduleHandler(svc))

		rec, resp := doRequest(t, engine, http.MethodPut,
			fmt.Sprintf("/api/v1/stores/%s/schedule", storeID),
			ToggleScheduleRequest{Enabled: boolPtr(true)})

		assertErrorCode(t, rec, resp, http.StatusUnprocessableEntity, dto.ErrCodeNoCredential)
	})

	t.Run("interval out of range rejected", func(t *testing.T) {
		svc := &fakeScheduleService{toggleErr: reconcile.ErrInvalidInterval}
		engine := newTestEngine(NewScheduleHandler(svc))

		rec, resp := doRequest(t, engine, http.MethodPut,
			fmt.Sprintf("/api/v1/stores/%s/schedule", storeID),
			ToggleScheduleRequest{Enabled: boolPtr(true), IntervalMinutes: 61})

		assertErrorCode(t, rec, resp, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("enabled field is required", func(t *testing.T) {
		engine := newTestEngine(NewScheduleHandler(&fakeScheduleService{}))
		rec, resp := doRequest(t, engine, http.MethodPut,
			fmt.Sprintf("/api/v1/stores/%s/schedule", storeID),
			map[string]int{"interval_minutes": 10})
		assertErrorCode(t, rec, resp, http.StatusBadRequest, dto.ErrCodeBadRequest)
	})
}

func TestScheduleHandler_Status(t *testing.T) {
	storeID := uuid.New()

	t.Run("returns schedule", func(t *testing.T) {
		engine := newTestEngine(NewScheduleHandler(&fakeScheduleService{schedule: testSchedule(storeID)}))
		rec, resp := doRequest(t, engine, http.MethodGet,
			fmt.Sprintf("/api/v1/stores/%s/schedule", storeID), nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var out ScheduleResponse
		decodeData(t, resp, &out)
		assert.Equal(t, 10, out.IntervalMinutes)
	})

	t.Run("never-enabled store", func(t *testing.T) {
		engine := newTestEngine(NewScheduleHandler(&fakeScheduleService{statusErr: reconcile.ErrScheduleNotFound}))
		rec, resp := doRequest(t, engine, http.MethodGet,
			fmt.Sprintf("/api/v1/stores/%s/schedule", storeID), nil)
		assertErrorCode(t, rec, resp, http.StatusNotFound, dto.ErrCodeNotFound)
	})
}
