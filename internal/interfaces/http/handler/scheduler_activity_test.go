package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classsync/backend/internal/infrastructure/scheduler"
)

func TestSchedulerHandler_Activity(t *testing.T) {
	feed := scheduler.NewActivityFeed(10)
	feed.Record(scheduler.Event{Kind: scheduler.EventKindTick, Message: "1 store(s) due"})
	feed.Record(scheduler.Event{Kind: scheduler.EventKindRunFinished, Message: "scheduled sync finished"})

	engine := newTestEngine(NewSchedulerHandler(feed))
	rec, resp := doRequest(t, engine, http.MethodGet, "/api/v1/scheduler/activity", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var out []scheduler.Event
	decodeData(t, resp, &out)
	require.Len(t, out, 2)
	assert.Equal(t, scheduler.EventKindRunFinished, out[0].Kind)
}
