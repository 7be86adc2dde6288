package reconcile

import (
	"time"

	"github.com/classsync/backend/internal/domain/upstream"
)

// ---------------------------------------------------------------------------
// Window Planner
// ---------------------------------------------------------------------------

// WindowPlannerConfig holds the time-window tunables
type WindowPlannerConfig struct {
	// Overlap is the rolling incremental window width. It must exceed the
	// realistic maximum time an order keeps mutating after creation;
	// 24h covers payment completion and cancellation of active orders.
	Overlap time.Duration
	// DefaultRangeDays is the manual full-range lookback when unspecified
	DefaultRangeDays int
	// MaxRangeDays bounds the manual full-range lookback
	MaxRangeDays int
	// DisplayZone is the operator-facing timezone for audit fields
	DisplayZone *time.Location
	// APIZone is the timezone the shop API expects in query parameters
	APIZone *time.Location
}

// DefaultWindowPlannerConfig returns the reference tunables
func DefaultWindowPlannerConfig() WindowPlannerConfig {
	return WindowPlannerConfig{
		Overlap:          24 * time.Hour,
		DefaultRangeDays: 30,
		MaxRangeDays:     90,
		DisplayZone:      seoulZone(),
		APIZone:          time.UTC,
	}
}

// seoulZone loads Asia/Seoul, falling back to a fixed KST offset when the
// zone database is unavailable
func seoulZone() *time.Location {
	if loc, err := time.LoadLocation("Asia/Seoul"); err == nil {
		return loc
	}
	return time.FixedZone("KST", 9*60*60)
}

// Window is one half-open query range [Start, End) with its edges rendered
// in both the display timezone and the API timezone
type Window struct {
	Start time.Time
	End   time.Time

	StartAPI     time.Time
	EndAPI       time.Time
	StartDisplay time.Time
	EndDisplay   time.Time
}

// WindowPlanner computes the upstream query range for a run
type WindowPlanner struct {
	config WindowPlannerConfig
}

// NewWindowPlanner creates a planner with the given tunables
func NewWindowPlanner(config WindowPlannerConfig) *WindowPlanner {
	if config.Overlap <= 0 {
		config.Overlap = 24 * time.Hour
	}
	if config.DefaultRangeDays <= 0 {
		config.DefaultRangeDays = 30
	}
	if config.MaxRangeDays <= 0 {
		config.MaxRangeDays = 90
	}
	if config.DisplayZone == nil {
		config.DisplayZone = seoulZone()
	}
	if config.APIZone == nil {
		config.APIZone = time.UTC
	}
	return &WindowPlanner{config: config}
}

// PlanFull returns the manual full-range window [now - rangeDays, now).
// rangeDays is clamped into [1, MaxRangeDays]; zero means the default.
func (p *WindowPlanner) PlanFull(now time.Time, rangeDays int) Window {
	if rangeDays <= 0 {
		rangeDays = p.config.DefaultRangeDays
	}
	if rangeDays > p.config.MaxRangeDays {
		rangeDays = p.config.MaxRangeDays
	}
	return p.window(now.Add(-time.Duration(rangeDays)*24*time.Hour), now)
}

// PlanIncremental returns the rolling overlapping window [now - overlap, now).
// A fixed re-scanned window, not a resume-from-cursor: upstream orders mutate
// in place after creation, so a cursor would miss updates to older records.
func (p *WindowPlanner) PlanIncremental(now time.Time) Window {
	return p.window(now.Add(-p.config.Overlap), now)
}

func (p *WindowPlanner) window(start, end time.Time) Window {
	return Window{
		Start:        start,
		End:          end,
		StartAPI:     start.In(p.config.APIZone),
		EndAPI:       end.In(p.config.APIZone),
		StartDisplay: start.In(p.config.DisplayZone),
		EndDisplay:   end.In(p.config.DisplayZone),
	}
}

// Contains reports whether a creation timestamp falls inside the window
// once converted to the local reference
func (w Window) Contains(t time.Time) bool {
	local := t.In(w.Start.Location())
	return !local.Before(w.Start) && local.Before(w.End)
}

// FilterOrders drops page entries created before the window start (the
// upstream window filter is coarser than required) and entries whose order
// ID was already processed in this run. seen is updated in place.
func (w Window) FilterOrders(orders []upstream.Order, seen map[string]bool) []upstream.Order {
	kept := make([]upstream.Order, 0, len(orders))
	for _, o := range orders {
		if seen[o.OrderID] {
			continue
		}
		if o.OrderedAt.In(w.Start.Location()).Before(w.Start) {
			continue
		}
		seen[o.OrderID] = true
		kept = append(kept, o)
	}
	return kept
}
