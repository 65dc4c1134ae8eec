package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/snapshots"
)

// History is the slice of the snapshot store the API reads.
type History interface {
	History(ctx context.Context, name string, since time.Time) ([]snapshots.Point, error)
}

// SnapshotHandlers serves recorded statistic history.
type SnapshotHandlers struct {
	history History
}

// NewSnapshotHandlers creates snapshot handlers over the given store.
func NewSnapshotHandlers(history History) *SnapshotHandlers {
	return &SnapshotHandlers{history: history}
}

// RegisterRoutes registers the snapshot routes.
func (h *SnapshotHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/snapshots/{name}", h.getHistory).Methods("GET")
}

// HistoryResponse is the GET /api/v1/snapshots/{name} body. Summary is
// omitted when there are no points in the window.
type HistoryResponse struct {
	Name    string             `json:"name"`
	Since   time.Time          `json:"since"`
	Points  []snapshots.Point  `json:"points"`
	Summary *snapshots.Summary `json:"summary,omitempty"`
}

// getHistory handles GET /api/v1/snapshots/{name}. The window is bounded by
// either ?since=<RFC 3339> or ?window=<duration>; since wins when both are
// given, and the default window is 24 hours.
func (h *SnapshotHandlers) getHistory(w http.ResponseWriter, r *http.Request) {
	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}

	window, err := httputil.ParseQueryDuration(r, "window", 24*time.Hour)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	since, err := httputil.ParseQueryTime(r, "since", time.Now().UTC().Add(-window))
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	points, err := h.history.History(r.Context(), name, since)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	resp := HistoryResponse{
		Name:   name,
		Since:  since,
		Points: points,
	}
	if resp.Points == nil {
		resp.Points = []snapshots.Point{}
	}

	summary, err := snapshots.Summarize(points)
	switch {
	case err == nil:
		resp.Summary = &summary
	case errors.Is(err, snapshots.ErrNoHistory):
		// Empty window; points stays [] and summary is omitted.
	default:
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, resp)
}
