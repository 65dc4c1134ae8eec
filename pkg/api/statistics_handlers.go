package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/stats"
)

// reservedParams are query parameters with API meaning; everything else is
// treated as a filter key.
var reservedParams = map[string]bool{
	"values": true,
	"except": true,
	"since":  true,
	"window": true,
}

// filtersFromQuery builds the evaluation filter context from the request's
// non-reserved query parameters. "true" and "false" become booleans so the
// engine's presence rules apply; other values stay strings for the database
// to coerce. Repeated parameters take the first value.
func filtersFromQuery(r *http.Request) stats.Filters {
	query := r.URL.Query()
	filters := make(stats.Filters)
	for key, values := range query {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		switch values[0] {
		case "true":
			filters[key] = true
		case "false":
			filters[key] = false
		default:
			filters[key] = values[0]
		}
	}
	if len(filters) == 0 {
		return nil
	}
	return filters
}

// writeEvaluationError maps engine errors onto HTTP statuses.
func writeEvaluationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stats.ErrNotFound):
		httputil.WriteNotFoundError(w, err.Error())
	case errors.Is(err, stats.ErrUnknownFilter),
		errors.Is(err, stats.ErrBadTemplate),
		errors.Is(err, stats.ErrBadConditions):
		httputil.WriteBadRequest(w, err.Error())
	default:
		httputil.WriteInternalError(w, err)
	}
}

// ListResponse is the GET /api/v1/statistics body without values.
type ListResponse struct {
	Statistics []string `json:"statistics"`
}

// ValuesResponse is the GET /api/v1/statistics?values=true body.
type ValuesResponse struct {
	Filters stats.Filters      `json:"filters,omitempty"`
	Values  map[string]float64 `json:"values"`
}

// StatisticResponse is the GET /api/v1/statistics/{name} body.
type StatisticResponse struct {
	Name    string        `json:"name"`
	Value   float64       `json:"value"`
	Filters stats.Filters `json:"filters,omitempty"`
}

// listStatistics handles GET /api/v1/statistics.
func (s *Server) listStatistics(w http.ResponseWriter, r *http.Request) {
	withValues, err := httputil.ParseQueryBool(r, "values", false)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	source := s.Source()

	if !withValues {
		httputil.WriteSuccess(w, ListResponse{Statistics: source.Names()})
		return
	}

	filters := filtersFromQuery(r)
	except := r.URL.Query()["except"]

	values, err := source.EvaluateAll(r.Context(), filters, except...)
	if err != nil {
		writeEvaluationError(w, err)
		return
	}

	httputil.WriteSuccess(w, ValuesResponse{Filters: filters, Values: values})
}

// getStatistic handles GET /api/v1/statistics/{name}.
func (s *Server) getStatistic(w http.ResponseWriter, r *http.Request) {
	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}

	filters := filtersFromQuery(r)

	value, err := s.Source().Evaluate(r.Context(), name, filters)
	if err != nil {
		writeEvaluationError(w, err)
		return
	}

	httputil.WriteSuccess(w, StatisticResponse{
		Name:    name,
		Value:   value,
		Filters: filters,
	})
}
