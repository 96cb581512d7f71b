package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/de-tools/housing-atlas/pkg/models/api"
	"github.com/de-tools/housing-atlas/pkg/models/domain"
	"github.com/de-tools/housing-atlas/pkg/services/catalog"
	"github.com/de-tools/housing-atlas/pkg/services/figure"
	"github.com/de-tools/housing-atlas/pkg/services/metrics"
	"github.com/de-tools/housing-atlas/pkg/services/selection"
	"github.com/rs/zerolog"
)

type Handler struct {
	catalog  *catalog.Catalog
	resolver *selection.Resolver
	composer figure.Composer
	defaults domain.Defaults
}

func NewHandler(cat *catalog.Catalog, resolver *selection.Resolver, composer figure.Composer, defaults domain.Defaults) *Handler {
	return &Handler{
		catalog:  cat,
		resolver: resolver,
		composer: composer,
		defaults: defaults,
	}
}

// GetDefaults serves the configured initial dashboard state. Region
// ids pass through the resolver so they arrive already bounded.
func (h *Handler) GetDefaults(w http.ResponseWriter, r *http.Request) {
	ids := h.resolver.Apply(nil, domain.SelectionEvent{
		Kind:  domain.EventBoxSelect,
		Picks: h.defaults.RegionIDs,
	})
	writeJSON(r, w, api.Defaults{
		Variable:           h.defaults.Variable,
		Duration:           string(h.defaults.Duration),
		RegionIDs:          ids,
		MaxSelectedRegions: h.resolver.Max,
	})
}

func (h *Handler) ListVariables(w http.ResponseWriter, r *http.Request) {
	kind := domain.VariableKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = domain.KeyVariables
	}
	if kind != domain.KeyVariables && kind != domain.AllVariables {
		writeError(w, http.StatusBadRequest, "unknown variable kind")
		return
	}

	variables := h.catalog.Variables(kind)
	response := make([]api.Variable, 0, len(variables))
	for _, v := range variables {
		response = append(response, api.Variable{
			Name:       v.Name,
			PrettyName: v.PrettyName,
			Key:        v.Key,
		})
	}
	writeJSON(r, w, response)
}

func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	geoTypes, err := parseGeoTypes(r.URL.Query().Get("geo_types"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	regions := h.catalog.Regions(geoTypes)
	response := make([]api.Region, 0, len(regions))
	for _, region := range regions {
		response = append(response, api.Region{
			ID:   region.ID,
			Name: region.Name,
			Type: string(region.Type),
		})
	}
	writeJSON(r, w, response)
}

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	duration := domain.Duration(r.URL.Query().Get("duration"))
	if !duration.Valid() {
		writeError(w, http.StatusBadRequest, "unknown duration")
		return
	}

	latest, _ := h.catalog.Latest(duration)
	writeJSON(r, w, api.Periods{
		Duration: string(duration),
		EndDates: h.catalog.EndDates(duration),
		Latest:   latest,
	})
}

func (h *Handler) ResolveSelection(w http.ResponseWriter, r *http.Request) {
	var req api.SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	next := h.resolver.Apply(req.Prior, domain.SelectionEvent{
		Kind:     domain.SelectionEventKind(req.Event.Kind),
		Picks:    req.Event.Picks,
		RegionID: req.Event.RegionID,
	})
	writeJSON(r, w, api.Selection{RegionIDs: next})
}

func (h *Handler) MapFigure(w http.ResponseWriter, r *http.Request) {
	var req api.MapFigureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	geoTypes, err := parseGeoTypes(strings.Join(req.GeoTypes, ","))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fig, err := h.composer.Map(r.Context(), domain.MapRequest{
		Variable:  req.Variable,
		Duration:  domain.Duration(req.Duration),
		PeriodEnd: req.PeriodEnd,
		GeoTypes:  geoTypes,
		Selection: req.RegionIDs,
		Trigger:   domain.SelectionEventKind(req.Trigger),
	})
	if err != nil {
		writeQueryError(r, w, err)
		return
	}
	writeJSON(r, w, fig)
}

func (h *Handler) TimeSeriesFigure(w http.ResponseWriter, r *http.Request) {
	var req api.TimeSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fig, err := h.composer.TimeSeries(r.Context(), domain.TimeSeriesRequest{
		Variable:  req.Variable,
		Duration:  domain.Duration(req.Duration),
		PeriodEnd: req.PeriodEnd,
		Selection: req.RegionIDs,
	})
	if err != nil {
		writeQueryError(r, w, err)
		return
	}
	writeJSON(r, w, fig)
}

func parseGeoTypes(raw string) ([]domain.GeoType, error) {
	if raw == "" {
		return domain.GeoTypes(), nil
	}
	parts := strings.Split(raw, ",")
	geoTypes := make([]domain.GeoType, 0, len(parts))
	for _, p := range parts {
		g := domain.GeoType(strings.TrimSpace(p))
		if !g.Valid() {
			return nil, errors.New("unknown geography type " + string(g))
		}
		geoTypes = append(geoTypes, g)
	}
	return geoTypes, nil
}

// writeQueryError maps query-layer input errors to 400s with their
// typed message; anything else stays a 500 with the SQL detail kept in
// the log, never the response.
func writeQueryError(r *http.Request, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, metrics.ErrUnknownVariable),
		errors.Is(err, metrics.ErrUnknownDuration),
		errors.Is(err, metrics.ErrUnknownPeriodEnd):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("figure request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Error{Message: message})
}

func writeJSON(r *http.Request, w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}
