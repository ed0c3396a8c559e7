package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voyago/travel-advisor/internal/search"
	"github.com/voyago/travel-advisor/internal/travel"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	preferences PreferenceRepo
	routes      RouteRepo
	flights     FlightRepo
	cache       FlightCache
	workflow    SearchWorkflow
	log         *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(preferences PreferenceRepo, routes RouteRepo, flights FlightRepo, cache FlightCache, workflow SearchWorkflow, log *slog.Logger) *Handlers {
	return &Handlers{
		preferences: preferences,
		routes:      routes,
		flights:     flights,
		cache:       cache,
		workflow:    workflow,
		log:         log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---- request/response shapes ----

type preferenceRequest struct {
	DepartureCity string  `json:"departureCity"`
	PeriodFrom    string  `json:"periodFrom"`
	PeriodTo      string  `json:"periodTo"`
	Budget        float64 `json:"budget"`
}

type preferenceResponse struct {
	ID             string     `json:"id"`
	DepartureCity  string     `json:"departureCity"`
	PeriodFrom     string     `json:"periodFrom"`
	PeriodTo       string     `json:"periodTo"`
	Budget         float64    `json:"budget"`
	LastSearchedAt *time.Time `json:"lastSearchedAt,omitempty"`
}

func toPreferenceResponse(p *travel.Preference) preferenceResponse {
	return preferenceResponse{
		ID:             p.ID,
		DepartureCity:  p.DepartureCity,
		PeriodFrom:     p.PeriodFrom.Format(travel.DateLayout),
		PeriodTo:       p.PeriodTo.Format(travel.DateLayout),
		Budget:         p.Budget,
		LastSearchedAt: p.LastSearchedAt,
	}
}

type routeResponse struct {
	ID               string `json:"id"`
	DepartureAirport string `json:"departureAirport"`
	ArrivalAirport   string `json:"arrivalAirport"`
}

type flightResponse struct {
	ID               string    `json:"id"`
	DepartureAirport string    `json:"departureAirport"`
	ArrivalAirport   string    `json:"arrivalAirport"`
	DepartureTime    time.Time `json:"departureTime"`
	ArrivalTime      time.Time `json:"arrivalTime"`
	Price            float64   `json:"price"`
	Airline          string    `json:"airline"`
	DeepLink         string    `json:"deepLink"`
	PreferenceID     string    `json:"travelPreferenceId"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

func toFlightResponses(flights []*travel.Flight) []flightResponse {
	out := make([]flightResponse, 0, len(flights))
	for _, f := range flights {
		out = append(out, flightResponse{
			ID:               f.ID,
			DepartureAirport: f.DepartureAirport,
			ArrivalAirport:   f.ArrivalAirport,
			DepartureTime:    f.DepartureTime,
			ArrivalTime:      f.ArrivalTime,
			Price:            f.Price,
			Airline:          f.Airline,
			DeepLink:         f.DeepLink,
			PreferenceID:     f.PreferenceID,
			LastUpdated:      f.LastUpdated,
		})
	}
	return out
}

type searchResultResponse struct {
	Preference       preferenceResponse `json:"preference"`
	CompatibleRoutes []routeResponse    `json:"compatibleRoutes"`
	Flights          []flightResponse   `json:"flights"`
}

func toSearchResultResponse(res *search.Result) searchResultResponse {
	routes := make([]routeResponse, 0, len(res.CompatibleRoutes))
	for _, r := range res.CompatibleRoutes {
		routes = append(routes, routeResponse{
			ID:               r.ID,
			DepartureAirport: r.DepartureAirport,
			ArrivalAirport:   r.ArrivalAirport,
		})
	}
	return searchResultResponse{
		Preference:       toPreferenceResponse(res.Preference),
		CompatibleRoutes: routes,
		Flights:          toFlightResponses(res.Flights),
	}
}

// ---- preference CRUD ----

// CreatePreference handles POST /api/v1/preferences.
func (h *Handlers) CreatePreference(w http.ResponseWriter, r *http.Request) {
	var req preferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pref, err := travel.NewPreference(req.DepartureCity, req.PeriodFrom, req.PeriodTo, req.Budget)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.preferences.Save(r.Context(), pref)
	if err != nil {
		h.log.Error("saving preference failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create travel preference")
		return
	}

	writeJSON(w, http.StatusCreated, toPreferenceResponse(saved))
}

// ListPreferences handles GET /api/v1/preferences.
func (h *Handlers) ListPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.preferences.FindAll(r.Context())
	if err != nil {
		h.log.Error("listing preferences failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list travel preferences")
		return
	}

	out := make([]preferenceResponse, 0, len(prefs))
	for _, p := range prefs {
		out = append(out, toPreferenceResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPreference handles GET /api/v1/preferences/{id}.
func (h *Handlers) GetPreference(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	pref, err := h.preferences.FindByID(r.Context(), id)
	if err != nil {
		h.log.Error("getting preference failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to get travel preference")
		return
	}
	if pref == nil {
		writeError(w, http.StatusNotFound, "travel preference not found")
		return
	}

	writeJSON(w, http.StatusOK, toPreferenceResponse(pref))
}

// UpdatePreference handles PUT /api/v1/preferences/{id}.
func (h *Handlers) UpdatePreference(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req preferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pref, err := travel.NewPreference(req.DepartureCity, req.PeriodFrom, req.PeriodTo, req.Budget)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.preferences.Update(r.Context(), id, pref)
	if err != nil {
		h.log.Error("updating preference failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to update travel preference")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "travel preference not found")
		return
	}

	writeJSON(w, http.StatusOK, toPreferenceResponse(updated))
}

// DeletePreference handles DELETE /api/v1/preferences/{id}.
func (h *Handlers) DeletePreference(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.preferences.Delete(r.Context(), id)
	if err != nil {
		h.log.Error("deleting preference failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete travel preference")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "travel preference not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ---- routes & flights ----

// ListRoutes handles GET /api/v1/routes.
func (h *Handlers) ListRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.routes.FindAll(r.Context())
	if err != nil {
		h.log.Error("listing routes failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list routes")
		return
	}

	out := make([]routeResponse, 0, len(routes))
	for _, route := range routes {
		out = append(out, routeResponse{
			ID:               route.ID,
			DepartureAirport: route.DepartureAirport,
			ArrivalAirport:   route.ArrivalAirport,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListFlights handles GET /api/v1/flights?preferenceId=...
// Cache hit → return. Otherwise read from the database and repopulate the cache.
func (h *Handlers) ListFlights(w http.ResponseWriter, r *http.Request) {
	preferenceID := r.URL.Query().Get("preferenceId")
	if preferenceID == "" {
		writeError(w, http.StatusBadRequest, "preferenceId is required")
		return
	}

	cached, err := h.cache.Get(r.Context(), preferenceID)
	if err != nil {
		h.log.Error("cache get failed", "preference_id", preferenceID, "err", err)
	}
	if cached != nil {
		writeJSON(w, http.StatusOK, toFlightResponses(cached))
		return
	}

	flights, err := h.flights.FindByPreferenceID(r.Context(), preferenceID)
	if err != nil {
		h.log.Error("listing flights failed", "preference_id", preferenceID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list flights")
		return
	}

	if err := h.cache.Set(r.Context(), preferenceID, flights); err != nil {
		h.log.Warn("cache set failed after db hit", "preference_id", preferenceID, "err", err)
	}

	writeJSON(w, http.StatusOK, toFlightResponses(flights))
}

// ---- search triggers ----

// TriggerNextSearch handles POST /api/v1/search/next. It advances the
// rotation by one preference; an empty preference set is a success, not an
// error.
func (h *Handlers) TriggerNextSearch(w http.ResponseWriter, r *http.Request) {
	res, err := h.workflow.ExecuteNextSearch(r.Context())
	if err != nil {
		h.log.Error("rotation step failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "failed to trigger flight search",
		})
		return
	}
	if res == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "no travel preferences to search",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "flight search completed successfully",
		"result":  toSearchResultResponse(res),
	})
}

// SearchPreference handles POST /api/v1/preferences/{id}/search. It runs a
// search cycle for a specific preference.
func (h *Handlers) SearchPreference(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := h.workflow.Execute(r.Context(), id)
	if err != nil {
		if errors.Is(err, search.ErrPreferenceNotFound) {
			writeError(w, http.StatusNotFound, "travel preference not found")
			return
		}
		h.log.Error("search for preference failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to search flights")
		return
	}

	writeJSON(w, http.StatusOK, toSearchResultResponse(res))
}

// ---- health ----

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis connectivity.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		redisStatus := "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			redisStatus = "error"
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
