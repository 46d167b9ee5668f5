package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/bedplan/pkg/buildinfo"
	"github.com/matzehuels/bedplan/pkg/core/alloc"
	"github.com/matzehuels/bedplan/pkg/core/specimen"
	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/garden"
	gardenio "github.com/matzehuels/bedplan/pkg/io"
	"github.com/matzehuels/bedplan/pkg/pipeline"
	"github.com/matzehuels/bedplan/pkg/store"
)

// =============================================================================
// Request and Response Bodies
// =============================================================================

// PlanRequest is the body of POST /api/plan.
type PlanRequest struct {
	Garden gardenio.Document `json:"garden"`

	// Plants are catalogue IDs. Empty selects the whole catalogue.
	Plants []string `json:"plants,omitempty"`

	// PlantTypes are custom plants used instead of the catalogue
	// selection. Planted cells still resolve through the catalogue.
	PlantTypes []garden.PlantType `json:"plant_types,omitempty"`

	Options *pipeline.Options `json:"options,omitempty"`

	// Decompose adds the specimen decomposition of the planted garden.
	Decompose bool `json:"decompose,omitempty"`
}

// PlanResponse is the result of a planning request.
type PlanResponse struct {
	ID      string              `json:"id,omitempty"`
	Garden  gardenio.Document   `json:"garden"`
	Plan    *alloc.Plan         `json:"plan"`
	Regions [][]specimen.Region `json:"regions,omitempty"`
	Cached  bool                `json:"cached"`
}

// DecomposeRequest is the body of POST /api/decompose.
type DecomposeRequest struct {
	Garden gardenio.Document `json:"garden"`

	// PlantTypes are custom plants resolved before the catalogue.
	PlantTypes []garden.PlantType `json:"plant_types,omitempty"`
}

// DecomposeResponse holds one region list per bed.
type DecomposeResponse struct {
	Regions [][]specimen.Region `json:"regions"`
	Cached  bool                `json:"cached"`
}

// StoredPlanRequest is the body of POST /api/gardens/{id}/plan.
type StoredPlanRequest struct {
	Plants     []string           `json:"plants,omitempty"`
	PlantTypes []garden.PlantType `json:"plant_types,omitempty"`
	Options    *pipeline.Options  `json:"options,omitempty"`
	Decompose  bool               `json:"decompose,omitempty"`

	// Save writes the planted garden back to the store.
	Save bool `json:"save,omitempty"`
}

type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"plants": s.Catalog().Plants()})
}

func (s *Server) plan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if !s.decode(w, r, &req) {
		return
	}
	g, err := req.Garden.Garden()
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp, err := s.runPlan(r, g, req.Plants, req.PlantTypes, req.Options, req.Decompose)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) decompose(w http.ResponseWriter, r *http.Request) {
	var req DecomposeRequest
	if !s.decode(w, r, &req) {
		return
	}
	g, err := req.Garden.Garden()
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if err := garden.ValidatePlants(req.PlantTypes); err != nil {
		s.respondErr(w, err)
		return
	}
	o := s.options(nil)
	regions, hit, err := s.runner.DecomposeWithCacheInfo(r.Context(), g, o.Lookup(req.PlantTypes), o)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, DecomposeResponse{Regions: regions, Cached: hit})
}

func (s *Server) listGardens(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	recs, err := s.store.List(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"gardens": recs})
}

func (s *Server) createGarden(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var doc gardenio.Document
	if !s.decode(w, r, &doc) {
		return
	}
	rec, err := s.store.Create(r.Context(), doc)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	w.Header().Set("Location", "/api/gardens/"+rec.ID)
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) getGarden(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) updateGarden(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var doc gardenio.Document
	if !s.decode(w, r, &doc) {
		return
	}
	rec, err := s.store.Update(r.Context(), chi.URLParam(r, "id"), doc)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteGarden(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) planGarden(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var req StoredPlanRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	g, err := rec.Garden.Garden()
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp, err := s.runPlan(r, g, req.Plants, req.PlantTypes, req.Options, req.Decompose)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp.ID = rec.ID
	if req.Save {
		if _, err := s.store.Update(r.Context(), rec.ID, resp.Garden); err != nil {
			s.respondErr(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) runPlan(r *http.Request, g *garden.Garden, ids []string, custom []garden.PlantType, opts *pipeline.Options, decompose bool) (*PlanResponse, error) {
	plants, err := s.plants(ids, custom)
	if err != nil {
		return nil, err
	}
	o := s.options(opts)
	plan, hit, err := s.runner.PlanWithCacheInfo(r.Context(), g, plants, o)
	if err != nil {
		return nil, err
	}
	resp := &PlanResponse{
		Garden: gardenio.FromGarden(plan.Garden),
		Plan:   plan,
		Cached: hit,
	}
	if decompose {
		regions, _, err := s.runner.DecomposeWithCacheInfo(r.Context(), plan.Garden, o.Lookup(plants), o)
		if err != nil {
			return nil, err
		}
		resp.Regions = regions
	}
	return resp, nil
}

// plants resolves a request's plant list.
func (s *Server) plants(ids []string, custom []garden.PlantType) ([]garden.PlantType, error) {
	if len(custom) > 0 {
		if len(ids) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "plants and plant_types are mutually exclusive")
		}
		return custom, nil
	}
	cat := s.Catalog()
	if len(ids) == 0 {
		return cat.Plants(), nil
	}
	return cat.Select(ids...)
}

// options merges request options over the server defaults.
func (s *Server) options(req *pipeline.Options) pipeline.Options {
	o := s.defaults
	if req != nil {
		o = *req
		if o.Policy == "" && o.Custom == nil {
			o.Policy = s.defaults.Policy
			o.Custom = s.defaults.Custom
		}
	}
	o.Logger = s.logger
	o.Catalog = s.Catalog().Lookup()
	return o
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.respondErr(w, errors.New(errors.ErrCodeUnsupported, "garden storage is not configured"))
		return false
	}
	return true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			err = errors.New(errors.ErrCodeInvalidFormat, "request body is empty")
		} else {
			err = errors.New(errors.ErrCodeInvalidFormat, "decode request: %v", err)
		}
		s.respondErr(w, err)
		return false
	}
	return true
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	respondJSON(w, status, errorBody{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	if errors.IsValidation(err) {
		return http.StatusBadRequest
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeGardenNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNetwork, errors.ErrCodeTimeout:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
