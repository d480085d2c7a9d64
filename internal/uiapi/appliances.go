package uiapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yashdodwani/gridflow/internal/civiltime"
	"github.com/yashdodwani/gridflow/internal/engine"
)

func (s *Server) handleGetAppliances(w http.ResponseWriter, r *http.Request) {
	appliances, err := s.store.ListAppliances()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, appliances)
}

func (s *Server) handleCreateAppliance(w http.ResponseWriter, r *http.Request) {
	var appliance engine.Appliance
	if err := json.NewDecoder(r.Body).Decode(&appliance); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	appliance.ID = ""
	if err := s.store.SaveAppliance(&appliance); err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, appliance)
}

func (s *Server) handleGetAppliance(w http.ResponseWriter, r *http.Request) {
	appliance, err := s.store.GetAppliance(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, appliance)
}

func (s *Server) handleUpdateAppliance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.store.GetAppliance(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var appliance engine.Appliance
	if err := json.NewDecoder(r.Body).Decode(&appliance); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	appliance.ID = id
	appliance.CreatedAt = existing.CreatedAt
	if err := s.store.SaveAppliance(&appliance); err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, appliance)
}

func (s *Server) handleDeleteAppliance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteAppliance(id); err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "deleted", "id": id})
}

// RecommendationRequest selects what to plan. With neither ApplianceIDs nor
// Appliance set, every enabled stored appliance is planned.
type RecommendationRequest struct {
	ApplianceIDs  []string          `json:"appliance_ids"`
	Appliance     *engine.Appliance `json:"appliance"`      // ad hoc profile, not stored
	Date          string            `json:"date"`           // civil day the window opens on; default: next usable window
	BaselineStart string            `json:"baseline_start"` // default: window start
	TopN          int               `json:"top_n"`
}

func (s *Server) handleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var baseline civiltime.Instant
	if req.BaselineStart != "" {
		var err error
		if baseline, err = s.resolver.Parse(req.BaselineStart); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	appliances, explicit, err := s.selectAppliances(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	plans := []engine.Plan{}
	for _, a := range appliances {
		p, err := s.profileFor(a, req.Date)
		if err == nil {
			var plan engine.Plan
			plan, err = engine.BuildPlan(p, s.schedule, s.granularity, baseline, s.emissionFactor, req.TopN)
			if err == nil {
				plans = append(plans, plan)
				continue
			}
		}

		if explicit {
			s.fail(w, r, fmt.Errorf("%s: %w", a.Name, err))
			return
		}
		s.log.Warn("skipping appliance", "appliance", a.Name, "error", err)
	}

	respondJSON(w, http.StatusOK, plans)
}

// selectAppliances resolves the request to appliance records. explicit is
// true when the caller named them, in which case any failure is reported.
func (s *Server) selectAppliances(req RecommendationRequest) (appliances []*engine.Appliance, explicit bool, err error) {
	if req.Appliance != nil {
		return []*engine.Appliance{req.Appliance}, true, nil
	}

	if len(req.ApplianceIDs) > 0 {
		for _, id := range req.ApplianceIDs {
			a, err := s.store.GetAppliance(id)
			if err != nil {
				return nil, true, err
			}
			appliances = append(appliances, a)
		}
		return appliances, true, nil
	}

	all, err := s.store.ListAppliances()
	if err != nil {
		return nil, false, err
	}
	for _, a := range all {
		if a.Enabled {
			appliances = append(appliances, a)
		}
	}
	return appliances, false, nil
}

// profileFor builds the optimizer profile for a on the given civil date, or
// for its next usable window when date is empty.
func (s *Server) profileFor(a *engine.Appliance, date string) (engine.ApplianceProfile, error) {
	if date == "" {
		return a.NextProfile(s.resolver, s.resolver.Now(), s.interval, s.granularity)
	}
	day, err := s.resolver.Parse(date)
	if err != nil {
		return engine.ApplianceProfile{}, err
	}
	return a.Profile(s.resolver, day, s.interval)
}

func (s *Server) handleCanUseNow(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAppliance(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	now := s.resolver.Now()
	p, err := a.Profile(s.resolver, now, s.interval)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	verdict, err := engine.CanUseNow(p, s.schedule, now, s.granularity)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, verdict)
}

// SimulateCostRequest prices one run of a stored or ad hoc appliance.
type SimulateCostRequest struct {
	ApplianceID string            `json:"appliance_id"`
	Appliance   *engine.Appliance `json:"appliance"`
	Start       string            `json:"start"` // default: now
}

func (s *Server) handleSimulateCost(w http.ResponseWriter, r *http.Request) {
	var req SimulateCostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a := req.Appliance
	if a == nil {
		if req.ApplianceID == "" {
			respondError(w, http.StatusBadRequest, "appliance_id or appliance is required")
			return
		}
		var err error
		if a, err = s.store.GetAppliance(req.ApplianceID); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	start := s.resolver.Now()
	if req.Start != "" {
		var err error
		if start, err = s.resolver.Parse(req.Start); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	p, err := a.Profile(s.resolver, start, s.interval)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	run, err := engine.CostAt(p, s.schedule, start)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"appliance":    a.Name,
		"run":          run,
		"emissions_kg": engine.Emissions(run.TotalEnergy, s.emissionFactor),
		"currency":     s.currency,
	})
}
