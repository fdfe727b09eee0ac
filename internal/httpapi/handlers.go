package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/treeshoptech/treeshop-app-sub001/internal/complexity"
	"github.com/treeshoptech/treeshop-app-sub001/internal/cost"
	"github.com/treeshoptech/treeshop-app-sub001/internal/estimate"
	"github.com/treeshoptech/treeshop-app-sub001/internal/loadout"
	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

func (s *Server) handleListFactors(w http.ResponseWriter, r *http.Request) {
	cat, err := s.catalog(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}

	st := model.ServiceType(r.URL.Query().Get("service_type"))
	if st == "" {
		writeJSON(w, http.StatusOK, map[string]any{"factors": cat.Factors()})
		return
	}
	if !st.Valid() {
		writeBadRequest(w, "unknown service_type "+string(st))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"service_type": st, "factors": cat.ForServiceType(st)})
}

type multiplierRequest struct {
	BaselineScore float64  `json:"baseline_score"`
	FactorIDs     []string `json:"factor_ids"`
}

func (s *Server) handleMultiplier(w http.ResponseWriter, r *http.Request) {
	var req multiplierRequest
	if !decode(w, r, &req) {
		return
	}
	cat, err := s.catalog(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, complexity.Apply(req.BaselineScore, req.FactorIDs, cat))
}

type baselineRequest struct {
	ServiceType  model.ServiceType     `json:"service_type"`
	Measurements estimate.Measurements `json:"measurements"`
}

func (s *Server) handleBaseline(w http.ResponseWriter, r *http.Request) {
	var req baselineRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.ServiceType.Valid() {
		writeBadRequest(w, "unknown service_type "+string(req.ServiceType))
		return
	}
	score, err := estimate.BaselineScore(req.ServiceType, req.Measurements)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"service_type": req.ServiceType, "baseline_score": score})
}

func (s *Server) handleLaborCost(w http.ResponseWriter, r *http.Request) {
	var req cost.EmployeeProfile
	if !decode(w, r, &req) {
		return
	}
	lc, err := s.Calculator.Employee(req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lc)
}

func (s *Server) handleEquipmentCost(w http.ResponseWriter, r *http.Request) {
	var req cost.EquipmentInputs
	if !decode(w, r, &req) {
		return
	}
	ec, err := cost.EquipmentHourlyCost(req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ec)
}

func (s *Server) handlePriceLoadout(w http.ResponseWriter, r *http.Request) {
	var req loadout.Loadout
	if !decode(w, r, &req) {
		return
	}
	priced, err := loadout.Price(s.Calculator, req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, priced)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req estimate.Request
	if !decode(w, r, &req) {
		return
	}
	if !req.ServiceType.Valid() {
		writeBadRequest(w, "unknown service_type "+string(req.ServiceType))
		return
	}

	tmpl, err := s.Store.GetTemplate(ctx, req.ServiceType)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		writeErr(w, r, err)
		return
	}
	in, err := req.Resolve(tmpl, s.Defaults)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	cat, err := s.catalog(ctx)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	est, err := estimate.Build(in, cat)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	job := &model.Job{ServiceType: req.ServiceType, Status: model.JobStatusEstimate, Estimate: est}
	if err := s.Store.CreateJob(ctx, job); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.Store.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCompleteJob(w http.ResponseWriter, r *http.Request) {
	var actual model.JobActual
	if !decode(w, r, &actual) {
		return
	}
	rec, err := s.Scorer.Complete(r.Context(), chi.URLParam(r, "id"), actual)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.Store.ListTemplates(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if list == nil {
		list = []model.ServiceTemplate{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": list})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	st, ok := serviceTypeParam(w, r)
	if !ok {
		return
	}
	t, err := s.Store.GetTemplate(r.Context(), st)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	st, ok := serviceTypeParam(w, r)
	if !ok {
		return
	}
	out, err := s.Calibrator.Recalibrate(r.Context(), st)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func serviceTypeParam(w http.ResponseWriter, r *http.Request) (model.ServiceType, bool) {
	st := model.ServiceType(chi.URLParam(r, "serviceType"))
	if !st.Valid() {
		writeBadRequest(w, "unknown service type "+string(st))
		return "", false
	}
	return st, true
}
