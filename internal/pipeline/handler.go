package pipeline

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"Pontis/internal/design"
	"Pontis/internal/knowledge"
	"Pontis/internal/llm"
)

// maxBatch caps the number of items a single batch request may carry.
const maxBatch = 200

type Handler struct {
	Svc      *Service
	LLMStats llm.Stats
	Log      *slog.Logger
}

type analyzeRequest struct {
	UserRequirements string `json:"user_requirements"`
}

type refineRequest struct {
	Intent      design.Intent      `json:"intent"`
	Constraints design.Constraints `json:"constraints"`
}

type paramsRequest struct {
	Params design.Parameters `json:"params"`
}

type drawingsRequest struct {
	Params       design.Parameters `json:"params"`
	DrawingTypes []string          `json:"drawing_types"`
}

type optimizeRequest struct {
	Params design.Parameters `json:"params"`
	Goals  []string          `json:"optimization_goals"`
}

type batchRequest struct {
	Items []BatchItem `json:"items"`
}

type failureDetails struct {
	BridgeType string            `json:"bridge_type"`
	MainGirder map[string]string `json:"main_girder"`
	Provider   string            `json:"provider,omitempty"`
	LLMDetails any               `json:"llm_details,omitempty"`
}

type failureResponse struct {
	Error    string         `json:"error"`
	DesignID string         `json:"design_id,omitempty"`
	Details  failureDetails `json:"details"`
}

// Routes mounts the design API on r, normally the /api subrouter.
func (h *Handler) Routes(r *mux.Router) {
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/analyze_requirements", h.AnalyzeRequirements).Methods("POST")
	v1.HandleFunc("/generate_design", h.GenerateDesign).Methods("POST")
	v1.HandleFunc("/refine", h.Refine).Methods("POST")
	v1.HandleFunc("/generate_3d_model", h.Generate3DModel).Methods("POST")
	v1.HandleFunc("/generate_2d_drawings", h.Generate2DDrawings).Methods("POST")
	v1.HandleFunc("/optimize_design", h.OptimizeDesign).Methods("POST")
	v1.HandleFunc("/batch", h.Batch).Methods("POST")
	v1.HandleFunc("/knowledge/bridge_types", h.BridgeTypes).Methods("GET")
	v1.HandleFunc("/knowledge/bridge_types/{name}", h.BridgeType).Methods("GET")
	v1.HandleFunc("/knowledge/materials/{category}/{grade}", h.Material).Methods("GET")
	v1.HandleFunc("/knowledge/standards", h.Standards).Methods("GET")
	v1.HandleFunc("/stats", h.Stats).Methods("GET")
}

func (h *Handler) logger() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteAnalysisFailed renders the sentinel failure body with status 500.
func WriteAnalysisFailed(w http.ResponseWriter, f AnalysisFailed) {
	msg := f.Intent.Error
	if msg == "" && f.Err != nil {
		msg = f.Err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, failureResponse{
		Error:    msg,
		DesignID: f.ID,
		Details: failureDetails{
			BridgeType: design.AnalysisFailedType,
			MainGirder: map[string]string{"error": "Analysis failed: " + msg},
			Provider:   f.Provider,
			LLMDetails: f.Intent.Details,
		},
	})
}

func sentinelFailure(p design.Parameters) AnalysisFailed {
	return AnalysisFailed{Provider: llm.ProviderNone, Intent: design.Intent{Error: p.Error}, Params: p}
}

func (h *Handler) AnalyzeRequirements(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.UserRequirements) == "" {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	a := h.Svc.Analyze(r.Context(), req.UserRequirements)
	if a.Failed() {
		h.logger().Warn("requirements analysis failed", "provider", a.Provider, "error", a.Err)
		WriteAnalysisFailed(w, AnalysisFailed{Provider: a.Provider, Intent: a.Intent, Err: a.Err})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"intent":   a.Intent,
		"provider": a.Provider,
	})
}

func (h *Handler) GenerateDesign(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.UserRequirements) == "" {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	switch out := h.Svc.Generate(r.Context(), req).(type) {
	case AnalysisFailed:
		WriteAnalysisFailed(w, out)
	case Designed:
		writeJSON(w, http.StatusOK, out.Design)
	}
}

func (h *Handler) Refine(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	ev := h.Svc.RefineAndValidate(req.Intent, req.Constraints)
	if ev.Params.IsSentinel() {
		f := sentinelFailure(ev.Params)
		f.Intent = req.Intent
		WriteAnalysisFailed(w, f)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) Generate3DModel(w http.ResponseWriter, r *http.Request) {
	var req paramsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Params.IsSentinel() {
		WriteAnalysisFailed(w, sentinelFailure(req.Params))
		return
	}
	writeJSON(w, http.StatusOK, h.Svc.BuildScene(req.Params))
}

func (h *Handler) Generate2DDrawings(w http.ResponseWriter, r *http.Request) {
	var req drawingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Params.IsSentinel() {
		WriteAnalysisFailed(w, sentinelFailure(req.Params))
		return
	}
	want := map[string]bool{"elevation": true, "section": true}
	if len(req.DrawingTypes) > 0 {
		want = map[string]bool{}
		for _, t := range req.DrawingTypes {
			want[strings.ToLower(strings.TrimSpace(t))] = true
		}
	}
	res := map[string]any{}
	if want["elevation"] {
		res["elevation_view"] = h.Svc.RenderElevationSVG(req.Params)
	}
	if want["section"] {
		res["section_views"] = []string{h.Svc.RenderSectionSVG(req.Params)}
	}
	if len(res) == 0 {
		http.Error(w, "Unknown drawing types", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) OptimizeDesign(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.Svc.Optimize(req.Params, req.Goals))
}

func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Items) == 0 {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if len(req.Items) > maxBatch {
		http.Error(w, "Too many items", http.StatusRequestEntityTooLarge)
		return
	}
	res, err := h.Svc.RefineBatch(r.Context(), req.Items)
	if err != nil {
		h.logger().Warn("batch refinement interrupted", "items", len(req.Items), "error", err)
		http.Error(w, "Request cancelled", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": res})
}

func (h *Handler) knowledge(w http.ResponseWriter) *knowledge.Store {
	kb := h.Svc.Knowledge()
	if kb == nil {
		http.Error(w, "Knowledge base unavailable", http.StatusServiceUnavailable)
	}
	return kb
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, knowledge.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (h *Handler) BridgeTypes(w http.ResponseWriter, r *http.Request) {
	kb := h.knowledge(w)
	if kb == nil {
		return
	}
	writeJSON(w, http.StatusOK, kb.BridgeTypes())
}

func (h *Handler) BridgeType(w http.ResponseWriter, r *http.Request) {
	kb := h.knowledge(w)
	if kb == nil {
		return
	}
	info, err := kb.BridgeType(mux.Vars(r)["name"])
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) Material(w http.ResponseWriter, r *http.Request) {
	kb := h.knowledge(w)
	if kb == nil {
		return
	}
	vars := mux.Vars(r)
	props, err := kb.MaterialProperty(vars["category"], vars["grade"])
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (h *Handler) Standards(w http.ResponseWriter, r *http.Request) {
	kb := h.knowledge(w)
	if kb == nil {
		return
	}
	writeJSON(w, http.StatusOK, kb.Standards())
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	res := map[string]any{"design": h.Svc.Stats().Snapshot()}
	if h.LLMStats != nil {
		res["llm"] = h.LLMStats.Snapshot()
	}
	writeJSON(w, http.StatusOK, res)
}
