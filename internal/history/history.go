// Package history serves a user's saved designs and their derived files.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"Pontis/internal/artifact"
	"Pontis/internal/auth"
	"Pontis/internal/pipeline"
	"Pontis/internal/report"
	"Pontis/internal/repo"
)

type Handler struct {
	Svc  *pipeline.Service
	Repo repo.DesignRepository
	// Artifacts is optional; when set, saved designs are also published there.
	Artifacts artifact.Store
	Log       *slog.Logger
}

type artifactLink struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/designs", h.List).Methods("GET")
	r.HandleFunc("/designs", h.Create).Methods("POST")
	r.HandleFunc("/designs/{id}", h.Get).Methods("GET")
	r.HandleFunc("/designs/{id}", h.Delete).Methods("DELETE")
	r.HandleFunc("/designs/{id}/scene", h.Scene).Methods("GET")
	r.HandleFunc("/designs/{id}/svg", h.SVG).Methods("GET")
	r.HandleFunc("/designs/{id}/report.pdf", h.Report).Methods("GET")
	r.HandleFunc("/designs/{id}/artifacts", h.ArtifactList).Methods("GET")
}

func (h *Handler) logger() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}

func userID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return id, ok
}

// Record converts a generated design into its stored form.
func Record(userID int, d pipeline.Design) (repo.DesignRecord, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return repo.DesignRecord{}, fmt.Errorf("encode design %s: %w", d.ID, err)
	}
	return repo.DesignRecord{
		ID:           d.ID,
		UserID:       userID,
		CreatedAt:    d.CreatedAt,
		Requirements: d.Requirements,
		Provider:     d.Provider,
		BridgeType:   d.Params.BridgeType,
		SpanM:        d.Params.SpanM,
		Valid:        d.Report.Valid,
		Payload:      payload,
	}, nil
}

// Publish stores the scene, both drawings and the PDF report of d.
func Publish(ctx context.Context, store artifact.Store, svc *pipeline.Service, d pipeline.Design) error {
	scene, err := json.Marshal(svc.BuildScene(d.Params))
	if err != nil {
		return err
	}
	var pdf bytes.Buffer
	if err := report.Design(&pdf, d, report.Options{}); err != nil {
		return err
	}
	files := []struct {
		name, contentType string
		data              []byte
	}{
		{"scene.json", "application/json", scene},
		{"elevation.svg", "image/svg+xml", []byte(svc.RenderElevationSVG(d.Params))},
		{"section.svg", "image/svg+xml", []byte(svc.RenderSectionSVG(d.Params))},
		{"report.pdf", "application/pdf", pdf.Bytes()},
	}
	for _, f := range files {
		if err := store.Put(ctx, d.ID, f.name, f.contentType, f.data); err != nil {
			return fmt.Errorf("publish %s: %w", f.name, err)
		}
	}
	return nil
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (pipeline.Design, bool) {
	uid, ok := userID(w, r)
	if !ok {
		return pipeline.Design{}, false
	}
	id := mux.Vars(r)["id"]
	rec, err := h.Repo.GetDesign(r.Context(), uid, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "Design not found", http.StatusNotFound)
			return pipeline.Design{}, false
		}
		h.logger().Error("load design", "design_id", id, "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return pipeline.Design{}, false
	}
	var d pipeline.Design
	if err := json.Unmarshal(rec.Payload, &d); err != nil {
		h.logger().Error("decode stored design", "design_id", id, "error", err)
		http.Error(w, "Corrupt design record", http.StatusInternalServerError)
		return pipeline.Design{}, false
	}
	return d, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	recs, err := h.Repo.ListDesigns(r.Context(), uid, limit)
	if err != nil {
		h.logger().Error("list designs", "user_id", uid, "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(recs)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserRequirements == "" {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	var d pipeline.Design
	switch out := h.Svc.Generate(r.Context(), req).(type) {
	case pipeline.AnalysisFailed:
		pipeline.WriteAnalysisFailed(w, out)
		return
	case pipeline.Designed:
		d = out.Design
	}

	rec, err := Record(uid, d)
	if err == nil {
		err = h.Repo.SaveDesign(r.Context(), rec)
	}
	if err != nil {
		h.logger().Error("save design", "design_id", d.ID, "user_id", uid, "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	if h.Artifacts != nil {
		if err := Publish(r.Context(), h.Artifacts, h.Svc, d); err != nil {
			h.logger().Warn("artifact publish failed", "design_id", d.ID, "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/api/user/designs/"+d.ID)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(d)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(d)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.Repo.DeleteDesign(r.Context(), uid, mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "Design not found", http.StatusNotFound)
			return
		}
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Scene regenerates the scene from the stored parameters.
func (h *Handler) Scene(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Svc.BuildScene(d.Params))
}

func (h *Handler) SVG(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	var svg string
	switch r.URL.Query().Get("view") {
	case "", "elevation":
		svg = h.Svc.RenderElevationSVG(d.Params)
	case "section":
		svg = h.Svc.RenderSectionSVG(d.Params)
	default:
		http.Error(w, "Unknown view", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(svg))
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.Design(&buf, d, report.Options{Author: auth.UserLogin(r.Context())}); err != nil {
		h.logger().Error("render report", "design_id", d.ID, "error", err)
		http.Error(w, "Report generation error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "design-"+d.ID+".pdf"))
	w.Write(buf.Bytes())
}

func (h *Handler) ArtifactList(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	if h.Artifacts == nil {
		http.Error(w, "Artifact storage disabled", http.StatusNotFound)
		return
	}
	names, err := h.Artifacts.List(r.Context(), d.ID)
	if err != nil {
		h.logger().Error("list artifacts", "design_id", d.ID, "error", err)
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}
	links := make([]artifactLink, 0, len(names))
	for _, n := range names {
		u, err := h.Artifacts.URL(r.Context(), d.ID, n)
		if err != nil {
			h.logger().Warn("presign artifact", "design_id", d.ID, "name", n, "error", err)
		}
		links = append(links, artifactLink{Name: n, URL: u})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(links)
}
