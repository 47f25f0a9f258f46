package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"Pontis/internal/pipeline"
)

const MaxUploadSize = 10 << 20

type Handler struct {
	Svc *pipeline.Service
	Log *slog.Logger
}

type ImportResult struct {
	Count   int                   `json:"count"`
	Results []pipeline.Evaluation `json:"results"`
	Lines   []int                 `json:"lines"`
	Errors  []RowError            `json:"errors,omitempty"`
}

// Import refines every row of an uploaded xlsx ("file" form field). With
// ?format=xlsx the results come back as a spreadsheet instead of JSON.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, bad, err := Read(file)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrEmptySheet) {
			http.Error(w, "Empty sheet", status)
			return
		}
		http.Error(w, "Invalid file", status)
		return
	}

	items := make([]pipeline.BatchItem, len(rows))
	lines := make([]int, len(rows))
	for i, row := range rows {
		items[i] = row.Item
		lines[i] = row.Line
	}
	results, err := h.Svc.RefineBatch(r.Context(), items)
	if err != nil {
		http.Error(w, "Request cancelled", http.StatusServiceUnavailable)
		return
	}
	if h.Log != nil {
		h.Log.Info("spreadsheet imported", "rows", len(rows), "rejected", len(bad))
	}

	if r.URL.Query().Get("format") == "xlsx" {
		var buf bytes.Buffer
		if err := Export(&buf, results, lines); err != nil {
			http.Error(w, "Export error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="designs.xlsx"`)
		w.Write(buf.Bytes())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ImportResult{Count: len(results), Results: results, Lines: lines, Errors: bad})
}
