// Package importer reads batch design intents from spreadsheets and writes
// refinement results back out.
package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"Pontis/internal/design"
	"Pontis/internal/pipeline"
)

const Sheet = "Sheet1"

var ErrEmptySheet = errors.New("importer: sheet has no data rows")

// Columns recognised in the header row, case-insensitive. Unknown headers are ignored.
var Columns = []string{
	"bridge_type_preference",
	"estimated_span_meters",
	"span_length_description",
	"road_lanes_description",
	"seismic_description",
	"specific_materials",
	"assumed_bridge_width",
	"bridge_type_override",
	"span_override",
	"lane_override",
	"seismic_intensity",
}

type Row struct {
	Line int
	Item pipeline.BatchItem
}

type RowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// Read parses the first sheet. Rows that cannot be parsed are reported in
// the second result and skipped; an unreadable file is an error.
func Read(r io.Reader) ([]Row, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, ErrEmptySheet
	}

	index := map[string]int{}
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	known := 0
	for _, c := range Columns {
		if _, ok := index[c]; ok {
			known++
		}
	}
	if known == 0 {
		return nil, nil, fmt.Errorf("importer: header row has none of the expected columns")
	}

	var out []Row
	var bad []RowError
	for i, row := range rows[1:] {
		line := i + 2
		cell := func(name string) string {
			j, ok := index[name]
			if !ok || j >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[j])
		}
		if blank(row) {
			continue
		}
		item, err := parseRow(cell)
		if err != nil {
			bad = append(bad, RowError{Line: line, Error: err.Error()})
			continue
		}
		out = append(out, Row{Line: line, Item: item})
	}
	return out, bad, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseRow(cell func(string) string) (pipeline.BatchItem, error) {
	var it pipeline.BatchItem
	var err error
	if it.Intent.EstimatedSpanMeters, err = optFloat(cell, "estimated_span_meters"); err != nil {
		return it, err
	}
	if it.Intent.AssumedBridgeWidth, err = optFloat(cell, "assumed_bridge_width"); err != nil {
		return it, err
	}
	if it.Constraints.SpanOverride, err = optFloat(cell, "span_override"); err != nil {
		return it, err
	}
	it.Intent.BridgeTypePreference = cell("bridge_type_preference")
	it.Intent.SpanDescription = cell("span_length_description")
	it.Intent.RoadLanesDescription = cell("road_lanes_description")
	it.Intent.SeismicDescription = cell("seismic_description")
	it.Intent.MaterialsHint = cell("specific_materials")
	it.Constraints.BridgeTypeOverride = cell("bridge_type_override")
	it.Constraints.LaneOverride = cell("lane_override")
	it.Constraints.SeismicIntensity = cell("seismic_intensity")
	return it, nil
}

func optFloat(cell func(string) string, name string) (*float64, error) {
	raw := cell(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a number", name, raw)
	}
	return &v, nil
}

var exportHeader = []any{
	"line", "bridge_type", "kind", "span_m", "bridge_width_m", "girder_depth_m",
	"num_lanes", "concrete_grade", "structural_steel_grade", "seismic_intensity",
	"valid", "summary", "notes",
}

// Export writes one row per evaluation. lines, when given, labels each row
// with its source line; otherwise rows are numbered from 1.
func Export(w io.Writer, evs []pipeline.Evaluation, lines []int) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(Sheet, "A1", &exportHeader); err != nil {
		return err
	}
	for i, ev := range evs {
		line := i + 1
		if i < len(lines) {
			line = lines[i]
		}
		p := ev.Params
		row := []any{
			line, p.BridgeType, string(p.Kind), p.SpanM, p.BridgeWidthM, p.GirderDepthM,
			p.NumLanes, p.Materials.ConcreteGrade, p.Materials.StructuralSteelGrade, p.SeismicIntensity,
			ev.Report.Valid, ev.Report.Summary, notes(p, ev),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(Sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write spreadsheet: %w", err)
	}
	return nil
}

func notes(p design.Parameters, ev pipeline.Evaluation) string {
	var parts []string
	parts = append(parts, p.Notes...)
	for _, n := range ev.Report.Notes {
		if !n.Passed {
			parts = append(parts, n.Message)
		}
	}
	return strings.Join(parts, "\n")
}
