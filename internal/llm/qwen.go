package llm

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	qwenSpan    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:米|meters?\b|metres?\b|m\b)`)
	qwenClause  = regexp.MustCompile(`[^，,。;；!！?？\n]+`)
	qwenSeismic = regexp.MustCompile(`(?i)(\d+\s*度|intensity\s*\d+|zone\s*[IVX]+\b|seismic zone\s*\d+)`)
)

type keyword struct {
	words []string
	value string
}

var qwenTypes = []keyword{
	{words: []string{"cable-stayed", "cable stayed", "斜拉"}, value: "cable-stayed"},
	{words: []string{"suspension", "悬索"}, value: "suspension"},
	{words: []string{"arch", "拱"}, value: "arch"},
	{words: []string{"truss", "桁架"}, value: "truss"},
	{words: []string{"girder", "beam", "梁"}, value: "beam"},
}

var qwenQualifiers = []keyword{
	{words: []string{"prestressed", "预应力"}, value: "prestressed"},
	{words: []string{"concrete", "混凝土"}, value: "concrete"},
	{words: []string{"steel", "钢"}, value: "steel"},
	{words: []string{"continuous", "连续"}, value: "continuous"},
}

// Qwen is the last link of the chain: a local rule-based extractor that
// needs no network and gives the same answer for the same text.
type Qwen struct{}

func NewQwen() *Qwen { return &Qwen{} }

func (*Qwen) Name() string { return "Qwen" }

func (q *Qwen) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := userInput(prompt)
	if text == "" {
		return nil, &StatusError{Provider: q.Name(), Err: errors.New("no requirement text in prompt")}
	}
	lower := strings.ToLower(text)

	out := map[string]any{
		"bridge_type_preference": bridgeTypeOf(lower),
		"source_model":           "qwen-local",
	}
	if m := qwenSpan.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			out["estimated_span_meters"] = v
		}
		out["span_length_description"] = clauseWith(text, m[0])
	}
	if lanes := clauseWith(text, "车道", "lane"); lanes != "" {
		out["road_lanes_description"] = lanes
	}
	if s := qwenSeismic.FindString(text); s != "" {
		out["seismic_description"] = strings.TrimSpace(s)
	}
	if env := clauseWith(text, "seismic", "earthquake", "地震", "抗震", "wind", "风", "corros", "腐蚀"); env != "" {
		out["environmental_factors"] = env
	}
	var mats []string
	for _, k := range qwenQualifiers[:3] {
		if containsAny(lower, k.words...) {
			mats = append(mats, k.value)
		}
	}
	if len(mats) > 0 {
		out["specific_materials"] = strings.Join(mats, ", ")
	}
	if load := clauseWith(text, "pedestrian", "railway", "vehicle", "truck", "行人", "铁路", "车辆"); load != "" {
		out["load_requirements"] = load
	}
	return json.Marshal(out)
}

func bridgeTypeOf(lower string) string {
	base := "beam"
	for _, k := range qwenTypes {
		if containsAny(lower, k.words...) {
			base = k.value
			break
		}
	}
	var parts []string
	for _, k := range qwenQualifiers {
		if containsAny(lower, k.words...) {
			parts = append(parts, k.value)
		}
	}
	return strings.Join(append(parts, base), " ")
}

// clauseWith returns the first clause of text that mentions any of the needles.
func clauseWith(text string, needles ...string) string {
	for _, c := range qwenClause.FindAllString(text, -1) {
		if containsAny(strings.ToLower(c), needles...) {
			return strings.TrimSpace(c)
		}
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
