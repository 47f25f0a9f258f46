package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var defaultData []byte

var ErrNotFound = errors.New("knowledge: not found")

type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

type BridgeTypeInfo struct {
	Name          string   `yaml:"-" json:"name"`
	Description   string   `yaml:"description" json:"description"`
	TypicalSpans  string   `yaml:"typical_spans_m" json:"typical_spans_m"`
	Materials     []string `yaml:"materials" json:"materials"`
	Advantages    []string `yaml:"advantages" json:"advantages"`
	Disadvantages []string `yaml:"disadvantages" json:"disadvantages"`
	SuitableFor   []string `yaml:"suitable_for" json:"suitable_for"`
}

type Properties map[string]any

type Template struct {
	Name     string  `yaml:"name" json:"name"`
	Label    string  `yaml:"label" json:"label"`
	MinSpanM float64 `yaml:"min_span_m" json:"min_span_m"`
	MaxSpanM float64 `yaml:"max_span_m" json:"max_span_m"`
	Notes    string  `yaml:"notes" json:"notes"`
}

type document struct {
	BridgeTypes map[string]BridgeTypeInfo        `yaml:"bridge_types"`
	Ranges      map[string]map[string]Range      `yaml:"ranges"`
	Materials   map[string]map[string]Properties `yaml:"materials"`
	Standards   map[string]string                `yaml:"standards"`
	Templates   []Template                       `yaml:"templates"`
}

// Store is read-only after construction and safe for concurrent use.
type Store struct {
	doc document
}

func Load() (*Store, error) {
	return Parse(defaultData)
}

func MustLoad() *Store {
	s, err := Load()
	if err != nil {
		panic(err)
	}
	return s
}

func Parse(data []byte) (*Store, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	for name, info := range doc.BridgeTypes {
		info.Name = name
		doc.BridgeTypes[name] = info
	}
	sort.SliceStable(doc.Templates, func(i, j int) bool {
		return doc.Templates[i].MinSpanM < doc.Templates[j].MinSpanM
	})
	return &Store{doc: doc}, nil
}

// RangeFor looks up a (min, max) pair such as RangeFor("span_to_depth_ratio", "steel_beam").
// Single-valued parameters are stored under the "default" subtype.
func (s *Store) RangeFor(category, subtype string) (Range, error) {
	ranges, ok := s.doc.Ranges[category]
	if !ok {
		return Range{}, fmt.Errorf("design parameter %s: %w", category, ErrNotFound)
	}
	if subtype == "" {
		subtype = "default"
	}
	r, ok := ranges[subtype]
	if !ok {
		return Range{}, fmt.Errorf("sub-type %s for %s: %w", subtype, category, ErrNotFound)
	}
	return r, nil
}

func (s *Store) MaterialProperty(category, grade string) (Properties, error) {
	grades, ok := s.doc.Materials[category]
	if !ok {
		return nil, fmt.Errorf("material category %s: %w", category, ErrNotFound)
	}
	props, ok := grades[grade]
	if !ok {
		return nil, fmt.Errorf("material grade %s/%s: %w", category, grade, ErrNotFound)
	}
	out := make(Properties, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out, nil
}

// BridgeType accepts either the full name ("Arch Bridge") or a short one ("arch").
func (s *Store) BridgeType(name string) (BridgeTypeInfo, error) {
	if info, ok := s.doc.BridgeTypes[name]; ok {
		return info, nil
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for full, info := range s.doc.BridgeTypes {
		l := strings.ToLower(full)
		if l == want || strings.TrimSuffix(l, " bridge") == want {
			return info, nil
		}
	}
	return BridgeTypeInfo{}, fmt.Errorf("bridge type %q: %w", name, ErrNotFound)
}

func (s *Store) BridgeTypes() []BridgeTypeInfo {
	out := make([]BridgeTypeInfo, 0, len(s.doc.BridgeTypes))
	for _, info := range s.doc.BridgeTypes {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) Standards() map[string]string {
	out := make(map[string]string, len(s.doc.Standards))
	for k, v := range s.doc.Standards {
		out[k] = v
	}
	return out
}

// StandardsFor returns the design code reference for a material family,
// falling back to the general code.
func (s *Store) StandardsFor(material string) string {
	switch strings.ToLower(material) {
	case "concrete":
		return s.doc.Standards["Concrete"]
	case "steel":
		return s.doc.Standards["Steel"]
	case "seismic":
		return s.doc.Standards["Seismic"]
	case "loads":
		return s.doc.Standards["Loads"]
	}
	return s.doc.Standards["General"]
}

// TemplateFor picks the first template whose span band contains span.
func (s *Store) TemplateFor(span float64) (Template, error) {
	for _, t := range s.doc.Templates {
		if span >= t.MinSpanM && span <= t.MaxSpanM {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("template for span %.2f m: %w", span, ErrNotFound)
}
