package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Pontis/internal/design"
	"Pontis/internal/pipeline"
	"Pontis/internal/validate"
)

func sample() pipeline.Design {
	span := 100.0
	p := design.NewRefiner(nil).Refine(design.Intent{
		BridgeTypePreference: "prestressed concrete continuous beam",
		EstimatedSpanMeters:  &span,
		RoadLanesDescription: "four lanes",
		SeismicDescription:   "8度",
	}, design.Constraints{})
	return pipeline.Design{
		ID:           "3f2b5c1e-0000-4000-8000-000000000001",
		CreatedAt:    time.Date(2025, 5, 4, 10, 30, 0, 0, time.UTC),
		Requirements: "预应力混凝土连续梁 100 m, four lanes",
		Provider:     "Qwen",
		Params:       p,
		Report:       validate.New(nil, nil).Validate(p),
		Template:     "continuous_girder",
	}
}

func TestDesignPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Design(&buf, sample(), Options{Author: "Pontis"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestSentinelPDF(t *testing.T) {
	d := sample()
	d.Params = design.Sentinel("All LLM providers failed or returned errors.")
	var buf bytes.Buffer
	require.NoError(t, Design(&buf, d, Options{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPrintable(t *testing.T) {
	assert.Equal(t, "100 m, four lanes", printable("预应力 100 m,  four lanes"))
	assert.Equal(t, "(not latin-1 encodable)", printable("双向四车道"))
}
