// Package drawing renders 2D engineering sheets for a design. Both views are
// projections of the composed 3D scene, so drawing and model never disagree.
package drawing

import (
	"fmt"
	"html"
	"strings"

	"Pontis/internal/design"
	"Pontis/internal/scene"
)

const (
	margin      = 50.0
	titleBlockW = 200.0
	titleBlockH = 90.0
	dimGap      = 30.0
)

type Options struct {
	Width  float64
	Height float64
	Title  string
	// Date is printed in the title block when set. Rendering never reads the clock.
	Date string
}

func (o Options) withDefaults(w, h float64, title string) Options {
	if o.Width <= 0 {
		o.Width = w
	}
	if o.Height <= 0 {
		o.Height = h
	}
	if o.Title == "" {
		o.Title = title
	}
	return o
}

type sheet struct {
	b    strings.Builder
	opts Options
}

func newSheet(opts Options) *sheet {
	s := &sheet{opts: opts}
	fmt.Fprintf(&s.b, `<svg width="%s" height="%s" viewBox="0 0 %s %s" xmlns="http://www.w3.org/2000/svg">`+"\n",
		num(opts.Width), num(opts.Height), num(opts.Width), num(opts.Height))
	s.b.WriteString(`<style>
.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; }
.label { font-family: Arial, sans-serif; font-size: 12px; }
.structure { stroke: black; stroke-width: 2; fill: #dddddd; }
.pier { stroke: black; stroke-width: 1.5; fill: #bbbbbb; }
.foundation { stroke: black; stroke-width: 1.5; fill: #999999; }
.dimension { stroke: red; stroke-width: 1; fill: none; }
.dim-text { font-family: Arial, sans-serif; font-size: 11px; fill: red; }
.error { font-family: Arial, sans-serif; font-size: 14px; fill: #b00020; }
</style>
`)
	fmt.Fprintf(&s.b, `<rect x="0" y="0" width="%s" height="%s" fill="white" stroke="black"/>`+"\n", num(opts.Width), num(opts.Height))
	return s
}

func (s *sheet) rect(x, y, w, h float64, class string) {
	fmt.Fprintf(&s.b, `<rect x="%s" y="%s" width="%s" height="%s" class="%s"/>`+"\n", num(x), num(y), num(w), num(h), class)
}

func (s *sheet) line(x1, y1, x2, y2 float64, class string) {
	fmt.Fprintf(&s.b, `<line x1="%s" y1="%s" x2="%s" y2="%s" class="%s"/>`+"\n", num(x1), num(y1), num(x2), num(y2), class)
}

func (s *sheet) text(x, y float64, class, anchor, format string, args ...any) {
	if anchor == "" {
		anchor = "start"
	}
	fmt.Fprintf(&s.b, `<text x="%s" y="%s" class="%s" text-anchor="%s">%s</text>`+"\n",
		num(x), num(y), class, anchor, html.EscapeString(fmt.Sprintf(format, args...)))
}

func (s *sheet) titleBlock(scaleText string, lines ...string) {
	x, y := s.opts.Width-titleBlockW-10, s.opts.Height-titleBlockH-10
	s.rect(x, y, titleBlockW, titleBlockH, "dimension")
	s.text(x+5, y+20, "title", "", "%s", s.opts.Title)
	s.text(x+5, y+40, "label", "", "Scale: %s", scaleText)
	row := y + 55
	if s.opts.Date != "" {
		s.text(x+5, row, "label", "", "Date: %s", s.opts.Date)
		row += 15
	}
	for _, l := range lines {
		s.text(x+5, row, "label", "", "%s", l)
		row += 15
	}
}

func (s *sheet) String() string {
	s.b.WriteString("</svg>\n")
	return s.b.String()
}

func num(v float64) string {
	out := strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	if out == "" || out == "-" || out == "-0" {
		return "0"
	}
	return out
}

// view maps world coordinates of one projection plane onto the sheet.
type view struct {
	scale      float64
	minU, maxV float64
	originX    float64
	originY    float64
}

func fit(minU, maxU, minV, maxV, w, h float64) view {
	du, dv := max(maxU-minU, 1), max(maxV-minV, 1)
	k := min(w/du, h/dv)
	return view{
		scale:   k,
		minU:    minU,
		maxV:    maxV,
		originX: margin + (w-du*k)/2,
		originY: margin + (h-dv*k)/2,
	}
}

func (v view) x(u float64) float64 { return v.originX + (u-v.minU)*v.scale }

func (v view) y(w float64) float64 { return v.originY + (v.maxV-w)*v.scale }

func classFor(k scene.Kind) string {
	switch k {
	case scene.KindPier:
		return "pier"
	case scene.KindFoundation:
		return "foundation"
	}
	return "structure"
}

func failed(opts Options, p design.Parameters) string {
	s := newSheet(opts)
	s.text(margin, margin, "error", "", "Analysis failed: %s", p.Error)
	s.titleBlock("n/a")
	return s.String()
}

// Elevation draws the side view: superstructure, piers and foundations on
// the x-y plane with span and girder depth dimensions.
func Elevation(p design.Parameters, opts Options) string {
	opts = opts.withDefaults(800, 600, "Bridge Elevation")
	if p.IsSentinel() {
		return failed(opts, p)
	}
	d := scene.Compose(p)
	if len(d.Components) == 0 {
		return failed(opts, p)
	}

	bb := d.BoundingBox
	drawW := opts.Width - 2*margin
	drawH := opts.Height - 2*margin - titleBlockH - 2*dimGap
	v := fit(bb.Min[0], bb.Max[0], bb.Min[1], bb.Max[1], drawW, drawH)

	s := newSheet(opts)
	pier := 0
	for _, c := range d.Components {
		e := scene.Extent(c)
		x0, x1 := v.x(c.Position[0]-e[0]), v.x(c.Position[0]+e[0])
		y0, y1 := v.y(c.Position[1]+e[1]), v.y(c.Position[1]-e[1])
		s.rect(x0, y0, x1-x0, y1-y0, classFor(c.Kind))
		if c.Kind == scene.KindPier {
			pier++
			s.text((x0+x1)/2, y0+(y1-y0)/2, "label", "middle", "P%d", pier)
		}
	}

	depth := design.GirderDepth(p.SpanM, p.BridgeType)
	left, right := v.x(-p.SpanM/2), v.x(p.SpanM/2)
	dimY := v.y(bb.Min[1]) + dimGap
	s.line(left, dimY, right, dimY, "dimension")
	s.line(left, dimY-5, left, dimY+5, "dimension")
	s.line(right, dimY-5, right, dimY+5, "dimension")
	s.text((left+right)/2, dimY+15, "dim-text", "middle", "Span: %.2f m", p.SpanM)

	top, bottom := v.y(depth/2), v.y(-depth/2)
	dimX := left - 15
	s.line(dimX, top, dimX, bottom, "dimension")
	s.text(dimX-5, top-5, "dim-text", "end", "Girder depth: %.2f m", depth)

	s.titleBlock(fmt.Sprintf("1 px = %.3f m", 1/v.scale), p.BridgeType)
	return s.String()
}

// Section draws the superstructure cross-section on the z-y plane.
func Section(p design.Parameters, opts Options) string {
	opts = opts.withDefaults(400, 300, "Girder Section")
	if p.IsSentinel() {
		return failed(opts, p)
	}
	d := scene.Compose(p)

	var deck []scene.Component
	for _, c := range d.Components {
		if c.Kind != scene.KindPier && c.Kind != scene.KindFoundation {
			deck = append(deck, c)
		}
	}
	if len(deck) == 0 {
		return failed(opts, p)
	}
	bb := scene.Bounds(deck)
	drawW := opts.Width - 2*margin
	drawH := opts.Height - 2*margin - titleBlockH
	v := fit(bb.Min[2], bb.Max[2], bb.Min[1], bb.Max[1], drawW, drawH)

	s := newSheet(opts)
	for _, c := range deck {
		e := scene.Extent(c)
		z0, z1 := v.x(c.Position[2]-e[2]), v.x(c.Position[2]+e[2])
		y0, y1 := v.y(c.Position[1]+e[1]), v.y(c.Position[1]-e[1])
		s.rect(z0, y0, z1-z0, y1-y0, classFor(c.Kind))
	}

	left, right := v.x(bb.Min[2]), v.x(bb.Max[2])
	topY := v.y(bb.Max[1]) - 10
	s.line(left, topY, right, topY, "dimension")
	s.text((left+right)/2, topY-5, "dim-text", "middle", "Width: %.2f m", bb.Size()[2])
	s.text(right+5, v.y(0), "dim-text", "", "Depth: %.2f m", bb.Size()[1])

	s.titleBlock(fmt.Sprintf("1 px = %.3f m", 1/v.scale), p.Materials.MainBeamsMaterial)
	return s.String()
}
