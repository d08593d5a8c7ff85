package render

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"
)

type svgElement struct {
	bounds Rect
	markup string
}

// SVGSurface records primitives as svg elements. Clear removes previously recorded
// elements lying entirely inside the cleared rect, so repainting a region does not
// grow the document.
type SVGSurface struct {
	width, height float64
	elements      []svgElement
}

func NewSVGSurface(width, height float64) *SVGSurface {
	return &SVGSurface{
		width:  width,
		height: height,
	}
}

func (svg *SVGSurface) Size() (float64, float64) {
	return svg.width, svg.height
}

func (svg *SVGSurface) Clear(r Rect) {
	kept := svg.elements[:0]
	for _, ele := range svg.elements {
		if !within(ele.bounds, r) {
			kept = append(kept, ele)
		}
	}
	svg.elements = kept
}

func (svg *SVGSurface) Fill(r Rect, color string) {
	svg.add(r, fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
		formatFloat(r.X), formatFloat(r.Y), formatFloat(r.Width), formatFloat(r.Height), esc(color)))
}

func (svg *SVGSurface) Shape(shape Shape, color string, lineWidth float64) {
	paint := paintAttrs(color, lineWidth)
	switch s := shape.(type) {
	case Polygon:
		if len(s.Points) == 0 {
			return
		}
		points := make([]string, 0, len(s.Points))
		minX, minY := math.MaxFloat64, math.MaxFloat64
		maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
		for _, p := range s.Points {
			points = append(points, formatFloat(p.X)+","+formatFloat(p.Y))
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
		svg.add(
			Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY},
			fmt.Sprintf(`<polygon points="%s" %s/>`, strings.Join(points, " "), paint))
	case Line:
		svg.add(
			Rect{
				X:      math.Min(s.From.X, s.To.X),
				Y:      math.Min(s.From.Y, s.To.Y),
				Width:  math.Abs(s.To.X - s.From.X),
				Height: math.Abs(s.To.Y - s.From.Y),
			},
			fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"/>`,
				formatFloat(s.From.X), formatFloat(s.From.Y),
				formatFloat(s.To.X), formatFloat(s.To.Y),
				esc(color), formatFloat(math.Max(lineWidth, 1))))
	case Circle:
		svg.add(
			Rect{X: s.Center.X - s.Radius, Y: s.Center.Y - s.Radius, Width: 2 * s.Radius, Height: 2 * s.Radius},
			fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" %s/>`,
				formatFloat(s.Center.X), formatFloat(s.Center.Y), formatFloat(s.Radius), paint))
	}
}

func (svg *SVGSurface) Text(value string, x, y float64, font, color string) {
	svg.add(Rect{X: x, Y: y}, fmt.Sprintf(`<text x="%s" y="%s" style="font: %s" fill="%s">%s</text>`,
		formatFloat(x), formatFloat(y), esc(font), esc(color), esc(value)))
}

func (svg *SVGSurface) Image(img *Image, r Rect) {
	svg.add(r, fmt.Sprintf(`<image href="%s" x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="none"/>`,
		img.DataURI(), formatFloat(r.X), formatFloat(r.Y), formatFloat(r.Width), formatFloat(r.Height)))
}

// Elements returns the recorded markup, in paint order.
func (svg *SVGSurface) Elements() []string {
	markup := make([]string, len(svg.elements))
	for i, ele := range svg.elements {
		markup[i] = ele.markup
	}
	return markup
}

// WriteTo writes a standalone svg document.
func (svg *SVGSurface) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		formatFloat(svg.width), formatFloat(svg.height), formatFloat(svg.width), formatFloat(svg.height))
	for _, ele := range svg.elements {
		sb.WriteString("\t")
		sb.WriteString(ele.markup)
		sb.WriteString("\n")
	}
	sb.WriteString("</svg>\n")
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func (svg *SVGSurface) add(bounds Rect, markup string) {
	svg.elements = append(svg.elements, svgElement{bounds: bounds, markup: markup})
}

func paintAttrs(color string, lineWidth float64) string {
	if lineWidth <= 0 {
		return fmt.Sprintf(`fill="%s"`, esc(color))
	}
	return fmt.Sprintf(`fill="none" stroke="%s" stroke-width="%s"`, esc(color), formatFloat(lineWidth))
}

// within reports whether inner lies entirely inside outer.
func within(inner, outer Rect) bool {
	return inner.X >= outer.X &&
		inner.Y >= outer.Y &&
		inner.X+inner.Width <= outer.X+outer.Width &&
		inner.Y+inner.Height <= outer.Y+outer.Height
}

func esc(s string) string {
	return template.HTMLEscapeString(s)
}
