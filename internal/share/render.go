// Package share turns a scored attempt into something a player can post:
// a result image, an uploaded copy of it and the social links pointing at it.
package share

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/okian/drawtree/internal/domain/mapper"
	"github.com/okian/drawtree/internal/domain/model"
)

// Result image layout.
const (
	DefaultImageSize = 800

	imageMargin   = 0.12
	outlineWidth  = 10.0
	pathWidth     = 8.0
	starOuter     = 48.0
	starInner     = 20.0
	scoreBarInset = 60
	scoreBarH     = 18
)

var (
	backgroundTop    = color.RGBA{R: 0x0E, G: 0x1A, B: 0x2B, A: 0xFF}
	backgroundBottom = color.RGBA{R: 0x1C, G: 0x2E, B: 0x45, A: 0xFF}
	outlineColor     = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0x66}
	pathColor        = color.RGBA{R: 0x72, G: 0xF4, B: 0x8F, A: 0xFF}
	starLit          = color.RGBA{R: 0xFF, G: 0xF9, B: 0x83, A: 0xFF}
	starDim          = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0x29}
	barTrack         = color.RGBA{R: 0x61, G: 0x73, B: 0x8A, A: 0xFF}
)

// Renderer draws the result card: the reference outline, the traced path on
// top of it, a star badge and a score bar.
type Renderer struct {
	size    int
	outline model.ReferenceOutline
	space   mapper.Viewport
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithImageSize sets the square image edge in pixels.
func WithImageSize(px int) RendererOption {
	return func(r *Renderer) {
		if px > 0 {
			r.size = px
		}
	}
}

// WithOutline replaces the reference outline and the logical space it lives in.
func WithOutline(outline model.ReferenceOutline, viewBox string) RendererOption {
	return func(r *Renderer) {
		if vp, err := mapper.ParseViewport(viewBox); err == nil {
			r.outline = outline
			r.space = *vp
		}
	}
}

// NewRenderer creates a renderer for the built-in tree.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{size: DefaultImageSize, outline: model.TreeOutline()}
	if vp, err := mapper.ParseViewport(model.TreeViewBox); err == nil {
		r.space = *vp
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Size returns the image edge in pixels.
func (r *Renderer) Size() int { return r.size }

// Render draws the card for score and path and returns it PNG-encoded.
func (r *Renderer) Render(score int, path model.Path) ([]byte, error) {
	dc := gg.NewContextForRGBA(r.Draw(score, path))
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// Draw paints the card into a fresh image.
func (r *Renderer) Draw(score int, path model.Path) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.size, r.size))
	dc := gg.NewContextForRGBA(img)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	r.background(dc)

	project := r.projector()
	ref := r.outline.Points()
	tracePolyline(dc, project, ref, len(ref) > 2)
	dc.SetLineWidth(outlineWidth)
	dc.SetColor(outlineColor)
	dc.Stroke()

	switch {
	case len(path) == 1:
		at := project(path[0])
		dc.DrawCircle(at.x, at.y, pathWidth/2)
		dc.SetColor(pathColor)
		dc.Fill()
	case len(path) > 1:
		tracePolyline(dc, project, path, false)
		dc.SetLineWidth(pathWidth)
		dc.SetColor(pathColor)
		dc.Stroke()
	}

	star := color.Color(starDim)
	if model.EarnsStar(score) {
		star = starLit
	}
	margin := float64(r.size) * imageMargin / 2
	drawStar(dc, point{x: float64(r.size) - margin - starOuter, y: margin + starOuter}, starOuter, starInner)
	dc.SetColor(star)
	dc.Fill()

	r.scoreBar(dc, score)
	return img
}

type point struct{ x, y float64 }

// projector maps logical outline space onto the image, preserving aspect
// ratio and centring inside the margin.
func (r *Renderer) projector() func(model.Point) point {
	avail := float64(r.size) * (1 - 2*imageMargin)
	scale := math.Min(avail/r.space.Width, avail/r.space.Height)
	offX := (float64(r.size) - r.space.Width*scale) / 2
	offY := (float64(r.size) - r.space.Height*scale) / 2
	return func(p model.Point) point {
		return point{
			x: offX + (p.X-r.space.MinX)*scale,
			y: offY + (p.Y-r.space.MinY)*scale,
		}
	}
}

func (r *Renderer) background(dc *gg.Context) {
	grad := gg.NewLinearGradient(0, 0, 0, float64(r.size))
	grad.AddColorStop(0, backgroundTop)
	grad.AddColorStop(1, backgroundBottom)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(r.size), float64(r.size))
	dc.Fill()
}

func (r *Renderer) scoreBar(dc *gg.Context, score int) {
	score = max(model.MinScore, min(model.MaxScore, score))
	x0, x1 := float64(scoreBarInset), float64(r.size-scoreBarInset)
	y0 := float64(r.size - scoreBarInset)
	filled := (x1 - x0) * float64(score) / model.MaxScore

	dc.DrawRectangle(x0, y0, x1-x0, scoreBarH)
	dc.SetColor(barTrack)
	dc.Fill()
	if filled > 0 {
		dc.DrawRectangle(x0, y0, filled, scoreBarH)
		dc.SetColor(pathColor)
		dc.Fill()
	}
}

// tracePolyline adds pts to the current path, optionally closing it.
func tracePolyline(dc *gg.Context, project func(model.Point) point, pts []model.Point, closed bool) {
	dc.NewSubPath()
	for i, p := range pts {
		at := project(p)
		if i == 0 {
			dc.MoveTo(at.x, at.y)
			continue
		}
		dc.LineTo(at.x, at.y)
	}
	if closed {
		dc.ClosePath()
	}
}

// drawStar adds a five-pointed star with its top point straight up.
func drawStar(dc *gg.Context, centre point, outer, inner float64) {
	dc.NewSubPath()
	for i := range 10 {
		radius := outer
		if i%2 == 1 {
			radius = inner
		}
		angle := -math.Pi/2 + float64(i)*math.Pi/5
		dc.LineTo(centre.x+radius*math.Cos(angle), centre.y+radius*math.Sin(angle))
	}
	dc.ClosePath()
}
