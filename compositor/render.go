package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"garment-studio/core"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

func (r *Renderer) drawElement(dst *image.RGBA, el *core.Element) error {
	switch el.Kind {
	case core.KindRectangle:
		drawRectangle(dst, el)
	case core.KindCircle:
		drawEllipse(dst, el)
	case core.KindTriangle, core.KindPolygon:
		drawPolygon(dst, el)
	case core.KindPath:
		svg := fmt.Sprintf(
			`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %g %g"><path d="%s" fill="%s"/></svg>`,
			el.Path.ViewW, el.Path.ViewH, el.Path.Data, el.Path.Fill)
		return drawSVG(dst, []byte(svg), el.Geometry, el.Path.ViewW, el.Path.ViewH)
	case core.KindIcon:
		return drawSVG(dst, el.Icon.SVG, el.Geometry, el.Icon.Width, el.Icon.Height)
	case core.KindText:
		return r.drawText(dst, el)
	case core.KindImage:
		return drawRaster(dst, el)
	default:
		return fmt.Errorf("unknown element kind %q", el.Kind)
	}
	return nil
}

func newFiller(dst *image.RGBA) *rasterx.Filler {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	return rasterx.NewFiller(w, h, scanner)
}

func drawRectangle(dst *image.RGBA, el *core.Element) {
	g, s := scaledGeometry(el.Geometry), el.Shape
	f := newFiller(dst)
	f.SetColor(parseHexColor(s.Fill))
	rasterx.AddRect(g.X, g.Y, g.X+s.Width*g.ScaleX, g.Y+s.Height*g.ScaleY, g.Rotation, f)
	f.Draw()
}

func drawEllipse(dst *image.RGBA, el *core.Element) {
	g, s := scaledGeometry(el.Geometry), el.Shape
	rx := s.Width * g.ScaleX / 2
	ry := s.Height * g.ScaleY / 2
	f := newFiller(dst)
	f.SetColor(parseHexColor(s.Fill))
	rasterx.AddEllipse(g.X+rx, g.Y+ry, rx, ry, g.Rotation, f)
	f.Draw()
}

func drawPolygon(dst *image.RGBA, el *core.Element) {
	g, s := scaledGeometry(el.Geometry), el.Shape
	cx := s.Width * g.ScaleX / 2
	cy := s.Height * g.ScaleY / 2
	sin, cos := math.Sincos(g.Rotation * math.Pi / 180)

	transformed := make([]core.Point, len(s.Points))
	for i, p := range s.Points {
		px := p.X*g.ScaleX - cx
		py := p.Y*g.ScaleY - cy
		transformed[i] = core.Point{
			X: g.X + cx + cos*px - sin*py,
			Y: g.Y + cy + sin*px + cos*py,
		}
	}

	f := newFiller(dst)
	f.SetColor(parseHexColor(s.Fill))
	f.Start(rasterx.ToFixedP(transformed[0].X, transformed[0].Y))
	for _, p := range transformed[1:] {
		f.Line(rasterx.ToFixedP(p.X, p.Y))
	}
	f.Stop(true)
	f.Draw()
}

// drawSVG rasterizes vector markup into a layer sized to the element's
// scaled bounds, then places the layer. Icon groups keep their own per-path
// colors; only rotation is applied at placement time.
func drawSVG(dst *image.RGBA, svg []byte, g core.Geometry, viewW, viewH float64) error {
	g = scaledGeometry(g)
	lw := int(math.Ceil(viewW * g.ScaleX))
	lh := int(math.Ceil(viewH * g.ScaleY))
	if lw < 1 || lh < 1 {
		return nil
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return fmt.Errorf("parse vector source: %w", err)
	}
	layer := image.NewRGBA(image.Rect(0, 0, lw, lh))
	scanner := rasterx.NewScannerGV(lw, lh, layer, layer.Bounds())
	icon.SetTarget(0, 0, float64(lw), float64(lh))
	icon.Draw(rasterx.NewDasher(lw, lh, scanner), 1.0)

	placeLayer(dst, layer, g.X, g.Y, g.Rotation)
	return nil
}

func (r *Renderer) drawText(dst *image.RGBA, el *core.Element) error {
	g, t := scaledGeometry(el.Geometry), el.Text
	face, err := r.fonts.Face(t.FontFamily, t.FontSize)
	if err != nil {
		return err
	}
	defer face.Close()

	d := &font.Drawer{Face: face}
	adv := d.MeasureString(t.Content)
	metrics := face.Metrics()
	lw := adv.Ceil() + 2
	lh := (metrics.Ascent + metrics.Descent).Ceil() + 2
	if lw < 1 || lh < 1 {
		return nil
	}

	layer := image.NewRGBA(image.Rect(0, 0, lw, lh))
	d.Dst = layer
	d.Src = image.NewUniform(parseHexColor(t.Fill))
	d.Dot = fixed.Point26_6{X: fixed.I(1), Y: metrics.Ascent}
	d.DrawString(t.Content)

	transformLayer(dst, layer, g, float64(lw), float64(lh))
	return nil
}

func drawRaster(dst *image.RGBA, el *core.Element) error {
	img, _, err := image.Decode(bytes.NewReader(el.Image.Data))
	if err != nil {
		return fmt.Errorf("decode raster element: %w", err)
	}
	transformLayer(dst, img, scaledGeometry(el.Geometry), el.Image.Width, el.Image.Height)
	return nil
}

// placeLayer blits a pre-scaled layer at (x, y), rotating about its center
// when needed.
func placeLayer(dst *image.RGBA, layer *image.RGBA, x, y, rotation float64) {
	if rotation == 0 {
		b := layer.Bounds()
		target := image.Rect(int(x+0.5), int(y+0.5), int(x+0.5)+b.Dx(), int(y+0.5)+b.Dy())
		draw.Draw(dst, target, layer, b.Min, draw.Over)
		return
	}
	g := core.Geometry{X: x, Y: y, ScaleX: 1, ScaleY: 1, Rotation: rotation}
	transformLayer(dst, layer, g, float64(layer.Bounds().Dx()), float64(layer.Bounds().Dy()))
}

// transformLayer composites src onto dst under the element transform: scale
// by the geometry, rotate about the scaled box center, translate to (X, Y).
func transformLayer(dst *image.RGBA, src image.Image, g core.Geometry, naturalW, naturalH float64) {
	sin, cos := math.Sincos(g.Rotation * math.Pi / 180)
	w := naturalW * g.ScaleX
	h := naturalH * g.ScaleY
	m := f64.Aff3{
		cos * g.ScaleX, -sin * g.ScaleY, g.X + w/2 - cos*w/2 + sin*h/2,
		sin * g.ScaleX, cos * g.ScaleY, g.Y + h/2 - sin*w/2 - cos*h/2,
	}
	xdraw.BiLinear.Transform(dst, m, src, src.Bounds(), xdraw.Over, nil)
}

// scaledGeometry normalizes zero scales to 1 so older documents render.
func scaledGeometry(g core.Geometry) core.Geometry {
	if g.ScaleX == 0 {
		g.ScaleX = 1
	}
	if g.ScaleY == 0 {
		g.ScaleY = 1
	}
	return g
}

// parseHexColor understands #rgb, #rrggbb and #rrggbbaa; anything else
// renders black.
func parseHexColor(s string) color.NRGBA {
	c := color.NRGBA{A: 0xff}
	hexVal := func(b byte) (uint8, bool) {
		switch {
		case b >= '0' && b <= '9':
			return b - '0', true
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10, true
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10, true
		}
		return 0, false
	}
	pair := func(hi, lo byte) (uint8, bool) {
		h, ok1 := hexVal(hi)
		l, ok2 := hexVal(lo)
		return h<<4 | l, ok1 && ok2
	}
	if len(s) == 0 || s[0] != '#' {
		return c
	}
	var ok1, ok2, ok3, ok4 bool
	switch len(s) {
	case 4:
		var r, g, b uint8
		r, ok1 = hexVal(s[1])
		g, ok2 = hexVal(s[2])
		b, ok3 = hexVal(s[3])
		if ok1 && ok2 && ok3 {
			c.R, c.G, c.B = r*17, g*17, b*17
		}
	case 7:
		c.R, ok1 = pair(s[1], s[2])
		c.G, ok2 = pair(s[3], s[4])
		c.B, ok3 = pair(s[5], s[6])
		if !(ok1 && ok2 && ok3) {
			return color.NRGBA{A: 0xff}
		}
	case 9:
		c.R, ok1 = pair(s[1], s[2])
		c.G, ok2 = pair(s[3], s[4])
		c.B, ok3 = pair(s[5], s[6])
		c.A, ok4 = pair(s[7], s[8])
		if !(ok1 && ok2 && ok3 && ok4) {
			return color.NRGBA{A: 0xff}
		}
	}
	return c
}
