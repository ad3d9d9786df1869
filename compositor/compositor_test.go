package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"garment-studio/core"
	"garment-studio/fonts"
)

type fakeFetcher struct {
	data map[string][]byte
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	data, ok := f.data[url]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", url)
	}
	return data, nil
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}
	return buf.Bytes()
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func newTestRenderer(t *testing.T, fetcher Fetcher) *Renderer {
	t.Helper()
	catalog, err := fonts.Default()
	if err != nil {
		t.Fatalf("Failed to load fonts: %v", err)
	}
	return NewRenderer(catalog, fetcher)
}

func rectangle(id, fill string, x, y, w, h float64) core.Element {
	return core.Element{
		ID:       id,
		Kind:     core.KindRectangle,
		Geometry: core.Geometry{X: x, Y: y, ScaleX: 1, ScaleY: 1},
		Shape:    &core.ShapeProps{Width: w, Height: h, Fill: fill},
	}
}

func TestRenderDocument_ZOrder(t *testing.T) {
	r := newTestRenderer(t, nil)
	doc := &core.CanvasDocument{Elements: []core.Element{
		rectangle("bottom", "#ff0000", 10, 10, 60, 60),
		rectangle("top", "#0000ff", 30, 30, 60, 60),
	}}

	img, err := r.RenderDocument(doc, 120, 120)
	if err != nil {
		t.Fatalf("RenderDocument failed: %v", err)
	}

	// Overlap region belongs to the later element.
	got := img.RGBAAt(50, 50)
	if got.B < 200 || got.R > 50 {
		t.Errorf("Overlap pixel mismatch: got %+v, want blue on top", got)
	}
	// Non-overlapping part of the bottom rectangle is still red.
	got = img.RGBAAt(15, 15)
	if got.R < 200 || got.B > 50 {
		t.Errorf("Bottom rectangle pixel mismatch: got %+v, want red", got)
	}
	// Outside both rectangles the surface is transparent.
	if got := img.RGBAAt(110, 110); got.A != 0 {
		t.Errorf("Background pixel not transparent: %+v", got)
	}
}

func TestRenderDocument_Deterministic(t *testing.T) {
	r := newTestRenderer(t, nil)
	doc := &core.CanvasDocument{Elements: []core.Element{
		rectangle("r", "#00ff00", 5, 5, 40, 20),
		{
			ID:       "c",
			Kind:     core.KindCircle,
			Geometry: core.Geometry{X: 30, Y: 30, ScaleX: 1, ScaleY: 1, Rotation: 30},
			Shape:    &core.ShapeProps{Width: 50, Height: 30, Fill: "#123456"},
		},
	}}

	a, err := r.RenderDocument(doc, 100, 100)
	if err != nil {
		t.Fatalf("First render failed: %v", err)
	}
	b, err := r.RenderDocument(doc, 100, 100)
	if err != nil {
		t.Fatalf("Second render failed: %v", err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("Two renders of the same document differ")
	}
}

func TestRenderDocument_TextProducesInk(t *testing.T) {
	r := newTestRenderer(t, nil)
	doc := &core.CanvasDocument{Elements: []core.Element{{
		ID:       "t",
		Kind:     core.KindText,
		Geometry: core.Geometry{X: 10, Y: 10, ScaleX: 1, ScaleY: 1},
		Text:     &core.TextProps{Content: "Hello", FontFamily: "Go Regular", FontSize: 24, Fill: "#000000"},
	}}}

	img, err := r.RenderDocument(doc, 200, 80)
	if err != nil {
		t.Fatalf("RenderDocument failed: %v", err)
	}
	inked := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			inked++
		}
	}
	if inked == 0 {
		t.Error("Text element rendered no visible pixels")
	}
}

func TestRenderDocument_InvalidSize(t *testing.T) {
	r := newTestRenderer(t, nil)
	if _, err := r.RenderDocument(&core.CanvasDocument{}, 0, 100); err == nil {
		t.Error("Zero-width render accepted")
	}
}

func TestComposite_CoverFitCentersCrop(t *testing.T) {
	// Background is twice as wide as the target: left half red, right half
	// blue. Cover fit must crop both sides equally, keeping the middle.
	bg := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			c := color.NRGBA{R: 0xff, A: 0xff}
			if x >= 100 {
				c = color.NRGBA{B: 0xff, A: 0xff}
			}
			bg.SetNRGBA(x, y, c)
		}
	}
	fetcher := &fakeFetcher{data: map[string][]byte{
		"http://cdn/mockup.png": encodePNG(t, bg),
	}}
	r := newTestRenderer(t, fetcher)

	img, err := r.Composite(context.Background(), &core.CanvasDocument{}, "http://cdn/mockup.png", 100, 100)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	// The visible window is bg x in [50, 150): left edge red, right edge blue.
	if got := img.RGBAAt(5, 50); got.R < 200 {
		t.Errorf("Left edge mismatch: got %+v, want red", got)
	}
	if got := img.RGBAAt(95, 50); got.B < 200 {
		t.Errorf("Right edge mismatch: got %+v, want blue", got)
	}
	// No letterboxing: corners are opaque background, not transparent.
	for _, p := range []image.Point{{0, 0}, {99, 0}, {0, 99}, {99, 99}} {
		if got := img.RGBAAt(p.X, p.Y); got.A != 0xff {
			t.Errorf("Corner %v is not covered by the background: %+v", p, got)
		}
	}
}

func TestComposite_ElementsOverBackground(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string][]byte{
		"http://cdn/mockup.png": encodePNG(t, solidImage(100, 100, color.NRGBA{G: 0xff, A: 0xff})),
	}}
	r := newTestRenderer(t, fetcher)

	doc := &core.CanvasDocument{Elements: []core.Element{
		rectangle("r", "#ff0000", 40, 40, 20, 20),
	}}
	img, err := r.Composite(context.Background(), doc, "http://cdn/mockup.png", 100, 100)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if got := img.RGBAAt(50, 50); got.R < 200 {
		t.Errorf("Element pixel mismatch: got %+v, want red over background", got)
	}
	if got := img.RGBAAt(10, 10); got.G < 200 {
		t.Errorf("Background pixel mismatch: got %+v, want green", got)
	}
}

func TestComposite_MissingBackground(t *testing.T) {
	r := newTestRenderer(t, &fakeFetcher{})
	if _, err := r.Composite(context.Background(), &core.CanvasDocument{}, "", 100, 100); err == nil {
		t.Error("Composite without a background URL accepted")
	}
	if _, err := r.Composite(context.Background(), &core.CanvasDocument{}, "http://cdn/gone.png", 100, 100); err == nil {
		t.Error("Composite with an unfetchable background accepted")
	}
}

func TestDataURI_RoundTrip(t *testing.T) {
	src := solidImage(8, 8, color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff})
	uri, err := DataURI(src)
	if err != nil {
		t.Fatalf("DataURI failed: %v", err)
	}
	if uri[:22] != "data:image/png;base64," {
		t.Fatalf("URI prefix mismatch: %q", uri[:22])
	}

	raw, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI failed: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decoded bytes are not a PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 8 || decoded.Bounds().Dy() != 8 {
		t.Errorf("Size mismatch: got %v", decoded.Bounds())
	}
}

func TestParseDataURI_Rejects(t *testing.T) {
	for _, uri := range []string{"", "http://example.com/a.png", "data:text/plain;base64,aGk="} {
		if _, err := ParseDataURI(uri); err == nil {
			t.Errorf("ParseDataURI(%q) accepted a non-image URI", uri)
		}
	}
}

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.NRGBA
	}{
		{"#f00", color.NRGBA{R: 0xff, A: 0xff}},
		{"#1f2937", color.NRGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}},
		{"#11223344", color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44}},
		{"not-a-color", color.NRGBA{A: 0xff}},
		{"#zzz", color.NRGBA{A: 0xff}},
	}
	for _, tc := range cases {
		if got := parseHexColor(tc.in); got != tc.want {
			t.Errorf("parseHexColor(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}
