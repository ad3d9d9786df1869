// Package compositor flattens canvas documents into raster images and, at
// submission time, merges them with the garment's background mockup.
package compositor

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"

	"garment-studio/core"
	"garment-studio/fonts"

	xdraw "golang.org/x/image/draw"
)

// Fetcher loads background image bytes by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type HTTPFetcher struct {
	Client *http.Client
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

type Renderer struct {
	fonts   *fonts.Catalog
	fetcher Fetcher
}

func NewRenderer(catalog *fonts.Catalog, fetcher Fetcher) *Renderer {
	return &Renderer{fonts: catalog, fetcher: fetcher}
}

// RenderDocument paints every element of doc, in document order, onto a
// transparent surface of the given size. Later elements render on top.
func (r *Renderer) RenderDocument(doc *core.CanvasDocument, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid render size %dx%d", width, height)
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if doc == nil {
		return dst, nil
	}
	for i := range doc.Elements {
		if err := r.drawElement(dst, &doc.Elements[i]); err != nil {
			return nil, fmt.Errorf("render element %s: %w", doc.Elements[i].ID, err)
		}
	}
	return dst, nil
}

// Composite merges one view's canvas document with its background mockup:
// the background is cover-fitted (scaled by the larger of the two ratios,
// centered, no letterboxing), then the document renders on top in z-order.
// Each call uses a fresh scratch surface, so the editor's live surface is
// never left holding a stale background. Output is deterministic for
// identical inputs.
func (r *Renderer) Composite(ctx context.Context, doc *core.CanvasDocument, backgroundURL string, width, height int) (*image.RGBA, error) {
	if backgroundURL == "" {
		return nil, fmt.Errorf("no background image for composite")
	}
	raw, err := r.fetcher.Fetch(ctx, backgroundURL)
	if err != nil {
		return nil, err
	}
	bg, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	bounds := bg.Bounds()
	scaleX := float64(width) / float64(bounds.Dx())
	scaleY := float64(height) / float64(bounds.Dy())
	scale := scaleX
	if scaleY > scale {
		scale = scaleY
	}
	dw := int(float64(bounds.Dx())*scale + 0.5)
	dh := int(float64(bounds.Dy())*scale + 0.5)
	ox := (width - dw) / 2
	oy := (height - dh) / 2
	xdraw.BiLinear.Scale(dst, image.Rect(ox, oy, ox+dw, oy+dh), bg, bounds, xdraw.Src, nil)

	if doc != nil {
		for i := range doc.Elements {
			if err := r.drawElement(dst, &doc.Elements[i]); err != nil {
				return nil, fmt.Errorf("render element %s: %w", doc.Elements[i].ID, err)
			}
		}
	}
	return dst, nil
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const pngDataURIPrefix = "data:image/png;base64,"

// DataURI encodes an image as a PNG data URI, the form composites travel in
// inside the submission payload.
func DataURI(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return pngDataURIPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// ParseDataURI decodes a base64 image data URI back into raw bytes.
func ParseDataURI(uri string) ([]byte, error) {
	idx := strings.Index(uri, ";base64,")
	if !strings.HasPrefix(uri, "data:image/") || idx < 0 {
		return nil, fmt.Errorf("not an image data URI")
	}
	return base64.StdEncoding.DecodeString(uri[idx+len(";base64,"):])
}
