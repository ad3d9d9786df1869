// Package engine owns the live drawing surface for the active garment view.
// A single Engine instance exists per editor session; it is constructed once,
// resized in place, and never recreated while the session lives.
package engine

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"garment-studio/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// ErrNotLaidOut is returned when the surface size cannot be determined yet.
// Callers defer and retry once the container has been measured instead of
// treating this as a user-visible failure.
var ErrNotLaidOut = errors.New("drawing surface has not been laid out yet")

const (
	// Uploaded bitmaps are inserted scaled down so they stay editable; the
	// full-resolution original is retained outside the document.
	imageInsertScale = 0.3

	// Imported clipart icons are low resolution (~24px viewbox) and are
	// scaled up on insertion.
	iconInsertScale = 3
)

// SelectionListener receives a copy of the newly selected element, or nil
// when the selection becomes empty.
type SelectionListener func(selected *core.Element)

type Engine struct {
	width, height int
	initialized   bool

	elements  []core.Element
	selected  string
	listeners []SelectionListener

	defaultFamily string
}

func New(defaultFontFamily string) *Engine {
	return &Engine{defaultFamily: defaultFontFamily}
}

// Initialize sets up the surface. It is idempotent: a second call resizes the
// existing surface rather than recreating it, so element state survives
// re-initialization triggered by unrelated layout changes.
func (e *Engine) Initialize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrNotLaidOut
	}
	if e.initialized {
		e.width, e.height = width, height
		return nil
	}
	e.width, e.height = width, height
	e.initialized = true
	logrus.WithFields(logrus.Fields{"width": width, "height": height}).Debug("surface initialized")
	return nil
}

func (e *Engine) Initialized() bool { return e.initialized }

func (e *Engine) Size() (int, int) { return e.width, e.height }

// OnSelectionChange registers a listener fired on every transition between
// "exactly one selected" and "none selected".
func (e *Engine) OnSelectionChange(fn SelectionListener) {
	e.listeners = append(e.listeners, fn)
}

// LoadDocument replaces all elements on the surface with those described by
// doc; a nil or empty document clears the surface. Raster payloads are
// decoded before this returns, so a caller that switches views immediately
// afterwards sees a fully loaded surface.
func (e *Engine) LoadDocument(doc *core.CanvasDocument) error {
	if doc.Empty() {
		e.Clear()
		return nil
	}
	loaded := make([]core.Element, 0, len(doc.Elements))
	for _, el := range doc.Elements {
		if err := el.Validate(); err != nil {
			return err
		}
		if el.Kind == core.KindImage {
			if _, _, err := image.Decode(bytes.NewReader(el.Image.Data)); err != nil {
				return fmt.Errorf("decode image element %s: %w", el.ID, err)
			}
		}
		loaded = append(loaded, el.Clone())
	}
	e.elements = loaded
	e.setSelected("")
	return nil
}

// Clear removes every element and drops the selection.
func (e *Engine) Clear() {
	e.elements = nil
	e.setSelected("")
}

// AddElement appends an element in paint order, assigns it an ID if it has
// none, auto-selects it and returns a copy.
func (e *Engine) AddElement(el core.Element) (*core.Element, error) {
	if el.ID == "" {
		el.ID = ulid.Make().String()
	}
	if el.Kind == core.KindText && el.Text != nil && el.Text.FontFamily == "" {
		el.Text.FontFamily = e.defaultFamily
	}
	if err := el.Validate(); err != nil {
		return nil, err
	}
	e.elements = append(e.elements, el)
	e.setSelected(el.ID)
	copied := el.Clone()
	return &copied, nil
}

// AddRasterImage decodes an uploaded bitmap and inserts it scaled down near
// the top-left corner. The caller keeps the undecoded original separately so
// a high-resolution copy survives the down-scaled canvas placement.
func (e *Engine) AddRasterImage(data []byte) (*core.Element, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode uploaded image: %w", err)
	}
	el := core.Element{
		Kind: core.KindImage,
		Geometry: core.Geometry{
			X: 40, Y: 40,
			ScaleX: imageInsertScale,
			ScaleY: imageInsertScale,
		},
		Image: &core.ImageProps{
			Data:   append([]byte(nil), data...),
			Width:  float64(cfg.Width),
			Height: float64(cfg.Height),
		},
	}
	return e.AddElement(el)
}

// AddIcon inserts an imported clipart group scaled up from its small source
// viewbox.
func (e *Engine) AddIcon(icon core.IconProps) (*core.Element, error) {
	el := core.Element{
		Kind: core.KindIcon,
		Geometry: core.Geometry{
			X: 80, Y: 80,
			ScaleX: iconInsertScale,
			ScaleY: iconInsertScale,
		},
		Icon: &icon,
	}
	return e.AddElement(el)
}

// Select marks the element with the given ID as the single selection.
func (e *Engine) Select(id string) error {
	for _, el := range e.elements {
		if el.ID == id {
			e.setSelected(id)
			return nil
		}
	}
	return fmt.Errorf("element %s not found", id)
}

// SelectMany applies the editor's single-selection policy: anything other
// than exactly one element collapses to no selection.
func (e *Engine) SelectMany(ids []string) {
	if len(ids) == 1 {
		if err := e.Select(ids[0]); err == nil {
			return
		}
	}
	e.setSelected("")
}

func (e *Engine) ClearSelection() { e.setSelected("") }

// Selected returns a copy of the selected element, or nil when none is.
func (e *Engine) Selected() *core.Element {
	if e.selected == "" {
		return nil
	}
	for _, el := range e.elements {
		if el.ID == e.selected {
			copied := el.Clone()
			return &copied
		}
	}
	return nil
}

// RemoveSelected deletes the selected element. It reports whether anything
// was removed; with no selection it is a no-op.
func (e *Engine) RemoveSelected() bool {
	if e.selected == "" {
		return false
	}
	for i, el := range e.elements {
		if el.ID == e.selected {
			e.elements = append(e.elements[:i], e.elements[i+1:]...)
			e.setSelected("")
			return true
		}
	}
	e.setSelected("")
	return false
}

// SetSelectedFill changes the selected element's fill color. Icon groups are
// skipped so multi-path icons keep their original per-path colors; with no
// selection this is a no-op.
func (e *Engine) SetSelectedFill(hex string) bool {
	el := e.selectedRef()
	if el == nil {
		return false
	}
	switch {
	case el.Text != nil:
		el.Text.Fill = hex
	case el.Shape != nil:
		el.Shape.Fill = hex
	case el.Path != nil:
		el.Path.Fill = hex
	default:
		return false
	}
	return true
}

// SetSelectedFontFamily changes the font of a selected text element and is
// silently ignored for every other kind.
func (e *Engine) SetSelectedFontFamily(family string) bool {
	el := e.selectedRef()
	if el == nil || el.Kind != core.KindText || el.Text == nil {
		return false
	}
	el.Text.FontFamily = family
	return true
}

// Serialize snapshots the current surface into a document. It is a pure
// read: the returned document shares no mutable state with the engine.
func (e *Engine) Serialize() *core.CanvasDocument {
	doc := &core.CanvasDocument{Elements: make([]core.Element, 0, len(e.elements))}
	for _, el := range e.elements {
		doc.Elements = append(doc.Elements, el.Clone())
	}
	return doc
}

func (e *Engine) selectedRef() *core.Element {
	if e.selected == "" {
		return nil
	}
	for i := range e.elements {
		if e.elements[i].ID == e.selected {
			return &e.elements[i]
		}
	}
	return nil
}

func (e *Engine) setSelected(id string) {
	if e.selected == id {
		return
	}
	e.selected = id
	sel := e.Selected()
	for _, fn := range e.listeners {
		fn(sel)
	}
}
