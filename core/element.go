package core

import "fmt"

// ElementKind tags the variant of an Element. Exactly one of the kind-specific
// property structs must be set for a given kind.
type ElementKind string

const (
	KindText      ElementKind = "text"
	KindRectangle ElementKind = "rectangle"
	KindCircle    ElementKind = "circle"
	KindTriangle  ElementKind = "triangle"
	KindPolygon   ElementKind = "polygon"
	KindPath      ElementKind = "path"
	KindImage     ElementKind = "image"
	KindIcon      ElementKind = "icon"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Geometry places an element on the drawing surface. X/Y is the top-left
// corner of the unrotated bounding box; rotation is in degrees, clockwise,
// about the box center.
type Geometry struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	Rotation float64 `json:"rotation"`
}

type TextProps struct {
	Content    string  `json:"content"`
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	Fill       string  `json:"fill"`
}

// ShapeProps covers the parametric shapes. Rectangle and circle use only
// Width/Height; triangle and polygon carry an explicit vertex list in local
// coordinates within the Width x Height box.
type ShapeProps struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Points []Point `json:"points,omitempty"`
	Fill   string  `json:"fill"`
}

// PathProps is a freeform outline shape expressed as SVG path data inside a
// ViewW x ViewH local box, scaled uniformly on insertion.
type PathProps struct {
	Data  string  `json:"data"`
	ViewW float64 `json:"viewW"`
	ViewH float64 `json:"viewH"`
	Fill  string  `json:"fill"`
}

// ImageProps holds the encoded bitmap as placed on the canvas. The original
// full-resolution upload is kept outside the document (see EnquiryDraft).
type ImageProps struct {
	Data   []byte  `json:"data"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IconProps is an imported clipart group: the raw vector markup plus the
// parsed path count and view box. Fill overrides never apply to icons so
// multi-path icons keep their per-path colors.
type IconProps struct {
	SVG       []byte  `json:"svg"`
	PathCount int     `json:"pathCount"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

type Element struct {
	ID       string      `json:"id"`
	Kind     ElementKind `json:"kind"`
	Geometry Geometry    `json:"geometry"`

	Text  *TextProps  `json:"text,omitempty"`
	Shape *ShapeProps `json:"shape,omitempty"`
	Path  *PathProps  `json:"path,omitempty"`
	Image *ImageProps `json:"image,omitempty"`
	Icon  *IconProps  `json:"icon,omitempty"`
}

// Validate checks that the kind tag and the populated property struct agree.
func (e *Element) Validate() error {
	switch e.Kind {
	case KindText:
		if e.Text == nil {
			return fmt.Errorf("text element %s has no text properties", e.ID)
		}
	case KindRectangle, KindCircle:
		if e.Shape == nil {
			return fmt.Errorf("%s element %s has no shape properties", e.Kind, e.ID)
		}
	case KindTriangle, KindPolygon:
		if e.Shape == nil || len(e.Shape.Points) < 3 {
			return fmt.Errorf("%s element %s needs at least 3 vertices", e.Kind, e.ID)
		}
	case KindPath:
		if e.Path == nil || e.Path.Data == "" {
			return fmt.Errorf("path element %s has no path data", e.ID)
		}
	case KindImage:
		if e.Image == nil || len(e.Image.Data) == 0 {
			return fmt.Errorf("image element %s has no image data", e.ID)
		}
	case KindIcon:
		if e.Icon == nil || len(e.Icon.SVG) == 0 {
			return fmt.Errorf("icon element %s has no vector source", e.ID)
		}
	default:
		return fmt.Errorf("unknown element kind %q", e.Kind)
	}
	return nil
}

// Clone returns a deep copy so documents can be frozen without sharing
// mutable state with the live surface.
func (e Element) Clone() Element {
	c := e
	if e.Text != nil {
		t := *e.Text
		c.Text = &t
	}
	if e.Shape != nil {
		s := *e.Shape
		s.Points = append([]Point(nil), e.Shape.Points...)
		c.Shape = &s
	}
	if e.Path != nil {
		p := *e.Path
		c.Path = &p
	}
	if e.Image != nil {
		i := *e.Image
		i.Data = append([]byte(nil), e.Image.Data...)
		c.Image = &i
	}
	if e.Icon != nil {
		i := *e.Icon
		i.SVG = append([]byte(nil), e.Icon.SVG...)
		c.Icon = &i
	}
	return c
}

// CanvasDocument is the serialized state of one view's drawing surface.
// Element order is paint order: index 0 renders at the bottom.
type CanvasDocument struct {
	Elements []Element `json:"elements"`
}

func (d *CanvasDocument) Clone() *CanvasDocument {
	if d == nil {
		return nil
	}
	out := &CanvasDocument{Elements: make([]Element, 0, len(d.Elements))}
	for _, e := range d.Elements {
		out.Elements = append(out.Elements, e.Clone())
	}
	return out
}

func (d *CanvasDocument) Empty() bool {
	return d == nil || len(d.Elements) == 0
}

// View is one of the photographed garment orientations a design is placed on.
type View string

const (
	ViewFront View = "front"
	ViewBack  View = "back"
	ViewSide  View = "side"
)

// Views lists all views in submission order.
var Views = []View{ViewFront, ViewBack, ViewSide}

func (v View) Valid() bool {
	return v == ViewFront || v == ViewBack || v == ViewSide
}
