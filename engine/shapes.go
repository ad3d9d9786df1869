package engine

import (
	"fmt"

	"garment-studio/core"
)

const (
	defaultFill = "#1f2937"

	// Freeform outline shapes are authored in a 24x24 box and scaled
	// uniformly on insertion.
	pathViewBox     = 24
	pathInsertScale = 4
)

// Outline path data for the freeform shapes, Material Design icon geometry.
const (
	heartPathData = "M12 21.35l-1.45-1.32C5.4 15.36 2 12.28 2 8.5 2 5.42 4.42 3 7.5 3c1.74 0 3.41.81 4.5 2.09C13.09 3.81 14.76 3 16.5 3 19.58 3 22 5.42 22 8.5c0 3.78-3.4 6.86-8.55 11.54L12 21.35z"
	arrowPathData = "M12 4l-1.41 1.41L16.17 11H4v2h12.17l-5.58 5.59L12 20l8-8z"
	boltPathData  = "M11 21h-1l1-7H7.5c-.58 0-.57-.32-.38-.66.19-.34.05-.08.07-.12C8.48 10.94 10.42 7.54 13 3h1l-1 7h3.5c.49 0 .56.33.47.51l-.07.15C12.96 17.55 11 21 11 21z"
)

// TextElement builds a text descriptor with the editor defaults; the font
// family is resolved against the session's font catalog on insertion.
func TextElement(content string) core.Element {
	if content == "" {
		content = "Your Text"
	}
	return core.Element{
		Kind:     core.KindText,
		Geometry: core.Geometry{X: 120, Y: 120, ScaleX: 1, ScaleY: 1},
		Text: &core.TextProps{
			Content:  content,
			FontSize: 28,
			Fill:     defaultFill,
		},
	}
}

// ShapeElement builds the descriptor for a named shape. Star and hexagon are
// expressed as explicit point lists, the diamond as a square rotated 45
// degrees, and heart/arrow/bolt as fixed path data.
func ShapeElement(name string) (core.Element, error) {
	geo := core.Geometry{X: 150, Y: 150, ScaleX: 1, ScaleY: 1}
	switch name {
	case "rectangle":
		return core.Element{
			Kind:     core.KindRectangle,
			Geometry: geo,
			Shape:    &core.ShapeProps{Width: 120, Height: 80, Fill: defaultFill},
		}, nil
	case "square":
		return core.Element{
			Kind:     core.KindRectangle,
			Geometry: geo,
			Shape:    &core.ShapeProps{Width: 100, Height: 100, Fill: defaultFill},
		}, nil
	case "diamond":
		geo.Rotation = 45
		return core.Element{
			Kind:     core.KindRectangle,
			Geometry: geo,
			Shape:    &core.ShapeProps{Width: 100, Height: 100, Fill: defaultFill},
		}, nil
	case "circle":
		return core.Element{
			Kind:     core.KindCircle,
			Geometry: geo,
			Shape:    &core.ShapeProps{Width: 100, Height: 100, Fill: defaultFill},
		}, nil
	case "triangle":
		return core.Element{
			Kind:     core.KindTriangle,
			Geometry: geo,
			Shape: &core.ShapeProps{
				Width: 120, Height: 104, Fill: defaultFill,
				Points: []core.Point{{X: 60, Y: 0}, {X: 120, Y: 104}, {X: 0, Y: 104}},
			},
		}, nil
	case "star":
		return core.Element{
			Kind:     core.KindPolygon,
			Geometry: geo,
			Shape: &core.ShapeProps{
				Width: 100, Height: 100, Fill: defaultFill,
				Points: []core.Point{
					{X: 50, Y: 0}, {X: 61.8, Y: 33.8}, {X: 97.6, Y: 34.5},
					{X: 69, Y: 56.2}, {X: 79.4, Y: 90.5}, {X: 50, Y: 70},
					{X: 20.6, Y: 90.5}, {X: 31, Y: 56.2}, {X: 2.4, Y: 34.5},
					{X: 38.2, Y: 33.8},
				},
			},
		}, nil
	case "hexagon":
		return core.Element{
			Kind:     core.KindPolygon,
			Geometry: geo,
			Shape: &core.ShapeProps{
				Width: 100, Height: 100, Fill: defaultFill,
				Points: []core.Point{
					{X: 50, Y: 0}, {X: 93.3, Y: 25}, {X: 93.3, Y: 75},
					{X: 50, Y: 100}, {X: 6.7, Y: 75}, {X: 6.7, Y: 25},
				},
			},
		}, nil
	case "heart":
		return pathElement(heartPathData), nil
	case "arrow":
		return pathElement(arrowPathData), nil
	case "bolt":
		return pathElement(boltPathData), nil
	}
	return core.Element{}, fmt.Errorf("unknown shape %q", name)
}

func pathElement(data string) core.Element {
	return core.Element{
		Kind: core.KindPath,
		Geometry: core.Geometry{
			X: 150, Y: 150,
			ScaleX: pathInsertScale,
			ScaleY: pathInsertScale,
		},
		Path: &core.PathProps{
			Data:  data,
			ViewW: pathViewBox,
			ViewH: pathViewBox,
			Fill:  defaultFill,
		},
	}
}

// ShapeNames lists the shapes the editor palette offers.
var ShapeNames = []string{
	"rectangle", "square", "diamond", "circle", "triangle",
	"star", "hexagon", "heart", "arrow", "bolt",
}
