// Package viewstate keeps one frozen canvas document per inactive garment
// view so the user can move between front, back and side without losing work.
// The live document for the active view is owned exclusively by the engine;
// documents held here are never shared with it.
package viewstate

import (
	"fmt"

	"garment-studio/core"

	"github.com/sirupsen/logrus"
)

// Engine is the slice of the canvas engine the store needs: flushing the live
// surface out and loading a frozen document back in.
type Engine interface {
	Serialize() *core.CanvasDocument
	LoadDocument(doc *core.CanvasDocument) error
	Clear()
}

// UnavailableViewError reports a switch to a view whose background mockup is
// missing for the current color. State is left unchanged.
type UnavailableViewError struct {
	View core.View
}

func (e *UnavailableViewError) Error() string {
	return fmt.Sprintf("the %s view is not available for the selected color", e.View)
}

type Store struct {
	engine  Engine
	active  core.View
	docs    map[core.View]*core.CanvasDocument
	garment core.GarmentTemplate
	color   core.GarmentColor
}

// New starts a store on the front view of the garment's given color.
func New(engine Engine, garment core.GarmentTemplate, color core.GarmentColor) *Store {
	return &Store{
		engine:  engine,
		active:  core.ViewFront,
		docs:    make(map[core.View]*core.CanvasDocument),
		garment: garment,
		color:   color,
	}
}

func (s *Store) Active() core.View            { return s.active }
func (s *Store) Garment() core.GarmentTemplate { return s.garment }
func (s *Store) Color() core.GarmentColor      { return s.color }

// Flush captures the engine's live document into the map under the active
// view. Every transition that changes what the engine displays must flush
// first, or in-progress edits are silently lost.
func (s *Store) Flush() {
	s.docs[s.active] = s.engine.Serialize()
}

// SwitchTo makes view the active one: flush the outgoing view, then load the
// incoming view's stored document (or an empty one). A view without a
// background image for the current color is rejected and state is unchanged.
func (s *Store) SwitchTo(view core.View) error {
	if !view.Valid() {
		return fmt.Errorf("unknown view %q", view)
	}
	if view == s.active {
		return nil
	}
	if s.color.ImageURL(view) == "" {
		return &UnavailableViewError{View: view}
	}
	s.Flush()
	if err := s.engine.LoadDocument(s.docs[view]); err != nil {
		return err
	}
	s.active = view
	logrus.WithField("view", view).Debug("switched view")
	return nil
}

// SwitchColor changes only the active color reference. All three views'
// documents are preserved verbatim: a design is independent of garment color.
func (s *Store) SwitchColor(colorID string) error {
	for _, c := range s.garment.Colors {
		if c.ID == colorID {
			s.Flush()
			s.color = c
			return nil
		}
	}
	return fmt.Errorf("color %s not found on garment %s", colorID, s.garment.ID)
}

// SwitchGarment discards all views' documents and clears the live surface.
// A different template invalidates prior element placement, so this reset is
// deliberately destructive and not preceded by a confirmation step.
func (s *Store) SwitchGarment(garment core.GarmentTemplate) error {
	if len(garment.Colors) == 0 {
		return fmt.Errorf("garment %s has no colors", garment.ID)
	}
	s.docs = make(map[core.View]*core.CanvasDocument)
	s.engine.Clear()
	s.garment = garment
	s.color = garment.Colors[0]
	s.active = core.ViewFront
	logrus.WithField("garment", garment.ID).Info("garment switched, design reset")
	return nil
}

// Document returns a copy of the stored document for a view, or nil when the
// view has never been flushed.
func (s *Store) Document(view core.View) *core.CanvasDocument {
	return s.docs[view].Clone()
}

// Documents returns copies of every stored document, keyed by view.
func (s *Store) Documents() map[core.View]*core.CanvasDocument {
	out := make(map[core.View]*core.CanvasDocument, len(s.docs))
	for v, d := range s.docs {
		out[v] = d.Clone()
	}
	return out
}
