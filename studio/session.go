// Package studio owns editor sessions: one live canvas engine plus the
// per-view document map, the selected garment and fabric options, and the
// submission phase. Handlers and network callbacks interleave on a session,
// so every mutation runs under the session mutex; any operation that spans a
// network fetch re-validates its assumptions after the gap.
package studio

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"garment-studio/clipart"
	"garment-studio/compositor"
	"garment-studio/core"
	"garment-studio/engine"
	"garment-studio/enquiry"
	"garment-studio/fonts"
	"garment-studio/viewstate"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// ErrStaleSearch marks a clipart search whose response arrived after the
// same session issued a newer search; its results must be discarded.
var ErrStaleSearch = errors.New("clipart search superseded by a newer query")

type Session struct {
	ID string

	mu      sync.Mutex
	engine  *engine.Engine
	views   *viewstate.Store
	phase   enquiry.Phase
	created time.Time

	fabrics  []core.Fabric
	garments []core.GarmentTemplate

	// First uploaded logo at full resolution; the canvas holds only a
	// scaled-down copy.
	originalLogoURL string

	// searchSeq numbers this session's clipart searches. Staleness is
	// judged per session: another editor's searches never invalidate
	// this one's.
	searchSeq atomic.Uint64

	deps Deps
}

// State is the session snapshot handed to editor clients; it doubles as the
// element inspector, reflecting the selected element's mutable properties.
type State struct {
	ID              string               `json:"id"`
	Phase           enquiry.Phase        `json:"phase"`
	ActiveView      core.View            `json:"activeView"`
	Garment         core.GarmentTemplate `json:"garment"`
	Color           core.GarmentColor    `json:"color"`
	Fabrics         []core.Fabric        `json:"fabrics"`
	Garments        []core.GarmentTemplate `json:"garments"`
	Selected        *core.Element        `json:"selected,omitempty"`
	ElementCount    int                  `json:"elementCount"`
	FontFamilies    []string             `json:"fontFamilies"`
	OriginalLogoURL string               `json:"originalLogoUrl,omitempty"`
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.engine.Selected()
	if sel != nil && sel.Image != nil {
		sel.Image.Data = nil // keep the inspector payload light
	}
	return State{
		ID:              s.ID,
		Phase:           s.phase,
		ActiveView:      s.views.Active(),
		Garment:         s.views.Garment(),
		Color:           s.views.Color(),
		Fabrics:         s.fabrics,
		Garments:        s.garments,
		Selected:        sel,
		ElementCount:    len(s.engine.Serialize().Elements),
		FontFamilies:    s.deps.Fonts.Families(),
		OriginalLogoURL: s.originalLogoURL,
	}
}

// Resize re-initializes the drawing surface in place. Safe to call on every
// client layout change; element state survives.
func (s *Session) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Initialize(width, height)
}

// AddText places a text element and auto-selects it.
func (s *Session) AddText(content string) (*core.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return nil, err
	}
	return s.engine.AddElement(engine.TextElement(content))
}

// AddShape places one of the palette shapes and auto-selects it.
func (s *Session) AddShape(name string) (*core.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return nil, err
	}
	el, err := engine.ShapeElement(name)
	if err != nil {
		return nil, err
	}
	return s.engine.AddElement(el)
}

// UploadLogo decodes an uploaded bitmap onto the canvas. The first upload is
// also stored at full resolution and kept for production use.
func (s *Session) UploadLogo(ctx context.Context, data []byte) (*core.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return nil, err
	}
	el, err := s.engine.AddRasterImage(data)
	if err != nil {
		return nil, err
	}
	if s.originalLogoURL == "" && s.deps.Images != nil {
		name := "logo-" + ulid.Make().String()
		if err := s.deps.Images.PutImage(ctx, name, data); err != nil {
			logrus.WithError(err).Warn("failed to store original logo")
		} else {
			s.originalLogoURL = "/images/" + name
		}
	}
	return el, nil
}

func (s *Session) Select(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SelectMany(ids)
}

func (s *Session) RemoveSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.RemoveSelected()
}

func (s *Session) SetSelectedFill(hex string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.SetSelectedFill(hex)
}

func (s *Session) SetSelectedFontFamily(family string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.SetSelectedFontFamily(family)
}

func (s *Session) SwitchView(view core.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	return s.views.SwitchTo(view)
}

func (s *Session) SwitchColor(colorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	return s.views.SwitchColor(colorID)
}

// SwitchGarment discards the whole design; see viewstate.Store.SwitchGarment
// for the reset policy.
func (s *Session) SwitchGarment(garmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	for _, g := range s.garments {
		if g.ID == garmentID {
			return s.views.SwitchGarment(g)
		}
	}
	return fmt.Errorf("garment %s not found in catalogue", garmentID)
}

// ClipartSearch queries the icon service. Each search takes this session's
// next request token; a response that is no longer the session's newest
// search when it arrives is discarded, not returned.
func (s *Session) ClipartSearch(ctx context.Context, query string, limit int) (*clipart.SearchResult, error) {
	token := s.searchSeq.Add(1)
	res, err := s.deps.Clipart.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if token != s.searchSeq.Load() {
		return nil, ErrStaleSearch
	}
	res.Token = token
	return res, nil
}

// ClipartImport fetches an icon and inserts it as a composite group. The
// fetch happens outside the session lock; the active view is re-validated
// afterwards so a view switch during the fetch cannot land the icon on the
// wrong surface.
func (s *Session) ClipartImport(ctx context.Context, identifier string) (*core.Element, error) {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	before := s.views.Active()
	s.mu.Unlock()

	props, err := s.deps.Clipart.FetchIcon(ctx, identifier)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.views.Active() != before {
		return nil, fmt.Errorf("the active view changed while importing the icon")
	}
	return s.engine.AddIcon(*props)
}

// Preview flattens the current visible surface (without any background) to
// PNG bytes.
func (s *Session) Preview() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engine.Initialized() {
		return nil, engine.ErrNotLaidOut
	}
	w, h := s.engine.Size()
	img, err := s.deps.Renderer.RenderDocument(s.engine.Serialize(), w, h)
	if err != nil {
		return nil, err
	}
	return compositor.EncodePNG(img)
}

// PreviewImage is Preview without the PNG encode, for in-process consumers.
func (s *Session) PreviewImage() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engine.Initialized() {
		return nil, engine.ErrNotLaidOut
	}
	w, h := s.engine.Size()
	return s.deps.Renderer.RenderDocument(s.engine.Serialize(), w, h)
}

// Submit drives Editing -> Submitting -> {Submitted | Editing}. Submitted is
// terminal; any failure returns the session to Editing with all design state
// intact. The draft is assembled under the session lock; the network call
// runs outside it, so State stays responsive and the submitting phase is
// observable while the request is in flight.
func (s *Session) Submit(ctx context.Context, form enquiry.Form) (*core.Enquiry, error) {
	s.mu.Lock()
	switch s.phase {
	case enquiry.PhaseSubmitted:
		s.mu.Unlock()
		return nil, fmt.Errorf("this design has already been submitted; start a new session")
	case enquiry.PhaseSubmitting:
		s.mu.Unlock()
		return nil, fmt.Errorf("a submission is already in progress")
	}
	draft, err := s.deps.Controller.Prepare(ctx, s.views, form, s.originalLogoURL)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.phase = enquiry.PhaseSubmitting
	s.mu.Unlock()

	result, err := s.deps.Controller.Send(ctx, draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.phase = enquiry.PhaseEditing
		return nil, err
	}
	s.phase = enquiry.PhaseSubmitted
	return result, nil
}

func (s *Session) editable() error {
	if s.phase != enquiry.PhaseEditing {
		return fmt.Errorf("session is %s and no longer editable", s.phase)
	}
	return nil
}

// Deps are the collaborators a session needs; the manager injects them.
type Deps struct {
	Catalog    catalog
	Images     core.ImageStore
	Clipart    *clipart.Bridge
	Renderer   *compositor.Renderer
	Controller *enquiry.Controller
	Fonts      *fonts.Catalog
}

// catalog mirrors catalog.Source without importing it, keeping the studio
// package's dependency direction leaf-ward.
type catalog interface {
	Fabrics(ctx context.Context) ([]core.Fabric, error)
	Garments(ctx context.Context) ([]core.GarmentTemplate, error)
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     Deps
}

func NewManager(deps Deps) *Manager {
	return &Manager{sessions: make(map[string]*Session), deps: deps}
}

// Create fetches the asset catalogue and opens a session on the first
// customizable garment's first color. A zero surface size leaves the engine
// un-laid-out until the client reports its measurements via Resize.
func (m *Manager) Create(ctx context.Context, width, height int) (*Session, error) {
	fabrics, err := m.deps.Catalog.Fabrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fabrics: %w", err)
	}
	garments, err := m.deps.Catalog.Garments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load garments: %w", err)
	}
	if len(garments) == 0 {
		return nil, errors.New("no customizable garments available")
	}

	eng := engine.New(fonts.DefaultFamily)
	if width > 0 && height > 0 {
		if err := eng.Initialize(width, height); err != nil {
			return nil, err
		}
	}

	sess := &Session{
		ID:       ulid.Make().String(),
		engine:   eng,
		views:    viewstate.New(eng, garments[0], garments[0].Colors[0]),
		phase:    enquiry.PhaseEditing,
		created:  time.Now(),
		fabrics:  fabrics,
		garments: garments,
		deps:     m.deps,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"garments":   len(garments),
		"fabrics":    len(fabrics),
	}).Info("editor session created")
	return sess, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}
