package enquiry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"garment-studio/compositor"
	"garment-studio/core"
	"garment-studio/fonts"
)

type fakeFetcher struct{}

func (fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fakeDesign is a static Design: pre-frozen documents plus a flush counter.
type fakeDesign struct {
	docs    map[core.View]*core.CanvasDocument
	color   core.GarmentColor
	flushed int
}

func (d *fakeDesign) Flush() { d.flushed++ }

func (d *fakeDesign) Document(view core.View) *core.CanvasDocument {
	return d.docs[view].Clone()
}

func (d *fakeDesign) Documents() map[core.View]*core.CanvasDocument {
	out := make(map[core.View]*core.CanvasDocument, len(d.docs))
	for v, doc := range d.docs {
		out[v] = doc.Clone()
	}
	return out
}

func (d *fakeDesign) Color() core.GarmentColor { return d.color }

func textDoc(content string) *core.CanvasDocument {
	return &core.CanvasDocument{Elements: []core.Element{{
		ID:       "t1",
		Kind:     core.KindText,
		Geometry: core.Geometry{X: 10, Y: 10, ScaleX: 1, ScaleY: 1},
		Text:     &core.TextProps{Content: content, FontFamily: "Go Regular", FontSize: 20, Fill: "#000"},
	}}}
}

func newTestController(t *testing.T, endpoint string, client *http.Client) *Controller {
	t.Helper()
	catalog, err := fonts.Default()
	if err != nil {
		t.Fatalf("Failed to load fonts: %v", err)
	}
	return NewController(compositor.NewRenderer(catalog, fakeFetcher{}), endpoint, client)
}

func validForm() Form {
	return Form{
		FabricID:    "cotton",
		PrintType:   "screen",
		Quantity:    50,
		PhoneNumber: "+49 30 1234567",
	}
}

func TestSubmit_InvalidFormMakesNoRequest(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	c := newTestController(t, srv.URL, srv.Client())
	design := &fakeDesign{
		docs:  map[core.View]*core.CanvasDocument{core.ViewFront: textDoc("hi")},
		color: core.GarmentColor{ID: "white", FrontImageURL: "http://cdn/f.png"},
	}

	_, err := c.Submit(context.Background(), design, Form{Quantity: 0}, "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Error mismatch: got %v, want ValidationError", err)
	}
	// Every violated precondition is reported at once.
	if len(verr.Problems) != 4 {
		t.Errorf("Problem count mismatch: got %d (%v), want 4", len(verr.Problems), verr.Problems)
	}
	if requests != 0 {
		t.Errorf("Invalid form reached the network: %d requests", requests)
	}
	if design.flushed != 0 {
		t.Error("Invalid form flushed the design")
	}
}

func TestSubmit_RequiresFrontComposite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Request made despite missing front view")
	}))
	defer srv.Close()

	c := newTestController(t, srv.URL, srv.Client())
	design := &fakeDesign{
		docs:  map[core.View]*core.CanvasDocument{core.ViewBack: textDoc("back only")},
		color: core.GarmentColor{ID: "white", FrontImageURL: "http://cdn/f.png", BackImageURL: "http://cdn/b.png"},
	}

	_, err := c.Submit(context.Background(), design, validForm(), "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Error mismatch: got %v, want ValidationError", err)
	}
}

func TestSubmit_Success(t *testing.T) {
	var posted core.EnquiryDraft
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
			t.Errorf("Failed to decode posted draft: %v", err)
		}
		json.NewEncoder(w).Encode(core.EnquiryResponse{
			Success: true,
			Data:    &core.Enquiry{ID: "enq-1", Status: core.EnquiryStatusNew},
		})
	}))
	defer srv.Close()

	c := newTestController(t, srv.URL, srv.Client())
	design := &fakeDesign{
		docs: map[core.View]*core.CanvasDocument{
			core.ViewFront: textDoc("front"),
			core.ViewBack:  textDoc("back"),
			core.ViewSide:  textDoc("side"),
		},
		// Side has a document but no mockup for this color; it must be
		// skipped rather than composited against nothing.
		color: core.GarmentColor{ID: "white", FrontImageURL: "http://cdn/f.png", BackImageURL: "http://cdn/b.png"},
	}

	result, err := c.Submit(context.Background(), design, validForm(), "/images/logo-1")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.ID != "enq-1" {
		t.Errorf("Result ID mismatch: got %q, want enq-1", result.ID)
	}
	if design.flushed != 1 {
		t.Errorf("Flush count mismatch: got %d, want 1", design.flushed)
	}

	if !strings.HasPrefix(posted.DesignImageURL, "data:image/png;base64,") {
		t.Errorf("Front composite is not a PNG data URI: %.40q", posted.DesignImageURL)
	}
	if !strings.HasPrefix(posted.BackDesignImageURL, "data:image/png;base64,") {
		t.Errorf("Back composite is not a PNG data URI: %.40q", posted.BackDesignImageURL)
	}
	if posted.SideDesignImageURL != "" {
		t.Error("Side composite produced without a background mockup")
	}
	if posted.OriginalLogoURL != "/images/logo-1" {
		t.Errorf("Original logo URL mismatch: got %q", posted.OriginalLogoURL)
	}
	if posted.Quantity != 50 || posted.FabricID != "cotton" {
		t.Errorf("Form fields not carried: %+v", posted)
	}

	var docs map[core.View]*core.CanvasDocument
	if err := json.Unmarshal(posted.DesignJSON, &docs); err != nil {
		t.Fatalf("DesignJSON is not a view document map: %v", err)
	}
	if len(docs) != 3 {
		t.Errorf("DesignJSON view count mismatch: got %d, want 3", len(docs))
	}
}

func TestSubmit_ServerFieldErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(core.EnquiryResponse{
			Success: false,
			Error:   "Validation failed",
			Details: []core.FieldError{{Path: "phoneNumber", Message: "phone number is invalid"}},
		})
	}))
	defer srv.Close()

	c := newTestController(t, srv.URL, srv.Client())
	design := &fakeDesign{
		docs:  map[core.View]*core.CanvasDocument{core.ViewFront: textDoc("hi")},
		color: core.GarmentColor{ID: "white", FrontImageURL: "http://cdn/f.png"},
	}

	_, err := c.Submit(context.Background(), design, validForm(), "")
	var serr *ServerValidationError
	if !errors.As(err, &serr) {
		t.Fatalf("Error mismatch: got %v, want ServerValidationError", err)
	}
	if len(serr.Details) != 1 || serr.Details[0].Path != "phoneNumber" {
		t.Errorf("Details mismatch: got %+v", serr.Details)
	}
}

func TestFormValidate_CollectsAllProblems(t *testing.T) {
	err := (&Form{PhoneNumber: "   "}).Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Error mismatch: got %v", err)
	}
	if len(verr.Problems) != 4 {
		t.Errorf("Problem count mismatch: got %d, want 4", len(verr.Problems))
	}

	if err := validFormPtr().Validate(); err != nil {
		t.Errorf("Valid form rejected: %v", err)
	}
}

func validFormPtr() *Form {
	f := validForm()
	return &f
}
