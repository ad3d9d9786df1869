package enquiries

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"garment-studio/core"

	"github.com/go-chi/chi/v5"
)

// mockStore implements the storage union with in-memory maps.
type mockStore struct {
	mu        sync.Mutex
	enquiries map[string]*core.Enquiry
	images    map[string][]byte
	createErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		enquiries: make(map[string]*core.Enquiry),
		images:    make(map[string][]byte),
	}
}

func (m *mockStore) CreateEnquiry(ctx context.Context, e *core.Enquiry) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	m.enquiries[e.ID] = e
	return nil
}

func (m *mockStore) ListEnquiries(ctx context.Context) ([]*core.Enquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*core.Enquiry, 0, len(m.enquiries))
	for _, e := range m.enquiries {
		copied := *e
		copied.DesignJSON = nil
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockStore) GetEnquiry(ctx context.Context, id string) (*core.Enquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enquiries[id]
	if !ok {
		return nil, fmt.Errorf("enquiry with id %s not found", id)
	}
	return e, nil
}

func (m *mockStore) UpdateEnquiryStatus(ctx context.Context, id string, status core.EnquiryStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enquiries[id]
	if !ok {
		return fmt.Errorf("enquiry with id %s not found", id)
	}
	e.Status = status
	return nil
}

func (m *mockStore) PutImage(ctx context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[name] = data
	return nil
}

func (m *mockStore) GetImage(ctx context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.images[name]
	if !ok {
		return nil, fmt.Errorf("image %s not found", name)
	}
	return data, nil
}

func (m *mockStore) ListFabrics(ctx context.Context) ([]core.Fabric, error)   { return nil, nil }
func (m *mockStore) SaveFabric(ctx context.Context, f *core.Fabric) error     { return nil }
func (m *mockStore) ListGarments(ctx context.Context) ([]core.GarmentTemplate, error) {
	return nil, nil
}
func (m *mockStore) SaveGarment(ctx context.Context, g *core.GarmentTemplate) error { return nil }

// tiny valid PNG so the data URI carries real bytes.
var pngFixture = []byte{
	0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a,
}

func dataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngFixture)
}

func validDraft() map[string]any {
	return map[string]any{
		"designImageUrl": dataURI(),
		"fabricId":       "cotton",
		"printType":      "screen",
		"quantity":       50,
		"phoneNumber":    "+49 30 1234567",
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/design-enquiries", strings.NewReader(string(data)))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleCreate_Success(t *testing.T) {
	store := newMockStore()
	rec := postJSON(t, HandleCreate(store), validDraft())

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status code mismatch: got %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp core.EnquiryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success || resp.Data == nil {
		t.Fatalf("Response mismatch: %+v", resp)
	}
	if resp.Data.Status != core.EnquiryStatusNew {
		t.Errorf("Status mismatch: got %s, want NEW", resp.Data.Status)
	}

	// The inline composite was moved into the image store and the URL
	// rewritten to its served location.
	if !strings.HasPrefix(resp.Data.DesignImageURL, "/images/") {
		t.Errorf("Design image URL not rewritten: %q", resp.Data.DesignImageURL)
	}
	if len(store.images) != 1 {
		t.Errorf("Stored image count mismatch: got %d, want 1", len(store.images))
	}
	if len(store.enquiries) != 1 {
		t.Errorf("Stored enquiry count mismatch: got %d, want 1", len(store.enquiries))
	}
}

func TestHandleCreate_ValidationDetails(t *testing.T) {
	store := newMockStore()
	rec := postJSON(t, HandleCreate(store), map[string]any{
		"quantity": 0,
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}

	var resp core.EnquiryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Success {
		t.Error("Validation failure reported success")
	}
	paths := make(map[string]bool)
	for _, d := range resp.Details {
		paths[d.Path] = true
	}
	for _, want := range []string{"designImageUrl", "fabricId", "printType", "quantity", "phoneNumber"} {
		if !paths[want] {
			t.Errorf("Missing field error for %s (got %v)", want, resp.Details)
		}
	}
	if len(store.enquiries) != 0 {
		t.Error("Invalid enquiry was persisted")
	}
}

func TestHandleCreate_InvalidJSON(t *testing.T) {
	store := newMockStore()
	req := httptest.NewRequest(http.MethodPost, "/api/design-enquiries", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	HandleCreate(store)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleCreate_ExternalURLPassesThrough(t *testing.T) {
	store := newMockStore()
	draft := validDraft()
	draft["designImageUrl"] = "https://cdn.example.com/render.png"
	rec := postJSON(t, HandleCreate(store), draft)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status code mismatch: got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp core.EnquiryResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Data.DesignImageURL != "https://cdn.example.com/render.png" {
		t.Errorf("External URL rewritten: %q", resp.Data.DesignImageURL)
	}
	if len(store.images) != 0 {
		t.Error("External URL triggered image storage")
	}
}

func TestHandleCreate_StoreError(t *testing.T) {
	store := newMockStore()
	store.createErr = fmt.Errorf("database error")
	rec := postJSON(t, HandleCreate(store), validDraft())

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestHandleList_StripsDesignJSON(t *testing.T) {
	store := newMockStore()
	store.enquiries["e1"] = &core.Enquiry{
		ID: "e1",
		EnquiryDraft: core.EnquiryDraft{
			DesignImageURL: "/images/x.png",
			DesignJSON:     json.RawMessage(`{"front":{}}`),
		},
		Status: core.EnquiryStatusNew,
	}

	req := httptest.NewRequest(http.MethodGet, "/api/design-enquiries", http.NoBody)
	rec := httptest.NewRecorder()
	HandleList(store)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d", rec.Code)
	}
	var list []*core.Enquiry
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List length mismatch: got %d", len(list))
	}
	if list[0].DesignJSON != nil {
		t.Error("List response carries the full design JSON")
	}
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleGet_NotFound(t *testing.T) {
	store := newMockStore()
	req := withID(httptest.NewRequest(http.MethodGet, "/api/design-enquiries/ghost", http.NoBody), "ghost")
	rec := httptest.NewRecorder()
	HandleGet(store)(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleUpdateStatus(t *testing.T) {
	store := newMockStore()
	store.enquiries["e1"] = &core.Enquiry{ID: "e1", Status: core.EnquiryStatusNew}

	req := withID(httptest.NewRequest(http.MethodPut, "/api/design-enquiries/e1/status",
		strings.NewReader(`{"status":"QUOTED"}`)), "e1")
	rec := httptest.NewRecorder()
	HandleUpdateStatus(store)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d (%s)", rec.Code, rec.Body.String())
	}
	if got := store.enquiries["e1"].Status; got != core.EnquiryStatusQuoted {
		t.Errorf("Status not updated: got %s", got)
	}
}

func TestHandleUpdateStatus_UnknownStatus(t *testing.T) {
	store := newMockStore()
	store.enquiries["e1"] = &core.Enquiry{ID: "e1", Status: core.EnquiryStatusNew}

	req := withID(httptest.NewRequest(http.MethodPut, "/api/design-enquiries/e1/status",
		strings.NewReader(`{"status":"SHIPPED"}`)), "e1")
	rec := httptest.NewRecorder()
	HandleUpdateStatus(store)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if got := store.enquiries["e1"].Status; got != core.EnquiryStatusNew {
		t.Errorf("Status changed by invalid update: %s", got)
	}
}
