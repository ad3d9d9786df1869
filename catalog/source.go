// Package catalog loads the selectable garments and fabric options the
// editor is initialized with.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"garment-studio/core"
)

// Source is the asset catalog contract the editor consumes. Garments with no
// color variants are unusable and never returned.
type Source interface {
	Fabrics(ctx context.Context) ([]core.Fabric, error)
	Garments(ctx context.Context) ([]core.GarmentTemplate, error)
}

// HTTPSource fetches the catalogue from a remote service.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *HTTPSource) Fabrics(ctx context.Context) ([]core.Fabric, error) {
	var fabrics []core.Fabric
	if err := s.getJSON(ctx, "/catalogue-fabrics", &fabrics); err != nil {
		return nil, err
	}
	return fabrics, nil
}

func (s *HTTPSource) Garments(ctx context.Context) ([]core.GarmentTemplate, error) {
	var garments []core.GarmentTemplate
	if err := s.getJSON(ctx, "/catalogue-items?isCustomizable=true", &garments); err != nil {
		return nil, err
	}
	return filterUsable(garments), nil
}

func (s *HTTPSource) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalogue fetch %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalogue fetch %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// StoreSource serves the catalogue straight from the local store, used when
// the studio and the catalogue back office run in one deployment.
type StoreSource struct {
	store core.CatalogStore
}

func NewStoreSource(store core.CatalogStore) *StoreSource {
	return &StoreSource{store: store}
}

func (s *StoreSource) Fabrics(ctx context.Context) ([]core.Fabric, error) {
	return s.store.ListFabrics(ctx)
}

func (s *StoreSource) Garments(ctx context.Context) ([]core.GarmentTemplate, error) {
	garments, err := s.store.ListGarments(ctx)
	if err != nil {
		return nil, err
	}
	customizable := garments[:0:0]
	for _, g := range garments {
		if g.IsCustomizable {
			customizable = append(customizable, g)
		}
	}
	return filterUsable(customizable), nil
}

func filterUsable(garments []core.GarmentTemplate) []core.GarmentTemplate {
	usable := make([]core.GarmentTemplate, 0, len(garments))
	for _, g := range garments {
		if len(g.Colors) > 0 {
			usable = append(usable, g)
		}
	}
	return usable
}
