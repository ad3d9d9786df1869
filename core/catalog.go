package core

import "context"

type Fabric struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GarmentColor is one selectable color variant with up to three background
// mockup photos. A view whose URL is empty is unavailable for this color.
type GarmentColor struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Hex           string `json:"hex"`
	FrontImageURL string `json:"frontImageUrl,omitempty"`
	BackImageURL  string `json:"backImageUrl,omitempty"`
	SideImageURL  string `json:"sideImageUrl,omitempty"`
}

// ImageURL returns the background mockup for a view, empty when unavailable.
func (c *GarmentColor) ImageURL(v View) string {
	switch v {
	case ViewFront:
		return c.FrontImageURL
	case ViewBack:
		return c.BackImageURL
	case ViewSide:
		return c.SideImageURL
	}
	return ""
}

// GarmentTemplate is immutable reference data fetched once per session.
type GarmentTemplate struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Colors         []GarmentColor `json:"colors"`
	FabricIDs      []string       `json:"availableFabricIds,omitempty"`
	IsCustomizable bool           `json:"isCustomizable"`
}

// CatalogStore persists the catalogue content managed by the back office.
type CatalogStore interface {
	ListFabrics(ctx context.Context) ([]Fabric, error)
	SaveFabric(ctx context.Context, fabric *Fabric) error
	ListGarments(ctx context.Context) ([]GarmentTemplate, error)
	SaveGarment(ctx context.Context, garment *GarmentTemplate) error
}
