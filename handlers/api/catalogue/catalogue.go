// Package catalogue serves the fabric and garment catalogue. Reads are
// public; writes are back-office routes behind the admin token.
package catalogue

import (
	"encoding/json"
	"net/http"

	"garment-studio/core"
	"garment-studio/stores"

	"github.com/go-chi/render"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

func HandleListFabrics(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fabrics, err := store.ListFabrics(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to list fabrics")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list fabrics"})
			return
		}
		render.JSON(w, r, fabrics)
	}
}

// HandleListGarments returns garments suitable for the editor. Passing
// isCustomizable=true keeps only garments the editor can open.
func HandleListGarments(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		garments, err := store.ListGarments(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to list garments")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list garments"})
			return
		}
		if r.URL.Query().Get("isCustomizable") == "true" {
			filtered := make([]core.GarmentTemplate, 0, len(garments))
			for _, g := range garments {
				if g.IsCustomizable && len(g.Colors) > 0 {
					filtered = append(filtered, g)
				}
			}
			garments = filtered
		}
		render.JSON(w, r, garments)
	}
}

func HandleSaveFabric(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fabric core.Fabric
		if err := json.NewDecoder(r.Body).Decode(&fabric); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		if fabric.ID == "" {
			fabric.ID = ulid.Make().String()
		}
		if err := store.SaveFabric(r.Context(), &fabric); err != nil {
			logrus.WithError(err).Error("Failed to save fabric")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to save fabric"})
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, fabric)
	}
}

func HandleSaveGarment(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var garment core.GarmentTemplate
		if err := json.NewDecoder(r.Body).Decode(&garment); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		if garment.ID == "" {
			garment.ID = ulid.Make().String()
		}
		if err := store.SaveGarment(r.Context(), &garment); err != nil {
			logrus.WithError(err).Error("Failed to save garment")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to save garment"})
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, garment)
	}
}
