// Package images serves stored bitmaps (uploaded logos and flattened design
// composites) back to clients.
package images

import (
	"net/http"

	"garment-studio/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

func HandleGet(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		data, err := store.GetImage(r.Context(), name)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "image": name}).Warn("Failed to get image")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Image not found"})
			return
		}
		w.Header().Set("Content-Type", http.DetectContentType(data))
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write(data)
	}
}
