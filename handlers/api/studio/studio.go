// Package studio exposes the editor session API: one session per customer
// designing a garment, addressed by session ID.
package studio

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"garment-studio/core"
	"garment-studio/engine"
	"garment-studio/enquiry"
	"garment-studio/studio"
	"garment-studio/viewstate"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// maxUploadBytes bounds logo uploads.
const maxUploadBytes = 8 << 20

func session(mgr *studio.Manager, w http.ResponseWriter, r *http.Request) (*studio.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := mgr.Get(id)
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "Session not found"})
		return nil, false
	}
	return sess, true
}

func renderOpError(w http.ResponseWriter, r *http.Request, err error) {
	var unavailable *viewstate.UnavailableViewError
	var invalid *enquiry.ValidationError
	var serverInvalid *enquiry.ServerValidationError
	switch {
	case errors.As(err, &unavailable):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, map[string]string{"error": err.Error()})
	case errors.Is(err, engine.ErrNotLaidOut):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, map[string]string{"error": "The canvas has not been laid out yet"})
	case errors.As(err, &invalid):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, map[string]any{"error": err.Error(), "problems": invalid.Problems})
	case errors.As(err, &serverInvalid):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, map[string]any{"error": err.Error(), "details": serverInvalid.Details})
	default:
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": err.Error()})
	}
}

func HandleCreateSession(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
				return
			}
		}

		sess, err := mgr.Create(r.Context(), body.Width, body.Height)
		if err != nil {
			logrus.WithError(err).Error("Failed to create editor session")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, sess.State())
	}
}

func HandleGetState(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session(mgr, w, r)
		if !ok {
			return
		}
		render.JSON(w, r, sess.State())
	}
}

func HandleResize(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session(mgr, w, r)
		if !ok {
			return
		}
		var body struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		if err := sess.Resize(body.Width, body.Height); err != nil {
			renderOpError(w, r, err)
			return
		}
		render.JSON(w, r, sess.State())
	}
}

// HandleAddElement places a new element on the active view. The body names
// either a text element with its content or one of the palette shapes.
func HandleAddElement(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session(mgr, w, r)
		if !ok {
			return
		}
		var body struct {
			Kind    string `json:"kind"`
			Content string `json:"content"`
			Shape   string `json:"shape"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}

		var el *core.Element
		var err error
		switch body.Kind {
		case "text":
			el, err = sess.AddText(body.Content)
		case "shape":
			el, err = sess.AddShape(body.Shape)
		default:
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Unknown element kind, expected text or shape"})
			return
		}
		if err != nil {
			renderOpError(w, r, err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, el)
	}
}

func HandleUploadLogo(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session(mgr, w, r)
		if !ok {
			return
		}
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
		if err != nil {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, map[string]string{"error": "Logo upload too large"})
			return
		}
		el, err := sess.UploadLogo(r.Context(), data)
		if err != nil {
			renderOpError(w, r, err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, el)
	}
}

func HandleSelect(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session(mgr, w, r)
		if !ok {
			return
		}
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		sess.Select(body.IDs)
		render.JSON(w, r, sess.State())
	}
}

// HandleUpdateSelection applies inspector edits to the selected element.
// Updates that do not apply to the selection (no selection, or a property the
// element kind lacks) are silent no-ops, mirroring the inspector behaviour.
func HandleUpdateSelection(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session(mgr, w, r)
		if !ok {
			return
		}
		var body struct {
			Fill       *string `json:"fill"`
			FontFamily *string `json:"fontFamily"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		if body.Fill != nil {
			sess.SetSelectedFill(*body.Fill)
		}
		if body.FontFamily != nil {
			sess.SetSelectedFontFamily(*body.FontFamily)
		}
		render.JSON(w, r, sess.State())
	}
}

func HandleDeleteSelection(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session(mgr, w, r)
		if !ok {
			return
		}
		removed := sess.RemoveSelected()
		render.JSON(w, r, map[string]bool{"removed": removed})
	}
}

func HandleSwitchView(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session(mgr, w, r)
		if !ok {
			return
		}
		var body struct {
			View core.View `json:"view"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		if err := sess.SwitchView(body.View); err != nil {
			renderOpError(w, r, err)
			return
		}
		render.JSON(w, r, sess.State())
	}
}

func HandleSwitchColor(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session(mgr, w, r)
		if !ok {
			return
		}
		var body struct {
			ColorID string `json:"colorId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		if err := sess.SwitchColor(body.ColorID); err != nil {
			renderOpError(w, r, err)
			return
		}
		render.JSON(w, r, sess.State())
	}
}

func HandleSwitchGarment(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session(mgr, w, r)
		if !ok {
			return
		}
		var body struct {
			GarmentID string `json:"garmentId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		if err := sess.SwitchGarment(body.GarmentID); err != nil {
			renderOpError(w, r, err)
			return
		}
		render.JSON(w, r, sess.State())
	}
}

func HandleClipartSearch(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session(mgr, w, r)
		if !ok {
			return
		}
		query := r.URL.Query().Get("query")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		res, err := sess.ClipartSearch(r.Context(), query, limit)
		if errors.Is(err, studio.ErrStaleSearch) {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}
		if err != nil {
			logrus.WithError(err).Warn("Clipart search failed")
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, map[string]string{"error": "Clipart search failed"})
			return
		}
		render.JSON(w, r, res)
	}
}

func HandleClipartImport(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session(mgr, w, r)
		if !ok {
			return
		}
		var body struct {
			Icon string `json:"icon"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		el, err := sess.ClipartImport(r.Context(), body.Icon)
		if err != nil {
			renderOpError(w, r, err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, el)
	}
}

// HandlePreview flattens the active surface to PNG.
func HandlePreview(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session(mgr, w, r)
		if !ok {
			return
		}
		png, err := sess.Preview()
		if err != nil {
			renderOpError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}
}

func HandleSubmit(mgr *studio.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session(mgr, w, r)
		if !ok {
			return
		}
		var form enquiry.Form
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		result, err := sess.Submit(r.Context(), form)
		if err != nil {
			renderOpError(w, r, err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, result)
	}
}
