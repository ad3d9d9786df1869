// Package enquiries implements the design-enquiry intake endpoint the
// editor submits to, plus the back-office review routes.
package enquiries

import (
	"context"
	"encoding/json"
	"net/http"

	"garment-studio/compositor"
	"garment-studio/core"
	"garment-studio/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

func validateDraft(draft *core.EnquiryDraft) []core.FieldError {
	var details []core.FieldError
	if draft.DesignImageURL == "" {
		details = append(details, core.FieldError{Path: "designImageUrl", Message: "front design image is required"})
	}
	if draft.FabricID == "" {
		details = append(details, core.FieldError{Path: "fabricId", Message: "fabric is required"})
	}
	if draft.PrintType == "" {
		details = append(details, core.FieldError{Path: "printType", Message: "print type is required"})
	}
	if draft.Quantity <= 0 {
		details = append(details, core.FieldError{Path: "quantity", Message: "quantity must be a positive integer"})
	}
	if draft.PhoneNumber == "" {
		details = append(details, core.FieldError{Path: "phoneNumber", Message: "phone number is required"})
	}
	return details
}

// storeDataURI moves an inline data-URI image into the image store and
// returns its served URL. URLs that are not data URIs pass through verbatim.
func storeDataURI(ctx context.Context, images core.ImageStore, enquiryID, label, uri string) (string, error) {
	if uri == "" {
		return "", nil
	}
	data, err := compositor.ParseDataURI(uri)
	if err != nil {
		return uri, nil
	}
	name := "enquiry-" + enquiryID + "-" + label + ".png"
	if err := images.PutImage(ctx, name, data); err != nil {
		return "", err
	}
	return "/images/" + name, nil
}

func HandleCreate(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft core.EnquiryDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, core.EnquiryResponse{Success: false, Error: "Invalid JSON in request body"})
			return
		}
		defer r.Body.Close()

		if details := validateDraft(&draft); len(details) > 0 {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, core.EnquiryResponse{Success: false, Error: "Validation failed", Details: details})
			return
		}

		id := ulid.Make().String()
		log := logrus.WithField("enquiry_id", id)

		for _, img := range []struct {
			label string
			url   *string
		}{
			{"front", &draft.DesignImageURL},
			{"back", &draft.BackDesignImageURL},
			{"side", &draft.SideDesignImageURL},
		} {
			stored, err := storeDataURI(r.Context(), store, id, img.label, *img.url)
			if err != nil {
				log.WithError(err).Error("Failed to store design image")
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, core.EnquiryResponse{Success: false, Error: "Failed to store design images"})
				return
			}
			*img.url = stored
		}

		enquiry := &core.Enquiry{
			ID:           id,
			EnquiryDraft: draft,
			Status:       core.EnquiryStatusNew,
		}
		if err := store.CreateEnquiry(r.Context(), enquiry); err != nil {
			log.WithError(err).Error("Failed to create enquiry")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, core.EnquiryResponse{Success: false, Error: "Failed to save enquiry"})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, core.EnquiryResponse{Success: true, Data: enquiry})
	}
}

func HandleList(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enquiries, err := store.ListEnquiries(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to list enquiries")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list enquiries"})
			return
		}
		if enquiries == nil {
			enquiries = []*core.Enquiry{}
		}
		render.JSON(w, r, enquiries)
	}
}

func HandleGet(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		enquiry, err := store.GetEnquiry(r.Context(), id)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "enquiry_id": id}).Warn("Failed to get enquiry")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Enquiry not found"})
			return
		}
		render.JSON(w, r, enquiry)
	}
}

func HandleUpdateStatus(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var body struct {
			Status core.EnquiryStatus `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		if !body.Status.Valid() {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Unknown status"})
			return
		}

		if err := store.UpdateEnquiryStatus(r.Context(), id, body.Status); err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "enquiry_id": id}).Error("Failed to update enquiry status")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Enquiry not found"})
			return
		}
		render.JSON(w, r, map[string]string{"status": string(body.Status)})
	}
}
