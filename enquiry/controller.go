// Package enquiry turns a finished design into a quote request: it flattens
// each available view, assembles the submission payload and posts it to the
// enquiry intake endpoint.
package enquiry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"garment-studio/compositor"
	"garment-studio/core"

	"github.com/sirupsen/logrus"
)

// Phase is the submission state of an editor session. Submitted is terminal:
// a fresh session is required to create another design.
type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseSubmitting Phase = "submitting"
	PhaseSubmitted  Phase = "submitted"
)

// ValidationError is the consolidated client-side precondition failure. It
// is raised before any network request is made.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "please complete the enquiry form: " + strings.Join(e.Problems, "; ")
}

// ServerValidationError carries structured field errors from the intake
// endpoint so each can be surfaced next to its field.
type ServerValidationError struct {
	Details []core.FieldError
}

func (e *ServerValidationError) Error() string {
	msgs := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		msgs = append(msgs, d.Path+": "+d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Form is the order metadata entered alongside the design.
type Form struct {
	FabricID      string `json:"fabricId"`
	PrintType     string `json:"printType"`
	Quantity      int    `json:"quantity"`
	SizeRange     string `json:"sizeRange"`
	PhoneNumber   string `json:"phoneNumber"`
	Email         string `json:"email,omitempty"`
	CompanyName   string `json:"companyName,omitempty"`
	ContactPerson string `json:"contactPerson,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// Validate checks the submission preconditions and reports every violation
// in one consolidated error.
func (f *Form) Validate() error {
	var problems []string
	if f.FabricID == "" {
		problems = append(problems, "select a fabric")
	}
	if f.PrintType == "" {
		problems = append(problems, "select a print method")
	}
	if f.Quantity <= 0 {
		problems = append(problems, "quantity must be a positive number")
	}
	if strings.TrimSpace(f.PhoneNumber) == "" {
		problems = append(problems, "enter a phone number")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Design is the slice of the editor state the controller reads at
// submission time.
type Design interface {
	Flush()
	Document(view core.View) *core.CanvasDocument
	Documents() map[core.View]*core.CanvasDocument
	Color() core.GarmentColor
}

type Controller struct {
	renderer *compositor.Renderer
	endpoint string
	client   *http.Client

	exportWidth  int
	exportHeight int
}

func NewController(renderer *compositor.Renderer, endpoint string, client *http.Client) *Controller {
	if client == nil {
		client = http.DefaultClient
	}
	return &Controller{
		renderer:     renderer,
		endpoint:     endpoint,
		client:       client,
		exportWidth:  900,
		exportHeight: 900,
	}
}

// Submit runs the whole submission pipeline, Prepare followed by Send. On
// failure the in-memory design state is untouched, so the user can retry
// without redoing work.
func (c *Controller) Submit(ctx context.Context, design Design, form Form, originalLogoURL string) (*core.Enquiry, error) {
	draft, err := c.Prepare(ctx, design, form, originalLogoURL)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, draft)
}

// Prepare is the pre-network half: validate the form, flush the active view
// so just-edited work is included, composite every view that has both a
// document and a background, and assemble the draft. The returned draft is
// self-contained; the design may keep changing while it is being sent.
func (c *Controller) Prepare(ctx context.Context, design Design, form Form, originalLogoURL string) (*core.EnquiryDraft, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	design.Flush()

	composites := make(map[core.View]string, len(core.Views))
	color := design.Color()
	for _, view := range core.Views {
		doc := design.Document(view)
		background := color.ImageURL(view)
		if doc == nil || background == "" {
			continue
		}
		img, err := c.renderer.Composite(ctx, doc, background, c.exportWidth, c.exportHeight)
		if err != nil {
			return nil, fmt.Errorf("composite %s view: %w", view, err)
		}
		uri, err := compositor.DataURI(img)
		if err != nil {
			return nil, err
		}
		composites[view] = uri
	}
	if composites[core.ViewFront] == "" {
		return nil, &ValidationError{Problems: []string{"the front view has no design to submit"}}
	}

	designJSON, err := json.Marshal(design.Documents())
	if err != nil {
		return nil, err
	}

	draft := core.EnquiryDraft{
		DesignImageURL:     composites[core.ViewFront],
		BackDesignImageURL: composites[core.ViewBack],
		SideDesignImageURL: composites[core.ViewSide],
		OriginalLogoURL:    originalLogoURL,
		DesignJSON:         designJSON,
		FabricID:           form.FabricID,
		PrintType:          form.PrintType,
		Quantity:           form.Quantity,
		SizeRange:          form.SizeRange,
		PhoneNumber:        form.PhoneNumber,
		Email:              form.Email,
		CompanyName:        form.CompanyName,
		ContactPerson:      form.ContactPerson,
		Notes:              form.Notes,
	}
	return &draft, nil
}

// Send posts a prepared draft to the intake endpoint and decodes the
// response, surfacing structured field errors when the endpoint returns
// them.
func (c *Controller) Send(ctx context.Context, draft *core.EnquiryDraft) (*core.Enquiry, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit enquiry: %w", err)
	}
	defer resp.Body.Close()

	var er core.EnquiryResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("submit enquiry: unexpected response (status %d)", resp.StatusCode)
	}
	if !er.Success {
		if len(er.Details) > 0 {
			return nil, &ServerValidationError{Details: er.Details}
		}
		if er.Error != "" {
			return nil, fmt.Errorf("submit enquiry: %s", er.Error)
		}
		return nil, fmt.Errorf("submit enquiry: request failed (status %d)", resp.StatusCode)
	}

	logrus.WithField("status", resp.StatusCode).Info("enquiry submitted")
	return er.Data, nil
}
