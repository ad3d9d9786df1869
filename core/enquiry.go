package core

import (
	"context"
	"encoding/json"
	"time"
)

type EnquiryStatus string

const (
	EnquiryStatusNew        EnquiryStatus = "NEW"
	EnquiryStatusInProgress EnquiryStatus = "IN_PROGRESS"
	EnquiryStatusQuoted     EnquiryStatus = "QUOTED"
	EnquiryStatusClosed     EnquiryStatus = "CLOSED"
)

func (s EnquiryStatus) Valid() bool {
	switch s {
	case EnquiryStatusNew, EnquiryStatusInProgress, EnquiryStatusQuoted, EnquiryStatusClosed:
		return true
	}
	return false
}

// EnquiryDraft is the submission payload assembled by the editor. The front
// composite is required; back and side are included only when that view has
// both a document and a background. OriginalLogoURL points at the first
// uploaded logo at full resolution, kept apart from the scaled canvas copy.
type EnquiryDraft struct {
	DesignImageURL     string          `json:"designImageUrl"`
	BackDesignImageURL string          `json:"backDesignImageUrl,omitempty"`
	SideDesignImageURL string          `json:"sideDesignImageUrl,omitempty"`
	OriginalLogoURL    string          `json:"originalLogoUrl,omitempty"`
	DesignJSON         json.RawMessage `json:"designJson,omitempty"`
	FabricID           string          `json:"fabricId"`
	PrintType          string          `json:"printType"`
	Quantity           int             `json:"quantity"`
	SizeRange          string          `json:"sizeRange"`
	PhoneNumber        string          `json:"phoneNumber"`
	Email              string          `json:"email,omitempty"`
	CompanyName        string          `json:"companyName,omitempty"`
	ContactPerson      string          `json:"contactPerson,omitempty"`
	Notes              string          `json:"notes,omitempty"`
}

// Enquiry is a persisted quote request; the server owns its lifecycle after
// submission.
type Enquiry struct {
	ID string `json:"id"`
	EnquiryDraft
	Status    EnquiryStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// FieldError is a structured, per-field validation failure as returned by the
// enquiry intake endpoint.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// EnquiryResponse is the wire shape of the intake endpoint's reply.
type EnquiryResponse struct {
	Success bool         `json:"success"`
	Data    *Enquiry     `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

type EnquiryStore interface {
	CreateEnquiry(ctx context.Context, enquiry *Enquiry) error

	// ListEnquiries returns enquiries without their DesignJSON payload to
	// keep the admin list view light.
	ListEnquiries(ctx context.Context) ([]*Enquiry, error)

	GetEnquiry(ctx context.Context, id string) (*Enquiry, error)
	UpdateEnquiryStatus(ctx context.Context, id string, status EnquiryStatus) error
}

// ImageStore holds rendered design composites and uploaded logos, keyed by a
// flat name and served back under /images/{name}.
type ImageStore interface {
	PutImage(ctx context.Context, name string, data []byte) error
	GetImage(ctx context.Context, name string) ([]byte, error)
}
