package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"garment-studio/core"

	"github.com/sirupsen/logrus"
)

// memStore keeps enquiries, images and catalogue content in process memory.
// It is the default backend and the one the handler tests run against.
type memStore struct {
	mu        sync.RWMutex
	enquiries map[string]*core.Enquiry
	images    map[string][]byte
	fabrics   map[string]core.Fabric
	garments  map[string]core.GarmentTemplate
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{
		enquiries: make(map[string]*core.Enquiry),
		images:    make(map[string][]byte),
		fabrics:   make(map[string]core.Fabric),
		garments:  make(map[string]core.GarmentTemplate),
	}
}

func (s *memStore) CreateEnquiry(ctx context.Context, enquiry *core.Enquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if enquiry.ID == "" {
		return fmt.Errorf("enquiry ID cannot be empty")
	}
	now := time.Now()
	enquiry.CreatedAt = now
	enquiry.UpdatedAt = now
	copied := *enquiry
	s.enquiries[enquiry.ID] = &copied

	logrus.WithFields(logrus.Fields{
		"enquiry_id": enquiry.ID,
		"quantity":   enquiry.Quantity,
	}).Info("Enquiry created")
	return nil
}

func (s *memStore) ListEnquiries(ctx context.Context) ([]*core.Enquiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enquiries := make([]*core.Enquiry, 0, len(s.enquiries))
	for _, e := range s.enquiries {
		// Copy without the design JSON to keep the list view light.
		listed := *e
		listed.DesignJSON = nil
		enquiries = append(enquiries, &listed)
	}
	sort.Slice(enquiries, func(i, j int) bool {
		return enquiries[i].CreatedAt.After(enquiries[j].CreatedAt)
	})
	return enquiries, nil
}

func (s *memStore) GetEnquiry(ctx context.Context, id string) (*core.Enquiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.enquiries[id]
	if !ok {
		logrus.WithField("enquiry_id", id).Warn("Enquiry not found")
		return nil, fmt.Errorf("enquiry with id %s not found", id)
	}
	copied := *e
	return &copied, nil
}

func (s *memStore) UpdateEnquiryStatus(ctx context.Context, id string, status core.EnquiryStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.enquiries[id]
	if !ok {
		return fmt.Errorf("enquiry with id %s not found", id)
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	logrus.WithFields(logrus.Fields{"enquiry_id": id, "status": status}).Info("Enquiry status updated")
	return nil
}

func (s *memStore) PutImage(ctx context.Context, name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("image name cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[name] = append([]byte(nil), data...)
	return nil
}

func (s *memStore) GetImage(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.images[name]
	if !ok {
		return nil, fmt.Errorf("image %s not found", name)
	}
	return append([]byte(nil), data...), nil
}

func (s *memStore) ListFabrics(ctx context.Context) ([]core.Fabric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fabrics := make([]core.Fabric, 0, len(s.fabrics))
	for _, f := range s.fabrics {
		fabrics = append(fabrics, f)
	}
	sort.Slice(fabrics, func(i, j int) bool { return fabrics[i].Name < fabrics[j].Name })
	return fabrics, nil
}

func (s *memStore) SaveFabric(ctx context.Context, fabric *core.Fabric) error {
	if fabric.ID == "" {
		return fmt.Errorf("fabric ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fabrics[fabric.ID] = *fabric
	return nil
}

func (s *memStore) ListGarments(ctx context.Context) ([]core.GarmentTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	garments := make([]core.GarmentTemplate, 0, len(s.garments))
	for _, g := range s.garments {
		garments = append(garments, g)
	}
	sort.Slice(garments, func(i, j int) bool { return garments[i].Name < garments[j].Name })
	return garments, nil
}

func (s *memStore) SaveGarment(ctx context.Context, garment *core.GarmentTemplate) error {
	if garment.ID == "" {
		return fmt.Errorf("garment ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.garments[garment.ID] = *garment
	return nil
}
