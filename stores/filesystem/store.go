package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"garment-studio/core"

	"github.com/sirupsen/logrus"
)

// fsStore persists everything as flat files: one JSON file per enquiry, one
// raw file per image, and a single JSON file each for fabrics and garments.
type fsStore struct {
	basePath string

	// Serializes read-modify-write cycles on the catalogue list files.
	catalogMu sync.Mutex
}

// NewStore creates a new filesystem-based store.
func NewStore(basePath string) *fsStore {
	for _, dir := range []string{"enquiries", "images", "catalogue"} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			log.Fatalf("failed to create storage directory: %v", err)
		}
	}
	return &fsStore{basePath: basePath}
}

// safeName rejects names that would escape the storage directory.
func safeName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("invalid name: must not be empty or a dot directory")
	}
	if filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid name: must not be a path")
	}
	return nil
}

func (s *fsStore) CreateEnquiry(ctx context.Context, enquiry *core.Enquiry) error {
	if err := safeName(enquiry.ID); err != nil {
		return err
	}
	now := time.Now()
	enquiry.CreatedAt = now
	enquiry.UpdatedAt = now

	filePath := filepath.Join(s.basePath, "enquiries", enquiry.ID+".json")
	log := logrus.WithFields(logrus.Fields{"enquiry_id": enquiry.ID, "file_path": filePath})

	data, err := json.Marshal(enquiry)
	if err != nil {
		log.WithError(err).Error("Failed to marshal enquiry")
		return err
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write enquiry file")
		return err
	}
	log.Info("Enquiry created")
	return nil
}

func (s *fsStore) ListEnquiries(ctx context.Context) ([]*core.Enquiry, error) {
	dir := filepath.Join(s.basePath, "enquiries")
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*core.Enquiry{}, nil
		}
		return nil, err
	}

	enquiries := make([]*core.Enquiry, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			logrus.WithError(err).Warnf("Failed to read enquiry file %s, skipping", file.Name())
			continue
		}
		var e core.Enquiry
		if err := json.Unmarshal(data, &e); err != nil {
			logrus.WithError(err).Warnf("Failed to unmarshal enquiry file %s, skipping", file.Name())
			continue
		}
		e.DesignJSON = nil
		enquiries = append(enquiries, &e)
	}
	sort.Slice(enquiries, func(i, j int) bool {
		return enquiries[i].CreatedAt.After(enquiries[j].CreatedAt)
	})
	return enquiries, nil
}

func (s *fsStore) GetEnquiry(ctx context.Context, id string) (*core.Enquiry, error) {
	if err := safeName(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, "enquiries", id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("enquiry with id %s not found", id)
		}
		return nil, err
	}
	var e core.Enquiry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *fsStore) UpdateEnquiryStatus(ctx context.Context, id string, status core.EnquiryStatus) error {
	e, err := s.GetEnquiry(ctx, id)
	if err != nil {
		return err
	}
	e.Status = status
	e.UpdatedAt = time.Now()

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.basePath, "enquiries", id+".json"), data, 0644)
}

func (s *fsStore) PutImage(ctx context.Context, name string, data []byte) error {
	if err := safeName(name); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.basePath, "images", name), data, 0644)
}

func (s *fsStore) GetImage(ctx context.Context, name string) ([]byte, error) {
	if err := safeName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, "images", name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image %s not found", name)
		}
		return nil, err
	}
	return data, nil
}

func (s *fsStore) ListFabrics(ctx context.Context) ([]core.Fabric, error) {
	var fabrics []core.Fabric
	if err := s.readCatalogFile("fabrics.json", &fabrics); err != nil {
		return nil, err
	}
	if fabrics == nil {
		fabrics = []core.Fabric{}
	}
	return fabrics, nil
}

func (s *fsStore) SaveFabric(ctx context.Context, fabric *core.Fabric) error {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	var fabrics []core.Fabric
	if err := s.readCatalogFile("fabrics.json", &fabrics); err != nil {
		return err
	}
	replaced := false
	for i := range fabrics {
		if fabrics[i].ID == fabric.ID {
			fabrics[i] = *fabric
			replaced = true
			break
		}
	}
	if !replaced {
		fabrics = append(fabrics, *fabric)
	}
	return s.writeCatalogFile("fabrics.json", fabrics)
}

func (s *fsStore) ListGarments(ctx context.Context) ([]core.GarmentTemplate, error) {
	var garments []core.GarmentTemplate
	if err := s.readCatalogFile("garments.json", &garments); err != nil {
		return nil, err
	}
	if garments == nil {
		garments = []core.GarmentTemplate{}
	}
	return garments, nil
}

func (s *fsStore) SaveGarment(ctx context.Context, garment *core.GarmentTemplate) error {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	var garments []core.GarmentTemplate
	if err := s.readCatalogFile("garments.json", &garments); err != nil {
		return err
	}
	replaced := false
	for i := range garments {
		if garments[i].ID == garment.ID {
			garments[i] = *garment
			replaced = true
			break
		}
	}
	if !replaced {
		garments = append(garments, *garment)
	}
	return s.writeCatalogFile("garments.json", garments)
}

func (s *fsStore) readCatalogFile(name string, out any) error {
	data, err := os.ReadFile(filepath.Join(s.basePath, "catalogue", name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, out)
}

func (s *fsStore) writeCatalogFile(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.basePath, "catalogue", name), data, 0644)
}
