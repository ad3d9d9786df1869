package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"garment-studio/core"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS enquiries (
			id TEXT PRIMARY KEY,
			fabric_id TEXT NOT NULL,
			print_type TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			size_range TEXT,
			phone_number TEXT NOT NULL,
			email TEXT,
			company_name TEXT,
			contact_person TEXT,
			notes TEXT,
			design_image_url TEXT NOT NULL,
			back_design_image_url TEXT,
			side_design_image_url TEXT,
			original_logo_url TEXT,
			design_json BLOB,
			status TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS images (name TEXT PRIMARY KEY, data BLOB);`,
		`CREATE TABLE IF NOT EXISTS fabrics (id TEXT PRIMARY KEY, name TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS garments (id TEXT PRIMARY KEY, data BLOB NOT NULL);`,
	}
	for _, stmt := range stmts {
		if _, err = db.Exec(stmt); err != nil {
			log.Fatalf("failed to initialize sqlite schema: %v", err)
		}
	}

	return &sqliteStore{db}
}

func (s *sqliteStore) CreateEnquiry(ctx context.Context, enquiry *core.Enquiry) error {
	now := time.Now()
	enquiry.CreatedAt = now
	enquiry.UpdatedAt = now

	log := logrus.WithFields(logrus.Fields{
		"enquiry_id": enquiry.ID,
		"quantity":   enquiry.Quantity,
	})
	_, err := s.db.ExecContext(ctx, `INSERT INTO enquiries
		(id, fabric_id, print_type, quantity, size_range, phone_number, email,
		 company_name, contact_person, notes, design_image_url,
		 back_design_image_url, side_design_image_url, original_logo_url,
		 design_json, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		enquiry.ID, enquiry.FabricID, enquiry.PrintType, enquiry.Quantity,
		enquiry.SizeRange, enquiry.PhoneNumber, enquiry.Email,
		enquiry.CompanyName, enquiry.ContactPerson, enquiry.Notes,
		enquiry.DesignImageURL, enquiry.BackDesignImageURL,
		enquiry.SideDesignImageURL, enquiry.OriginalLogoURL,
		[]byte(enquiry.DesignJSON), string(enquiry.Status),
		enquiry.CreatedAt, enquiry.UpdatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to create enquiry")
		return err
	}
	log.Info("Enquiry created")
	return nil
}

func (s *sqliteStore) ListEnquiries(ctx context.Context) ([]*core.Enquiry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, fabric_id, print_type,
		quantity, size_range, phone_number, email, company_name,
		contact_person, notes, design_image_url, back_design_image_url,
		side_design_image_url, original_logo_url, status, created_at,
		updated_at FROM enquiries ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enquiries []*core.Enquiry
	for rows.Next() {
		var e core.Enquiry
		var status string
		if err := rows.Scan(&e.ID, &e.FabricID, &e.PrintType, &e.Quantity,
			&e.SizeRange, &e.PhoneNumber, &e.Email, &e.CompanyName,
			&e.ContactPerson, &e.Notes, &e.DesignImageURL,
			&e.BackDesignImageURL, &e.SideDesignImageURL,
			&e.OriginalLogoURL, &status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Status = core.EnquiryStatus(status)
		enquiries = append(enquiries, &e)
	}
	return enquiries, rows.Err()
}

func (s *sqliteStore) GetEnquiry(ctx context.Context, id string) (*core.Enquiry, error) {
	var e core.Enquiry
	var status string
	var designJSON []byte
	err := s.db.QueryRowContext(ctx, `SELECT id, fabric_id, print_type,
		quantity, size_range, phone_number, email, company_name,
		contact_person, notes, design_image_url, back_design_image_url,
		side_design_image_url, original_logo_url, design_json, status,
		created_at, updated_at FROM enquiries WHERE id = ?`, id).
		Scan(&e.ID, &e.FabricID, &e.PrintType, &e.Quantity, &e.SizeRange,
			&e.PhoneNumber, &e.Email, &e.CompanyName, &e.ContactPerson,
			&e.Notes, &e.DesignImageURL, &e.BackDesignImageURL,
			&e.SideDesignImageURL, &e.OriginalLogoURL, &designJSON,
			&status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("enquiry with id %s not found", id)
		}
		return nil, err
	}
	e.DesignJSON = json.RawMessage(designJSON)
	e.Status = core.EnquiryStatus(status)
	return &e, nil
}

func (s *sqliteStore) UpdateEnquiryStatus(ctx context.Context, id string, status core.EnquiryStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE enquiries SET status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("enquiry with id %s not found", id)
	}
	return nil
}

func (s *sqliteStore) PutImage(ctx context.Context, name string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO images (name, data) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET data = excluded.data",
		name, data)
	return err
}

func (s *sqliteStore) GetImage(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM images WHERE name = ?", name).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("image %s not found", name)
		}
		return nil, err
	}
	return data, nil
}

func (s *sqliteStore) ListFabrics(ctx context.Context) ([]core.Fabric, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM fabrics ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fabrics []core.Fabric
	for rows.Next() {
		var f core.Fabric
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		fabrics = append(fabrics, f)
	}
	return fabrics, rows.Err()
}

func (s *sqliteStore) SaveFabric(ctx context.Context, fabric *core.Fabric) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO fabrics (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name = excluded.name",
		fabric.ID, fabric.Name)
	return err
}

func (s *sqliteStore) ListGarments(ctx context.Context) ([]core.GarmentTemplate, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT data FROM garments")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var garments []core.GarmentTemplate
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var g core.GarmentTemplate
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("unmarshal garment: %w", err)
		}
		garments = append(garments, g)
	}
	return garments, rows.Err()
}

func (s *sqliteStore) SaveGarment(ctx context.Context, garment *core.GarmentTemplate) error {
	data, err := json.Marshal(garment)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO garments (id, data) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET data = excluded.data",
		garment.ID, data)
	return err
}
