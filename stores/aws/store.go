package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"sort"
	"time"

	"garment-studio/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type s3Store struct {
	s3Client *s3.Client
	bucket   string
}

// NewStore creates a new S3-based store.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &s3Store{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
	}
}

// objectKey joins a prefix with a name, rejecting names that look like paths.
func objectKey(prefix, name string) (string, error) {
	if path.Base(name) != name {
		return "", fmt.Errorf("invalid name: must not be a path")
	}
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid name: must not be empty or a dot directory")
	}
	return path.Join(prefix, name), nil
}

func (s *s3Store) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal object for %s: %v", key, err)
	}
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %v", key, err)
	}
	return nil
}

func (s *s3Store) getObject(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %v", key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

var errNotFound = errors.New("object not found")

func (s *s3Store) CreateEnquiry(ctx context.Context, enquiry *core.Enquiry) error {
	key, err := objectKey("enquiries", enquiry.ID)
	if err != nil {
		return err
	}
	now := time.Now()
	enquiry.CreatedAt = now
	enquiry.UpdatedAt = now
	return s.putJSON(ctx, key, enquiry)
}

func (s *s3Store) ListEnquiries(ctx context.Context) ([]*core.Enquiry, error) {
	output, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String("enquiries/"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list enquiries: %v", err)
	}

	enquiries := make([]*core.Enquiry, 0, len(output.Contents))
	for _, object := range output.Contents {
		data, err := s.getObject(ctx, *object.Key)
		if err != nil {
			log.Printf("warn: failed to get object %s: %v", *object.Key, err)
			continue
		}
		var e core.Enquiry
		if err := json.Unmarshal(data, &e); err != nil {
			log.Printf("warn: failed to unmarshal enquiry %s: %v", *object.Key, err)
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

func (s *s3Store) GetEnquiry(ctx context.Context, id string) (*core.Enquiry, error) {
	key, err := objectKey("enquiries", id)
	if err != nil {
		return nil, err
	}
	data, err := s.getObject(ctx, key)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("enquiry with id %s not found", id)
		}
		return nil, err
	}
	var e core.Enquiry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal enquiry data: %v", err)
	}
	return &e, nil
}

func (s *s3Store) UpdateEnquiryStatus(ctx context.Context, id string, status core.EnquiryStatus) error {
	e, err := s.GetEnquiry(ctx, id)
	if err != nil {
		return err
	}
	e.Status = status
	e.UpdatedAt = time.Now()

	key, err := objectKey("enquiries", id)
	if err != nil {
		return err
	}
	return s.putJSON(ctx, key, e)
}

func (s *s3Store) PutImage(ctx context.Context, name string, data []byte) error {
	key, err := objectKey("images", name)
	if err != nil {
		return err
	}
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload image %s: %v", name, err)
	}
	return nil
}

func (s *s3Store) GetImage(ctx context.Context, name string) ([]byte, error) {
	key, err := objectKey("images", name)
	if err != nil {
		return nil, err
	}
	data, err := s.getObject(ctx, key)
	if errors.Is(err, errNotFound) {
		return nil, fmt.Errorf("image %s not found", name)
	}
	return data, err
}

func (s *s3Store) ListFabrics(ctx context.Context) ([]core.Fabric, error) {
	data, err := s.getObject(ctx, "catalogue/fabrics")
	if err != nil {
		if errors.Is(err, errNotFound) {
			return []core.Fabric{}, nil
		}
		return nil, err
	}
	var fabrics []core.Fabric
	if err := json.Unmarshal(data, &fabrics); err != nil {
		return nil, err
	}
	return fabrics, nil
}

func (s *s3Store) SaveFabric(ctx context.Context, fabric *core.Fabric) error {
	fabrics, err := s.ListFabrics(ctx)
	if err != nil {
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
	return s.putJSON(ctx, "catalogue/fabrics", fabrics)
}

func (s *s3Store) ListGarments(ctx context.Context) ([]core.GarmentTemplate, error) {
	data, err := s.getObject(ctx, "catalogue/garments")
	if err != nil {
		if errors.Is(err, errNotFound) {
			return []core.GarmentTemplate{}, nil
		}
		return nil, err
	}
	var garments []core.GarmentTemplate
	if err := json.Unmarshal(data, &garments); err != nil {
		return nil, err
	}
	return garments, nil
}

func (s *s3Store) SaveGarment(ctx context.Context, garment *core.GarmentTemplate) error {
	garments, err := s.ListGarments(ctx)
	if err != nil {
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
	return s.putJSON(ctx, "catalogue/garments", garments)
}
