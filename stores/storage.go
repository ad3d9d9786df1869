package stores

import (
	"os"

	"garment-studio/core"
	"garment-studio/stores/aws"
	"garment-studio/stores/filesystem"
	"garment-studio/stores/memory"
	"garment-studio/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// Store is a union interface over everything the service persists:
// submitted enquiries, rendered design images and the catalogue content
// managed by the back office.
type Store interface {
	core.EnquiryStore
	core.ImageStore
	core.CatalogStore
}

func GetStore() Store {
	storageType := os.Getenv("STORAGE_TYPE")
	var store Store

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data" // Default path
		}
		storageField["basePath"] = basePath
		store = filesystem.NewStore(basePath)
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "garment-studio.db" // Default filename
		}
		storageField["dataSourceName"] = dataSourceName
		store = sqlite.NewStore(dataSourceName)
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = bucketName
		store = aws.NewStore(bucketName)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
