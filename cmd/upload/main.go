package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dvloznov/fincrime-screener/internal/gcsio"
	"github.com/dvloznov/fincrime-screener/internal/logger"
)

func main() {
	log := logger.New()

	var (
		bucketName string
		objectName string
		filePath   string
	)

	flag.StringVar(&bucketName, "bucket", "", "GCS bucket name (required)")
	flag.StringVar(&objectName, "object", "", "GCS object name (optional; defaults to file name)")
	flag.StringVar(&filePath, "file", "", "Path to local batch CSV (required)")
	flag.Parse()

	if bucketName == "" || filePath == "" {
		log.Fatal().Msg("Usage: upload -bucket BUCKET_NAME -file /path/to/batch.csv [-object OBJECT_NAME]")
	}

	if objectName == "" {
		objectName = filepath.Base(filePath)
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Reading file failed")
	}

	uri := fmt.Sprintf("gs://%s/%s", bucketName, objectName)

	log.Info().
		Str("uri", uri).
		Str("file", filePath).
		Msg("Uploading batch to GCS")

	if err := gcsio.Write(ctx, uri, data); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", filePath, uri)
}
