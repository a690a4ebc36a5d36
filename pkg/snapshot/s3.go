package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Writer persists snapshots as JSON objects in an S3 bucket.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	writer := snapshot.NewS3Writer(s3.NewFromConfig(cfg), "my-bucket", "snapshots/")
type S3Writer struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Writer creates an S3-backed snapshot writer.
//
// Parameters:
//   - client: AWS S3 client from aws-sdk-go-v2
//   - bucket: S3 bucket name
//   - prefix: key prefix for snapshot objects (e.g., "snapshots/")
func NewS3Writer(client *s3.Client, bucket, prefix string) *S3Writer {
	return &S3Writer{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Write uploads the snapshot and returns its object key.
func (w *S3Writer) Write(ctx context.Context, snap *ProjectSnapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}

	key := w.prefix + filename(snap)
	_, err = w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"project-id":  snap.Project.ID,
			"exported-at": snap.ExportedAt.Format("2006-01-02T15:04:05Z"),
		},
	})
	if err != nil {
		return "", fmt.Errorf("snapshot: s3 upload failed: %w", err)
	}
	return key, nil
}
