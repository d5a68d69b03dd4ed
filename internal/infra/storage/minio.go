package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/medassist/internal/domain/assessment"
)

type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// ArchiveReport writes the report as JSON and returns its object URL.
func (s *Store) ArchiveReport(ctx context.Context, r *assessment.Report) (string, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	key := ObjectKey(r)
	_, err = s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
		UserMetadata: map[string]string{
			"hospital-id": r.HospitalID,
			"risk-level":  string(r.RiskLevel),
		},
	})
	if err != nil {
		return "", fmt.Errorf("archive report %s: %w", r.ID, err)
	}
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucketName, key), nil
}

// ObjectKey is reports/<hospital>/<id>.json.
func ObjectKey(r *assessment.Report) string {
	return path.Join("reports", r.HospitalID, r.ID+".json")
}
