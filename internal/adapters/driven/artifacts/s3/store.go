// Package s3 stores raw document artifacts in S3-compatible object storage.
// It implements the same ArtifactStore contract as the filesystem store:
// identity-derived keys make writes idempotent, and S3's atomic object
// puts give the no-partial-write guarantee for free.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	fsstore "github.com/parcelworks/deedline/internal/adapters/driven/artifacts/fs"
	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ArtifactStore = (*Store)(nil)

// Client is the subset of the S3 API the store uses. Narrowed for testing.
type Client interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// Store is an object-storage artifact store.
type Store struct {
	client Client
	bucket string
	prefix string
}

// NewStore creates a store against a bucket using the default AWS
// credential chain. The prefix namespaces artifact keys within the bucket.
func NewStore(ctx context.Context, bucket, prefix string) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: s3 artifact store requires a bucket", domain.ErrInvalidConfig)
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return NewStoreWithClient(awss3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewStoreWithClient creates a store with an explicit client.
func NewStoreWithClient(client Client, bucket, prefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Put uploads the artifact's bytes under its identity-derived key.
func (s *Store) Put(ctx context.Context, artifact *domain.RawArtifact) (*domain.RawArtifact, error) {
	id := fsstore.ArtifactID(artifact.SourceID, artifact.IndexKey)
	key := s.keyFor(id)

	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(artifact.Content),
		ContentType: aws.String(artifact.ContentType),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading artifact %s: %w", id, err)
	}

	stored := *artifact
	stored.ID = id
	stored.StorageRef = "s3://" + s.bucket + "/" + key
	return &stored, nil
}

// Get downloads stored bytes by artifact id.
func (s *Store) Get(ctx context.Context, artifactID string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyFor(artifactID)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: artifact %q", domain.ErrNotFound, artifactID)
		}
		return nil, fmt.Errorf("downloading artifact %s: %w", artifactID, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", artifactID, err)
	}
	return content, nil
}

func (s *Store) keyFor(id string) string {
	if s.prefix == "" {
		return "artifacts/" + id
	}
	return s.prefix + "/artifacts/" + id
}
