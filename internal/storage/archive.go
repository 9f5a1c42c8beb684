package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ignite/gameplan-importer/internal/domain"
)

// ErrNotArchived is returned by Load when no archived copy exists.
var ErrNotArchived = errors.New("session not archived")

// S3API is the subset of the S3 client used by the archive.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Archiver keeps a copy of finished sessions after the live document expires.
type Archiver interface {
	Archive(ctx context.Context, s *domain.ImportSession) error
}

// S3Archive writes terminal sessions to sessions/<yyyy-mm-dd>/<id>.json.
type S3Archive struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Archive returns an archive writing under prefix in bucket.
func NewS3Archive(client S3API, bucket, prefix string) *S3Archive {
	if prefix == "" {
		prefix = "sessions"
	}
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a session.
func (a *S3Archive) Key(s *domain.ImportSession) string {
	return path.Join(a.prefix, s.CreatedAt.UTC().Format("2006-01-02"), s.SessionID+".json")
}

// Archive stores s as JSON. Only terminal sessions are archived.
func (a *S3Archive) Archive(ctx context.Context, s *domain.ImportSession) error {
	if !s.Status.IsTerminal() {
		return fmt.Errorf("archive session %s: status %s is not terminal", s.SessionID, s.Status)
	}
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	key := a.Key(s)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"status": string(s.Status), "template": s.Template},
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s/%s: %w", a.bucket, key, err)
	}
	return nil
}

// Load reads an archived session back by its object key.
func (a *S3Archive) Load(ctx context.Context, key string) (*domain.ImportSession, error) {
	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotArchived
		}
		return nil, fmt.Errorf("S3 GetObject %s/%s: %w", a.bucket, key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading S3 object body: %w", err)
	}
	var s domain.ImportSession
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("unmarshaling archived session: %w", err)
	}
	return &s, nil
}

var _ Archiver = (*S3Archive)(nil)
