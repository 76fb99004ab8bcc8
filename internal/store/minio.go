package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultObjectName is the object the document is stored in.
const DefaultObjectName = "meal_data.json"

// MinioBackend stores the document as a JSON object in an S3 compatible
// bucket.
type MinioBackend struct {
	client *minio.Client
	bucket string
	object string
}

// MinioOptions configures NewMinioBackend.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string
	UseSSL    bool
}

// NewMinioBackend connects to the endpoint and creates the bucket if needed.
func NewMinioBackend(ctx context.Context, opts MinioOptions) (*MinioBackend, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
	}

	object := opts.Object
	if object == "" {
		object = DefaultObjectName
	}
	return &MinioBackend{client: client, bucket: opts.Bucket, object: object}, nil
}

func (m *MinioBackend) Load(ctx context.Context) (*Document, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, m.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", m.bucket, m.object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return NewDocument(), nil
		}
		return nil, fmt.Errorf("read object %s/%s: %w", m.bucket, m.object, err)
	}

	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", m.bucket, m.object, err)
	}
	return doc.normalize(), nil
}

func (m *MinioBackend) Save(ctx context.Context, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = m.client.PutObject(ctx, m.bucket, m.object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", m.bucket, m.object, err)
	}
	return nil
}
