package files

import (
	"context"
	"io"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"
)

// b2Storage keeps uploads in a Backblaze B2 bucket.
type b2Storage struct {
	client *b2.Client
	bucket *b2.Bucket
}

var _ Storage = (*b2Storage)(nil)

func NewB2Storage(ctx context.Context, accountID, appKey, bucketName string) (Storage, error) {
	client, err := b2.NewClient(ctx, accountID, appKey)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, errors.Wrap(err, "getting b2 bucket")
	}
	return &b2Storage{client: client, bucket: bucket}, nil
}

func (s *b2Storage) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", errors.Wrap(err, "writing b2 object")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "closing b2 writer")
	}
	return key, nil
}

func (s *b2Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.bucket.Object(key).NewReader(ctx), nil
}

func (s *b2Storage) Delete(ctx context.Context, key string) error {
	return errors.Wrap(s.bucket.Object(key).Delete(ctx), "deleting b2 object")
}
