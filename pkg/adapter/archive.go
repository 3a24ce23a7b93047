package adapter

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

// Archive stores listing snapshots for downstream consumers such as static
// site builds. Snapshots are write-only from this side; consumers read the
// bucket directly.
type Archive interface {
	// Put returns a writer that stores the object under key when closed.
	Put(ctx context.Context, key string) (io.WriteCloser, error)
}

// archiveClient implements Archive using Cloud Storage.
type archiveClient struct {
	bucketName string
	client     *storage.Client
}

// NewArchive creates a Cloud Storage backed Archive.
func NewArchive(ctx context.Context, bucketName string) (Archive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &archiveClient{
		bucketName: bucketName,
		client:     client,
	}, nil
}

func (s *archiveClient) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	obj := s.client.Bucket(s.bucketName).Object(key)
	return obj.NewWriter(ctx), nil
}
