package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/pixeldrift/imagehandler/internal/apperr"
)

// OSSStore implements Store against Aliyun OSS.
type OSSStore struct {
	client *oss.Client

	mu      sync.Mutex
	buckets map[string]*oss.Bucket
}

// NewOSSStore creates an OSS-backed store.
// Endpoint example: oss-cn-hangzhou.aliyuncs.com
func NewOSSStore(endpoint, accessKeyID, accessKeySecret string) (*OSSStore, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}
	return &OSSStore{client: client, buckets: make(map[string]*oss.Bucket)}, nil
}

// Get implements Store. OSS service errors keep their status, code and
// message; transport-level failures surface as status 500.
func (s *OSSStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	b, err := s.bucket(bucket)
	if err != nil {
		return nil, wrapOSSError(err)
	}

	objectKey := strings.TrimPrefix(key, "/")
	body, err := b.GetObject(objectKey)
	if err != nil {
		return nil, wrapOSSError(err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("reading object %s/%s: %w", bucket, objectKey, err), "StorageError")
	}
	return data, nil
}

func (s *OSSStore) bucket(name string) (*oss.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buckets[name]; ok {
		return b, nil
	}
	b, err := s.client.Bucket(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", name, err)
	}
	s.buckets[name] = b
	return b, nil
}

func wrapOSSError(err error) *apperr.Error {
	var svcErr oss.ServiceError
	if errors.As(err, &svcErr) {
		return apperr.New(svcErr.StatusCode, svcErr.Code, svcErr.Message)
	}
	return apperr.Wrap(err, "StorageError")
}
