package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/pixeldrift/imagehandler/internal/apperr"
)

func TestMemStore_Get(t *testing.T) {
	s := NewMemStore()
	s.Put("assets", "logo.png", []byte{1, 2, 3})

	data, err := s.Get(context.Background(), "assets", "logo.png")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(data) != 3 || data[0] != 1 {
		t.Errorf("Get returned %v, want [1 2 3]", data)
	}
}

func TestMemStore_Get_Missing(t *testing.T) {
	s := NewMemStore()
	s.Put("assets", "logo.png", []byte{1})

	tests := []struct {
		name        string
		bucket, key string
	}{
		{"missing key", "assets", "other.png"},
		{"missing bucket", "nope", "logo.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Get(context.Background(), tt.bucket, tt.key)
			if err == nil {
				t.Fatal("Get should fail for missing object")
			}
			var ae *apperr.Error
			if !errors.As(err, &ae) {
				t.Fatalf("error is not an *apperr.Error: %v", err)
			}
			if ae.Status != 404 || ae.Code != "NoSuchKey" {
				t.Errorf("error = %+v, want status 404 code NoSuchKey", ae)
			}
		})
	}
}
