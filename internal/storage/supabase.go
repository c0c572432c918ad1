package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	supastorage "github.com/supabase-community/storage-go"
)

// Supabase stores assets in a Supabase Storage bucket.
type Supabase struct {
	bucket  string
	baseURL string

	upload   func(path string, data []byte, contentType string) error
	download func(path string) ([]byte, error)
	remove   func(path string) error
}

// NewSupabase returns a store backed by bucket on the Supabase project at
// supabaseURL, authenticated with a service role key.
func NewSupabase(supabaseURL, serviceKey, bucket string) *Supabase {
	baseURL := strings.TrimRight(supabaseURL, "/")
	client := supastorage.NewClient(baseURL+"/storage/v1", serviceKey, nil)

	return &Supabase{
		bucket:  bucket,
		baseURL: baseURL,
		upload: func(path string, data []byte, contentType string) error {
			upsert := false
			_, err := client.UploadFile(bucket, path, bytes.NewReader(data), supastorage.FileOptions{
				ContentType: &contentType,
				Upsert:      &upsert,
			})
			return err
		},
		download: func(path string) ([]byte, error) {
			return client.DownloadFile(bucket, path)
		},
		remove: func(path string) error {
			_, err := client.RemoveFile(bucket, []string{path})
			return err
		},
	}
}

func (s *Supabase) Put(ctx context.Context, prefix string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := NewKey(prefix, contentType)
	if err := s.upload(key, data, contentType); err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return key, nil
}

func (s *Supabase) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	data, err := s.download(k)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return data, nil
}

// Copy downloads src and uploads the bytes under a new key.
func (s *Supabase) Copy(ctx context.Context, src, dstPrefix string) (string, error) {
	data, err := s.Get(ctx, src)
	if err != nil {
		return "", err
	}
	ct, err := DetectImage(data)
	if err != nil {
		ct = "application/octet-stream"
	}
	key := copyKey(src, dstPrefix)
	if err := s.upload(key, data, ct); err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return key, nil
}

func (s *Supabase) Delete(_ context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	return s.remove(k)
}

func (s *Supabase) URL(key string) string {
	if key == "" {
		return ""
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, strings.TrimPrefix(key, "/"))
}
