// Package storage persists uploaded image assets. A Store addresses assets
// by key ("<prefix>/<uuid><ext>"); the database only ever holds keys.
//
// Two backends exist: Local (filesystem under a media root, served by the
// HTTP router) and Supabase (Supabase Storage bucket via storage-go).
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Key prefixes used by the booking flow.
const (
	PrefixArtUploads = "art_uploads"
	PrefixReferences = "references"
	PrefixArtworks   = "artworks"
)

var (
	// ErrNotImage is returned by DetectImage for non-image payloads.
	ErrNotImage = errors.New("not an image")
	// ErrInvalidKey is returned for keys that are empty or escape the store.
	ErrInvalidKey = errors.New("invalid asset key")
	// ErrNotFound is returned when a key has no stored object.
	ErrNotFound = errors.New("asset not found")
)

// Store is the asset store used by services.
type Store interface {
	// Put stores data under a new key below prefix and returns the key.
	Put(ctx context.Context, prefix string, data []byte, contentType string) (string, error)
	// Get returns the bytes stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Copy duplicates the bytes of src under a new key below dstPrefix.
	Copy(ctx context.Context, src, dstPrefix string) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL of key, or "" for an empty key.
	URL(key string) string
}

var allowedImages = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// DetectImage sniffs data and returns its MIME type when it is one of the
// accepted image formats.
func DetectImage(data []byte) (string, error) {
	m := mimetype.Detect(data)
	for _, t := range allowedImages {
		if m.Is(t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotImage, m.String())
}

// NewKey builds a fresh key below prefix with an extension matching
// contentType.
func NewKey(prefix, contentType string) string {
	ext := ""
	if m := mimetype.Lookup(contentType); m != nil {
		ext = m.Extension()
	}
	return path.Join(strings.Trim(prefix, "/"), uuid.NewString()+ext)
}

// copyKey builds a fresh key below dstPrefix keeping the extension of src.
func copyKey(src, dstPrefix string) string {
	return path.Join(strings.Trim(dstPrefix, "/"), uuid.NewString()+path.Ext(src))
}

// cleanKey rejects keys that are empty, absolute, or not in canonical form.
func cleanKey(key string) (string, error) {
	k := strings.TrimSpace(key)
	if k == "" || strings.HasPrefix(k, "/") || path.Clean("/" + k)[1:] != k {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return k, nil
}

// Options selects and configures a backend.
type Options struct {
	Backend     string // "local" or "supabase"
	MediaRoot   string
	MediaURL    string
	SupabaseURL string
	SupabaseKey string
	Bucket      string
}

// New builds the Store named by o.Backend.
func New(o Options) (Store, error) {
	switch o.Backend {
	case "", "local":
		return NewLocal(o.MediaRoot, o.MediaURL)
	case "supabase":
		if o.SupabaseURL == "" || o.SupabaseKey == "" || o.Bucket == "" {
			return nil, errors.New("supabase storage requires url, service key and bucket")
		}
		return NewSupabase(o.SupabaseURL, o.SupabaseKey, o.Bucket), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", o.Backend)
	}
}
