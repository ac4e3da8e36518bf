// Package storage abstracts the object store that holds user-uploaded images.
package storage

import (
	"context"
	"io"
	"strings"
	"time"
)

// Namespaces under which images are stored. Setup and draft images share
// the setup namespace; avatars live under the avatar namespace.
const (
	SetupNamespace  = "setup/"
	AvatarNamespace = "avatar/"
)

// Object is one stored key with its metadata.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the minimal object-store surface the application needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// URLResolver maps between the public URLs stored in database rows and object keys.
type URLResolver struct {
	base string
}

// NewURLResolver returns a resolver for objects served under publicURL.
func NewURLResolver(publicURL string) URLResolver {
	return URLResolver{base: strings.TrimRight(publicURL, "/")}
}

// URLFor returns the public URL of key.
func (r URLResolver) URLFor(key string) string {
	if r.base == "" {
		return "/" + key
	}
	return r.base + "/" + key
}

// KeyFor returns the object key behind url. It reports false for URLs that
// do not point into the store, such as external item thumbnails.
func (r URLResolver) KeyFor(url string) (string, bool) {
	prefix := r.base + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if key == "" {
		return "", false
	}
	return key, true
}

// NamespaceOf returns the namespace key belongs to, or "" if none.
func NamespaceOf(key string) string {
	switch {
	case strings.HasPrefix(key, SetupNamespace):
		return SetupNamespace
	case strings.HasPrefix(key, AvatarNamespace):
		return AvatarNamespace
	}
	return ""
}
