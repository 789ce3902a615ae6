// Package blob offloads inline screenshot payloads to Cloud Storage
// and hands back retrievable references.
package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	gcs "cloud.google.com/go/storage"
	fbstorage "firebase.google.com/go/v4/storage"
)

// InlineLimit is the size in bytes above which an inline screenshot is
// moved out of the document and into the bucket. Firestore documents
// top out at 1 MiB, so large images cannot stay inline.
const InlineLimit = 300 * 1024

// Store writes screenshots to the project bucket under
// {principal}/{tradeID}.
type Store struct {
	client *fbstorage.Client
	bucket string
}

func NewStore(client *fbstorage.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

func objectPath(principal, tradeID string) string {
	return fmt.Sprintf("%s/%s", principal, tradeID)
}

// Put uploads the image and returns its public object URL.
func (s *Store) Put(ctx context.Context, principal, tradeID string, data []byte, contentType string) (string, error) {
	bucket, err := s.client.Bucket(s.bucket)
	if err != nil {
		return "", fmt.Errorf("bucket %s: %w", s.bucket, err)
	}

	path := objectPath(principal, tradeID)
	w := bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("upload screenshot %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload screenshot %s: %w", path, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path), nil
}

// Delete removes the screenshot object for a trade. A missing object
// is not an error: most trades never had a screenshot offloaded.
func (s *Store) Delete(ctx context.Context, principal, tradeID string) error {
	bucket, err := s.client.Bucket(s.bucket)
	if err != nil {
		return fmt.Errorf("bucket %s: %w", s.bucket, err)
	}
	err = bucket.Object(objectPath(principal, tradeID)).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

// DecodeDataURL splits an RFC 2397 data URL ("data:image/png;base64,…")
// into its content type and payload. ok is false for anything that is
// not a base64 data URL, including plain https references.
func DecodeDataURL(s string) (contentType string, data []byte, ok bool) {
	const prefix = "data:"
	if !strings.HasPrefix(s, prefix) {
		return "", nil, false
	}
	meta, payload, found := strings.Cut(s[len(prefix):], ",")
	if !found || !strings.HasSuffix(meta, ";base64") {
		return "", nil, false
	}
	contentType = strings.TrimSuffix(meta, ";base64")
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return contentType, decoded, true
}
