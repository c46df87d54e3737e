// Package storage keeps uploaded document blobs on disk or in S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Object describes a stored blob.
type Object struct {
	Key      string
	Size     int64
	Checksum string // hex sha256
}

// ObjectStore is implemented by LocalStore and S3Store.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (*Object, error)
	// Open returns the blob; the caller must close it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

const (
	ScopeCustomer = "customers"
	ScopeClaim    = "claims"
)

// CustomerKey builds customers/<reference>/<docType>/<uuid><ext>. The
// reference is known before the customer row exists.
func CustomerKey(reference, docType, filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s%s", ScopeCustomer, reference, docType, uuid.NewString(), ext(filename))
}

// ClaimKey builds claims/<id>/<uuid><ext>.
func ClaimKey(claimID int64, filename string) string {
	return fmt.Sprintf("%s/%d/%s%s", ScopeClaim, claimID, uuid.NewString(), ext(filename))
}

func ext(filename string) string {
	e := strings.ToLower(path.Ext(filename))
	if len(e) > 10 {
		return ""
	}
	return e
}
