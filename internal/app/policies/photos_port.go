package policies

import (
	"context"
	"io"
)

// PhotoStore keeps property images and returns a public URL.
type PhotoStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (publicURL string, err error)
}
