// Package compose produces the images behind READY fits.
package compose

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/raushankrgupta/fitly-api/models"
)

const thumbnailSuffix = "_thumb"

// Request describes one synchronous composite.
type Request struct {
	FitID        string
	UserID       string
	Items        []models.ItemRef
	BodyAssetKey string
}

// Compositor renders a fit and returns the object key of the result.
type Compositor interface {
	Compose(ctx context.Context, req Request) (string, error)
}

// ObjectCopier copies one stored object to another key.
type ObjectCopier interface {
	CopyObject(ctx context.Context, srcKey, dstKey string) error
}

// Placeholder is the MVP compositor. It allocates the generated key and,
// when it has a copier and a body asset, stores the body asset under the
// generated key and its thumbnail key.
type Placeholder struct {
	Copier ObjectCopier
}

func (p Placeholder) Compose(ctx context.Context, req Request) (string, error) {
	if req.FitID == "" || req.UserID == "" {
		return "", fmt.Errorf("compose: fit id and user id are required")
	}
	if len(req.Items) == 0 {
		return "", fmt.Errorf("compose: fit %s has no items", req.FitID)
	}

	key := GeneratedKey(req.UserID, req.FitID)
	if p.Copier == nil || req.BodyAssetKey == "" {
		return key, nil
	}
	for _, dst := range []string{key, ThumbnailKey(key)} {
		if err := p.Copier.CopyObject(ctx, req.BodyAssetKey, dst); err != nil {
			return "", fmt.Errorf("compose: %w", err)
		}
	}
	return key, nil
}

// GeneratedKey is the object key of a fit's full-size image.
func GeneratedKey(userID, fitID string) string {
	return fmt.Sprintf("generated/%s/%s.jpg", userID, fitID)
}

// ThumbnailKey swaps the file suffix of imageKey for the thumbnail suffix:
// "a/b.jpg" becomes "a/b_thumb.jpg".
func ThumbnailKey(imageKey string) string {
	ext := path.Ext(imageKey)
	return strings.TrimSuffix(imageKey, ext) + thumbnailSuffix + ext
}
