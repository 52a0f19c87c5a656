package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const ContentTypeJSON = "application/json"

type UploadResult struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	ETag     string `json:"etag"`
}

// FileUploader stores season archives. Keys are slash separated object
// names; GetPublicURL returns "" when the store has no public endpoint.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}

// SeasonArchiveKey is the object key of a closed season's snapshot.
func SeasonArchiveKey(saveID uuid.UUID, seasonID int64) string {
	return fmt.Sprintf("saves/%s/seasons/%d.json", saveID, seasonID)
}
