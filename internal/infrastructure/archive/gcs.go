// Package archive keeps a JSON copy of every saved report in object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"cloud.google.com/go/storage"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
)

type GCSArchiver struct {
	client *storage.Client
	bucket string
}

func NewGCSArchiver(client *storage.Client, bucket string) *GCSArchiver {
	return &GCSArchiver{client: client, bucket: bucket}
}

// ObjectPath lays reports out per owner and month.
func ObjectPath(r *entity.RadarReport) string {
	return path.Join("reports", r.UserID, r.CreatedAt.UTC().Format("2006-01"), r.ID+".json")
}

func (a *GCSArchiver) Archive(ctx context.Context, r *entity.RadarReport) (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report %s: %w", r.ID, err)
	}
	return helpers.UploadObject(ctx, a.client, a.bucket, ObjectPath(r), "application/json", bytes.NewReader(b))
}
