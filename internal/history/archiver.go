package history

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"

	"Mnemo/internal/models"
)

// Archiver moves attachment payloads into object storage.
type Archiver struct {
	client *minio.Client
	bucket string
}

// NewArchiver wraps an injected MinIO client.
func NewArchiver(client *minio.Client, bucket string) *Archiver {
	return &Archiver{client: client, bucket: bucket}
}

// Archive uploads the attachment payload and returns its object key. A
// missing MIME type is detected from the payload bytes.
func (a *Archiver) Archive(ctx context.Context, turnID string, att *models.Attachment) (string, error) {
	contentType := att.MIMEType
	if contentType == "" {
		contentType = mimetype.Detect(att.Data).String()
	}

	key := fmt.Sprintf("attachments/%s/%s", turnID, att.Name)
	_, err := a.client.PutObject(ctx, a.bucket, key,
		bytes.NewReader(att.Data), int64(len(att.Data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to archive attachment '%s': %w", att.Name, err)
	}
	return key, nil
}
