package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/dmorgan81/fluxgen/internal/log"
)

type UploadParams struct {
	Name        string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type Uploader interface {
	Upload(context.Context, UploadParams) error
}

// FileUploader writes artifacts under Dir, creating parent directories as needed.
type FileUploader struct {
	Dir string
}

func (u *FileUploader) Upload(ctx context.Context, params UploadParams) error {
	name := filepath.Join(u.Dir, filepath.FromSlash(params.Name))
	log.FromContextOrDiscard(ctx).WithGroup("file").Info("writing", "file", name)
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return os.WriteFile(name, params.Data, 0o600)
}
