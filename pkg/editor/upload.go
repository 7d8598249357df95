package editor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FormatFIT names the FIT file format for uploaders.
const FormatFIT = "fit"

// Uploader hands an activity file to a destination such as a training
// platform.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader, format string) error
}

// DirUploader uploads by writing files into a local directory.
type DirUploader struct {
	Dir string
}

// Upload writes r to Dir/name.
func (u DirUploader) Upload(ctx context.Context, name string, r io.Reader, format string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if format != FormatFIT {
		return fmt.Errorf("unsupported upload format: %s", format)
	}
	if filepath.Base(name) != name {
		return fmt.Errorf("invalid upload name: %s", name)
	}
	if err := os.MkdirAll(u.Dir, 0750); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(u.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
