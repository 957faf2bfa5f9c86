package adminapi

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/herobanner/internal/validate"
)

// ReadFile loads an image from disk. At most one byte past the upload limit is
// read, which is enough for validation to reject an oversize file.
func ReadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, validate.MaxFileSize+1))
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := filepath.Base(path)
	return File{
		Name:        name,
		ContentType: validate.DetectContentType(name, data),
		Data:        data,
	}, nil
}
