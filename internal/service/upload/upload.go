// Package upload reads multipart file parts and checks them against a
// staging policy using the sniffed content type.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"insurance-service/internal/metrics"
	"insurance-service/internal/onboarding"
	xerrors "insurance-service/internal/pkg/errors"

	"github.com/gabriel-vasile/mimetype"
)

// File is an accepted upload held in memory.
type File struct {
	Field string
	Name  string
	MIME  string
	Data  []byte
}

func (f *File) Size() int64 { return int64(len(f.Data)) }

// Read loads fh and applies policy. The declared Content-Type header is
// ignored; the type is detected from the bytes. scope labels rejections.
func Read(fh *multipart.FileHeader, field string, policy onboarding.StagePolicy, scope string) (*File, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, policy.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}

	mime := Sniff(data)
	size := fh.Size
	if int64(len(data)) > size {
		size = int64(len(data))
	}
	if err := policy.Check(fh.Filename, mime, size); err != nil {
		metrics.UploadsRejected.WithLabelValues(scope, reason(err)).Inc()
		return nil, err
	}

	return &File{Field: field, Name: fh.Filename, MIME: mime, Data: data}, nil
}

// Sniff returns the detected media type without parameters.
func Sniff(data []byte) string {
	m := mimetype.Detect(data).String()
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.TrimSpace(m)
}

func reason(err error) string {
	switch {
	case xerrors.Is(err, xerrors.ErrFileTooLarge):
		return "too_large"
	case xerrors.Is(err, xerrors.ErrUnsupportedFileType):
		return "unsupported_type"
	default:
		return "other"
	}
}
