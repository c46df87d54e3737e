package upload

import (
	"bytes"
	"mime/multipart"
	"testing"

	"insurance-service/internal/metrics"
	"insurance-service/internal/onboarding"
	xerrors "insurance-service/internal/pkg/errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("doc", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["doc"][0]
}

func TestReadSniffsContent(t *testing.T) {
	// The extension lies; the bytes are a PNG.
	f, err := Read(fileHeader(t, "scan.pdf", pngHeader), "government_id", onboarding.KYCPolicy, "customers")
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.MIME)
	assert.Equal(t, "government_id", f.Field)
	assert.Equal(t, int64(len(pngHeader)), f.Size())
}

func TestReadRejects(t *testing.T) {
	before := testutil.ToFloat64(metrics.UploadsRejected.WithLabelValues("customers", "unsupported_type"))
	_, err := Read(fileHeader(t, "notes.txt", []byte("plain text")), "income_proof", onboarding.KYCPolicy, "customers")
	assert.ErrorIs(t, err, xerrors.ErrUnsupportedFileType)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.UploadsRejected.WithLabelValues("customers", "unsupported_type")))

	small := onboarding.StagePolicy{MaxBytes: 4}
	_, err = Read(fileHeader(t, "big.bin", []byte("0123456789")), "documents", small, "claims")
	assert.ErrorIs(t, err, xerrors.ErrFileTooLarge)
}

func TestSniffStripsParameters(t *testing.T) {
	assert.Equal(t, "text/plain", Sniff([]byte("hello")))
	assert.Equal(t, "application/pdf", Sniff([]byte("%PDF-1.7\n")))
}
