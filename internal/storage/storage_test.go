package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	xerrors "insurance-service/internal/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	k := CustomerKey("CUST-20260115-7ZK2Q", "government_id", "Passport.PDF")
	assert.True(t, strings.HasPrefix(k, "customers/CUST-20260115-7ZK2Q/government_id/"))
	assert.True(t, strings.HasSuffix(k, ".pdf"))

	k = ClaimKey(5, "photo.jpg")
	assert.True(t, strings.HasPrefix(k, "claims/5/"))
	assert.True(t, strings.HasSuffix(k, ".jpg"))

	assert.NotEqual(t, ClaimKey(5, "a"), ClaimKey(5, "a"))
	assert.False(t, strings.Contains(ClaimKey(1, "archive.verylongextension"), "."))
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	data := []byte("%PDF-1.4 test")
	obj, err := s.Put(ctx, "claims/1/a.pdf", bytes.NewReader(data), "application/pdf")
	require.NoError(t, err)

	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), obj.Checksum)
	assert.Equal(t, int64(len(data)), obj.Size)

	rc, err := s.Open(ctx, "claims/1/a.pdf")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, s.Delete(ctx, "claims/1/a.pdf"))
	require.NoError(t, s.Delete(ctx, "claims/1/a.pdf"))
	_, err = s.Open(ctx, "claims/1/a.pdf")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "../../etc/passwd", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(in.Body)
	f.objects[*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	s := NewS3Store(fake, "docs")

	obj, err := s.Put(ctx, "customers/1/government_id/x.png", strings.NewReader("PNG"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, int64(3), obj.Size)

	rc, err := s.Open(ctx, obj.Key)
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "PNG", string(b))

	require.NoError(t, s.Delete(ctx, obj.Key))
	_, err = s.Open(ctx, obj.Key)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}
