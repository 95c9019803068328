package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalRoundTrip(t *testing.T) {
	store, err := NewLocal(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "invoices/2024/01/asha-1.pdf", []byte("%PDF-1"), "application/pdf"))
	require.NoError(t, store.Put(ctx, "invoices/2024/01/asha-1.pdf", []byte("%PDF-2"), "application/pdf"))

	body, err := store.Get(ctx, "invoices/2024/01/asha-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-2", string(body))

	_, err = store.Get(ctx, "invoices/2024/02/missing.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.ErrorIs(t, store.Put(ctx, "../escape.pdf", nil, ""), ErrInvalidKey)
	assert.ErrorIs(t, store.Put(ctx, "", nil, ""), ErrInvalidKey)
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = body
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func TestS3RoundTrip(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	store := newS3WithClient(fake, "ksheermitra-invoices", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "invoices/2024/01/a-1.pdf", []byte("%PDF"), "application/pdf"))
	assert.Equal(t, "application/pdf", fake.types["ksheermitra-invoices/invoices/2024/01/a-1.pdf"])

	body, err := store.Get(ctx, "invoices/2024/01/a-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body))

	_, err = store.Get(ctx, "invoices/2024/01/none.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
