package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
	modified    time.Time
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]*fakeObject
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]*fakeObject)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = &fakeObject{
		data:        data,
		contentType: aws.ToString(in.ContentType),
		metadata:    in.Metadata,
		modified:    time.Now(),
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentType:   aws.String(obj.contentType),
		ContentLength: aws.Int64(int64(len(obj.data))),
		Metadata:      obj.metadata,
		LastModified:  aws.Time(obj.modified),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	for k, obj := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k), LastModified: aws.Time(obj.modified)})
		}
	}
	return out, nil
}

type fakePresigner struct{}

func (fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{
		URL:    "https://" + aws.ToString(in.Bucket) + ".s3.amazonaws.com/" + aws.ToString(in.Key) + "?X-Amz-Signature=x",
		Method: "GET",
	}, nil
}

func TestS3Store_PutOpenRevoke(t *testing.T) {
	client := newFakeS3()
	store := NewS3Store(client, fakePresigner{}, "bucket", "attachments/", 1<<20)
	ctx := context.Background()

	f, err := store.Put(ctx, "photo.jpg", "image/jpeg", strings.NewReader("jpeg"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	wantPrefix := "https://bucket.s3.amazonaws.com/attachments/" + f.ID
	if !strings.HasPrefix(f.Locator, wantPrefix) {
		t.Errorf("expected presigned locator %s..., got %s", wantPrefix, f.Locator)
	}

	opened, err := store.Open(ctx, f.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer opened.Close()
	data, _ := io.ReadAll(opened.Reader)
	if string(data) != "jpeg" || opened.Filename != "photo.jpg" || opened.ContentType != "image/jpeg" || opened.Size != 4 {
		t.Errorf("unexpected file %+v (%q)", opened, data)
	}

	if err := store.Revoke(ctx, f.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := store.Open(ctx, f.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestS3Store_TooLarge(t *testing.T) {
	client := newFakeS3()
	store := NewS3Store(client, fakePresigner{}, "bucket", "p/", 3)

	if _, err := store.Put(context.Background(), "a", "text/plain", strings.NewReader("abcd")); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
	if len(client.objects) != 0 {
		t.Error("expected nothing uploaded")
	}
}

func TestS3Store_Cleanup(t *testing.T) {
	client := newFakeS3()
	store := NewS3Store(client, fakePresigner{}, "bucket", "p/", 0)
	ctx := context.Background()

	fresh, _ := store.Put(ctx, "fresh", "text/plain", strings.NewReader("1"))
	old, _ := store.Put(ctx, "old", "text/plain", strings.NewReader("2"))
	client.objects["p/"+old.ID].modified = time.Now().Add(-2 * time.Hour)
	client.objects["other/x"] = &fakeObject{modified: time.Now().Add(-2 * time.Hour)}

	if err := store.Cleanup(ctx, time.Hour); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, ok := client.objects["p/"+old.ID]; ok {
		t.Error("expected old object removed")
	}
	if _, ok := client.objects["p/"+fresh.ID]; !ok {
		t.Error("expected fresh object kept")
	}
	if _, ok := client.objects["other/x"]; !ok {
		t.Error("expected objects outside the prefix kept")
	}
}
