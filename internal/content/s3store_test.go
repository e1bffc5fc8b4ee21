package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/keithlinneman/yummigo-web/internal/document"
)

type fakeS3 struct {
	objects map[string][]byte
	getErr  error
	putErr  error

	lastPut *s3.PutObjectInput
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func s3Key(bucket, key string) string { return bucket + "/" + key }

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.objects[s3Key(aws.ToString(in.Bucket), aws.ToString(in.Key))]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "The specified key does not exist."}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[s3Key(aws.ToString(in.Bucket), aws.ToString(in.Key))] = b
	f.lastPut = in
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	s := NewS3Store(fake, "site", "content/content.json")
	doc := document.MustParse(`{"about":{"text":{"ar":"نحن","en":"We"}}}`)

	if err := s.Save(t.Context(), doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ct := aws.ToString(fake.lastPut.ContentType); ct != "application/json; charset=utf-8" {
		t.Fatalf("ContentType = %q", ct)
	}
	want, _ := Encode(doc)
	if got := fake.objects["site/content/content.json"]; !bytes.Equal(got, want) {
		t.Fatalf("stored object =\n%s\nwant\n%s", got, want)
	}

	got, err := s.Load(t.Context())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !document.Equal(got, doc) {
		t.Fatalf("Load = %s", jsonString(t, got))
	}
}

func TestS3Store_NoSuchKey(t *testing.T) {
	s := NewS3Store(newFakeS3(), "site", "content.json")
	if _, err := s.Load(t.Context()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load err = %v, want ErrNotFound", err)
	}
}

func TestS3Store_Errors(t *testing.T) {
	fake := newFakeS3()
	fake.getErr = fmt.Errorf("operation error S3: GetObject: %w", &smithy.GenericAPIError{Code: "AccessDenied"})
	fake.putErr = errors.New("connection reset")
	s := NewS3Store(fake, "site", "content.json")

	if _, err := s.Load(t.Context()); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("Load err = %v, want ErrStorageUnavailable", err)
	}
	err := s.Save(t.Context(), document.EmptyObject())
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("Save err = %v, want ErrStorageUnavailable", err)
	}
	var apiErr smithy.APIError
	if _, err := s.Load(t.Context()); !errors.As(err, &apiErr) || apiErr.ErrorCode() != "AccessDenied" {
		t.Fatalf("cause not reachable through errors.As: %v", err)
	}
}

func TestS3Store_OversizeObject(t *testing.T) {
	fake := newFakeS3()
	fake.objects["site/content.json"] = bytes.Repeat([]byte(" "), maxDocumentBytes+1)
	s := NewS3Store(fake, "site", "content.json")
	if _, err := s.Load(t.Context()); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("Load err = %v, want ErrInvalidDocument", err)
	}
}

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{fmt.Errorf("wrapped: %w", &smithy.GenericAPIError{Code: "NotFound"}), true},
		{&smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{errors.New("NoSuchKey"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := IsNotFound(tc.err); got != tc.want {
			t.Fatalf("IsNotFound(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
