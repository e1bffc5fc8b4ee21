package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/keithlinneman/yummigo-web/internal/document"
)

// maxDocumentBytes bounds a single GetObject read.
const maxDocumentBytes = 8 << 20

// S3API is the subset of *s3.Client the content store uses.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps the document as one object.
type S3Store struct {
	client S3API
	bucket string
	key    string
}

func NewS3Store(client S3API, bucket, key string) *S3Store {
	return &S3Store{client: client, bucket: bucket, key: key}
}

func (s *S3Store) Source() Source { return SourceS3 }

func (s *S3Store) Load(ctx context.Context) (document.Value, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if IsNotFound(err) {
			return document.Value{}, ErrNotFound
		}
		return document.Value{}, unavailable(fmt.Sprintf("get s3://%s/%s", s.bucket, s.key), err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(io.LimitReader(out.Body, maxDocumentBytes+1))
	if err != nil {
		return document.Value{}, unavailable("read s3 body", err)
	}
	if len(b) > maxDocumentBytes {
		return document.Value{}, fmt.Errorf("%w: object exceeds %d bytes", ErrInvalidDocument, maxDocumentBytes)
	}
	return Decode(b)
}

func (s *S3Store) Save(ctx context.Context, doc document.Value) error {
	b, err := Encode(doc)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          bytes.NewReader(b),
		ContentLength: aws.Int64(int64(len(b))),
		ContentType:   aws.String("application/json; charset=utf-8"),
		CacheControl:  aws.String("no-cache"),
	})
	return unavailable(fmt.Sprintf("put s3://%s/%s", s.bucket, s.key), err)
}

// IsNotFound matches S3's missing-object errors (NoSuchKey from GetObject,
// NotFound from HeadObject).
func IsNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}
