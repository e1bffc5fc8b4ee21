package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// maxListObjects bounds a single List across pages.
const maxListObjects = 1000

// S3API is the subset of *s3.Client the image store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps images under {prefix}{bucket}/{filename} in one S3 bucket.
type S3Store struct {
	client        S3API
	s3Bucket      string
	prefix        string
	publicBaseURL string
}

type S3Options struct {
	Client S3API
	Bucket string
	// Prefix is prepended to every key, e.g. "images/".
	Prefix string
	// PublicBaseURL is where the objects are served from (CDN or website
	// endpoint). Empty means the site serves them at /{bucket}/.
	PublicBaseURL string
}

func NewS3Store(opts S3Options) *S3Store {
	prefix := opts.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{
		client:        opts.Client,
		s3Bucket:      opts.Bucket,
		prefix:        prefix,
		publicBaseURL: opts.PublicBaseURL,
	}
}

func (s *S3Store) key(bucket, filename string) string {
	return s.prefix + bucket + "/" + filename
}

func (s *S3Store) URL(bucket, filename string) string {
	return publicURL(s.publicBaseURL, bucket, filename)
}

func (s *S3Store) Put(ctx context.Context, bucket, filename string, body []byte, contentType string, overwrite bool) (Object, error) {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.s3Bucket),
		Key:           aws.String(s.key(bucket, filename)),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=300"),
	}
	if !overwrite {
		in.IfNoneMatch = aws.String("*")
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		if isPreconditionFailed(err) {
			return Object{}, fmt.Errorf("%w: %s/%s", ErrExists, bucket, filename)
		}
		return Object{}, unavailable("put "+s.key(bucket, filename), err)
	}
	return Object{
		Filename: filename,
		URL:      s.URL(bucket, filename),
		Size:     int64(len(body)),
	}, nil
}

func (s *S3Store) List(ctx context.Context, bucket string) ([]Object, error) {
	dir := s.prefix + bucket + "/"
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.s3Bucket),
		Prefix:    aws.String(dir),
		Delimiter: aws.String("/"),
	})

	var out []Object
	for p.HasMorePages() && len(out) < maxListObjects {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, unavailable("list "+dir, err)
		}
		for _, o := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(o.Key), dir)
			if name == "" {
				continue
			}
			obj := Object{
				Filename: name,
				URL:      s.URL(bucket, name),
				Size:     aws.ToInt64(o.Size),
			}
			if o.LastModified != nil {
				obj.Created = o.LastModified.UTC()
			}
			out = append(out, obj)
		}
	}
	return out, nil
}

// Delete removes bucket/filename. S3 does not report missing keys on
// delete, so deleting an absent file succeeds.
func (s *S3Store) Delete(ctx context.Context, bucket, filename string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3Bucket),
		Key:    aws.String(s.key(bucket, filename)),
	})
	return unavailable("delete "+s.key(bucket, filename), err)
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}
