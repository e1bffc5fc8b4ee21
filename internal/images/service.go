package images

import (
	"cmp"
	"context"
	"fmt"
	"mime"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/keithlinneman/yummigo-web/internal/auth"
	"github.com/keithlinneman/yummigo-web/internal/log"
	"github.com/keithlinneman/yummigo-web/internal/otelx"
	"github.com/keithlinneman/yummigo-web/internal/pathutil"
)

const (
	MaxUploadBytes = 5 << 20

	// slideDefaultOrder sorts slide names without a number last.
	slideDefaultOrder = 999
)

var (
	allowedTypes = map[string]bool{
		"image/jpeg":    true,
		"image/png":     true,
		"image/webp":    true,
		"image/avif":    true,
		"image/svg+xml": true,
	}

	bucketRE = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	slideRE  = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|webp|svg|avif)$`)
	numberRE = regexp.MustCompile(`\d+`)
)

// Metrics is implemented by the metrics package.
type Metrics interface {
	ObserveUpload(bucket string, size int64, err error)
	IncImageDelete(bucket string, err error)
}

// Upload is one file from the admin upload form.
type Upload struct {
	Bucket      string
	Filename    string
	ContentType string
	Body        []byte
	Overwrite   bool
	// Index, when set, stores the file as {Index}{ext} replacing any
	// previous file in that slot.
	Index *int
}

type Service struct {
	store   Store
	logger  log.Logger
	metrics Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

func NewService(store Store, logger log.Logger, m Metrics) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:   store,
		logger:  logger,
		metrics: m,
		tracer:  otelx.Tracer("images"),
		now:     time.Now,
	}
}

// ValidBucket reports whether name is an acceptable bucket.
func ValidBucket(name string) bool { return bucketRE.MatchString(name) }

// Put validates u and stores it. The returned Object carries the stored
// filename and public URL.
func (s *Service) Put(ctx context.Context, sess auth.Session, u Upload) (obj Object, err error) {
	ctx, span := s.tracer.Start(ctx, "images.Put", trace.WithAttributes(
		attribute.String("images.bucket", u.Bucket),
		attribute.Int("images.size", len(u.Body)),
	))
	defer func() {
		endSpan(span, err)
		if s.metrics != nil {
			s.metrics.ObserveUpload(metricBucket(u.Bucket), int64(len(u.Body)), err)
		}
	}()

	ct, err := checkType(u.ContentType)
	if err != nil {
		return Object{}, err
	}
	if len(u.Body) > MaxUploadBytes {
		return Object{}, fmt.Errorf("%w: %d bytes, max %d", ErrTooLarge, len(u.Body), MaxUploadBytes)
	}
	if !ValidBucket(u.Bucket) {
		return Object{}, fmt.Errorf("%w: bucket %q", ErrInvalidName, u.Bucket)
	}
	if !pathutil.IsSafeFilename(u.Filename) {
		return Object{}, fmt.Errorf("%w: file %q", ErrInvalidName, u.Filename)
	}

	name, overwrite := s.storedName(u)
	if !pathutil.IsSafeFilename(name) {
		return Object{}, fmt.Errorf("%w: file %q", ErrInvalidName, name)
	}
	obj, err = s.store.Put(ctx, u.Bucket, name, u.Body, ct, overwrite)
	if err != nil {
		s.logger.Error(ctx, err, "image upload failed", "bucket", u.Bucket, "filename", name)
		return Object{}, err
	}
	s.logger.Info(ctx, "image uploaded",
		"bucket", u.Bucket,
		"filename", name,
		"size", len(u.Body),
		"content_type", ct,
		"overwrite", overwrite,
		"session", sess.ID,
	)
	return obj, nil
}

// storedName picks the stored filename. Slot and about uploads replace
// the previous file, everything else gets a timestamp prefix.
func (s *Service) storedName(u Upload) (string, bool) {
	ext := path.Ext(u.Filename)
	switch {
	case u.Index != nil && *u.Index >= 0:
		return strconv.Itoa(*u.Index) + ext, true
	case strings.EqualFold(u.Bucket, "about") || u.Overwrite:
		return "about" + ext, true
	}
	return strconv.FormatInt(s.now().UnixMilli(), 10) + "_" + u.Filename, false
}

func checkType(contentType string) (string, error) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || !allowedTypes[mt] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return mt, nil
}

// List returns the bucket's files without dotfile placeholders.
func (s *Service) List(ctx context.Context, bucket string) ([]Object, error) {
	if !ValidBucket(bucket) {
		return nil, fmt.Errorf("%w: bucket %q", ErrInvalidName, bucket)
	}
	objs, err := s.store.List(ctx, bucket)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(objs, func(o Object) bool {
		return strings.HasPrefix(o.Filename, ".")
	}), nil
}

// Slides returns image filenames in bucket ordered by the first number in
// each name.
func (s *Service) Slides(ctx context.Context, bucket string) ([]string, error) {
	objs, err := s.List(ctx, bucket)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(objs))
	for _, o := range objs {
		if IsSlideName(o.Filename) {
			names = append(names, o.Filename)
		}
	}
	SortSlides(names)
	return names, nil
}

// IsSlideName reports whether name is a plain image filename usable as a
// hero slide.
func IsSlideName(name string) bool {
	return slideRE.MatchString(name) && !strings.Contains(name, "/")
}

// SortSlides orders names by their first number, stable for ties.
func SortSlides(names []string) {
	slices.SortStableFunc(names, func(a, b string) int {
		return cmp.Compare(slideOrder(a), slideOrder(b))
	})
}

func slideOrder(name string) int {
	m := numberRE.FindString(name)
	if m == "" {
		return slideDefaultOrder
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return slideDefaultOrder
	}
	return n
}

func (s *Service) Delete(ctx context.Context, sess auth.Session, bucket, filename string) (err error) {
	ctx, span := s.tracer.Start(ctx, "images.Delete", trace.WithAttributes(
		attribute.String("images.bucket", bucket),
	))
	defer func() {
		endSpan(span, err)
		if s.metrics != nil {
			s.metrics.IncImageDelete(metricBucket(bucket), err)
		}
	}()

	if !ValidBucket(bucket) {
		return fmt.Errorf("%w: bucket %q", ErrInvalidName, bucket)
	}
	if !pathutil.IsSafeFilename(filename) {
		return fmt.Errorf("%w: file %q", ErrInvalidName, filename)
	}
	if err := s.store.Delete(ctx, bucket, filename); err != nil {
		return err
	}
	s.logger.Info(ctx, "image deleted", "bucket", bucket, "filename", filename, "session", sess.ID)
	return nil
}

func (s *Service) URL(bucket, filename string) string { return s.store.URL(bucket, filename) }

// metricBucket keeps label values bounded to valid bucket names.
func metricBucket(b string) string {
	if ValidBucket(b) {
		return b
	}
	return "invalid"
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
