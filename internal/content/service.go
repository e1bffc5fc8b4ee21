package content

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/keithlinneman/yummigo-web/internal/auth"
	"github.com/keithlinneman/yummigo-web/internal/document"
	"github.com/keithlinneman/yummigo-web/internal/log"
	"github.com/keithlinneman/yummigo-web/internal/otelx"
)

// Metrics is implemented by the metrics package.
type Metrics interface {
	SetContent(source, sha256 string, loadedAt time.Time)
	ObserveContentLoad(d time.Duration)
	IncContentSave(op string, err error)
	AddContentEdits(n int)
}

// Edit is one path-addressed write.
type Edit struct {
	Path  string         `json:"path"`
	Value document.Value `json:"value"`
}

type ServiceOptions struct {
	Store   Store
	Manager *Manager
	Logger  log.Logger
	Metrics Metrics
	// Seed is activated when the store has no document yet.
	Seed []byte
}

type Service struct {
	store   Store
	manager *Manager
	logger  log.Logger
	metrics Metrics
	seed    []byte
	tracer  trace.Tracer

	// writeMu makes read-modify-write edits from this process see each
	// other. Other instances still race, last write wins.
	writeMu sync.Mutex
}

func NewService(opts ServiceOptions) *Service {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.Manager == nil {
		opts.Manager = NewManager()
	}
	return &Service{
		store:   opts.Store,
		manager: opts.Manager,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		seed:    opts.Seed,
		tracer:  otelx.Tracer("content"),
	}
}

func (s *Service) Manager() *Manager { return s.manager }

// Current returns the active document or an error when none is loaded.
func (s *Service) Current() (document.Value, error) {
	snap, ok := s.manager.Get()
	if !ok {
		return document.Value{}, ErrNoDocument
	}
	return snap.Doc, nil
}

// Load reads the store and activates the result. A missing document
// activates the seed. On any other failure the active snapshot is kept.
func (s *Service) Load(ctx context.Context) (err error) {
	ctx, span := s.tracer.Start(ctx, "content.Load")
	defer func() { endSpan(span, err) }()

	start := time.Now()
	doc, err := s.store.Load(ctx)
	if s.metrics != nil {
		s.metrics.ObserveContentLoad(time.Since(start))
	}
	src := sourceOf(s.store)

	if errors.Is(err, ErrNotFound) && len(s.seed) > 0 {
		doc, err = Decode(s.seed)
		if err != nil {
			return fmt.Errorf("decode seed content: %w", err)
		}
		src = SourceSeed
		s.logger.Warn(ctx, "content store is empty, serving seed document")
	}
	if err != nil {
		if _, ok := s.manager.Get(); ok {
			s.logger.Warn(ctx, "content load failed, keeping last known-good document", "err", err)
		}
		return err
	}

	_, err = s.activate(doc, src)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "content loaded",
		"source", src,
		"sha256", truncHash(s.manager.ContentHash()),
		"version", s.manager.ContentVersion(),
	)
	return nil
}

// Refresh reloads the store and activates the document only when its hash
// differs from the active one. It holds the write lock so a poll cannot
// reorder around a local save.
func (s *Service) Refresh(ctx context.Context) (swapped bool, hash string, err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return false, "", err
	}
	hash, err = Hash(doc)
	if err != nil {
		return false, "", err
	}
	if hash == s.manager.ContentHash() {
		return false, hash, nil
	}
	if _, err := s.activate(doc, sourceOf(s.store)); err != nil {
		return false, "", err
	}
	return true, hash, nil
}

// Save replaces the whole document.
func (s *Service) Save(ctx context.Context, sess auth.Session, doc document.Value) (Snapshot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.commit(ctx, sess, "save", doc, 0)
}

// Patch applies edits in order to the active document and saves the
// result. Every path is parsed before anything is written, so one bad
// path rejects the batch and leaves the document unchanged.
func (s *Service) Patch(ctx context.Context, sess auth.Session, edits []Edit) (Snapshot, error) {
	paths := make([]document.Path, len(edits))
	for i, e := range edits {
		p, err := document.ParsePath(e.Path)
		if err != nil {
			s.observeSave("patch", err)
			return Snapshot{}, err
		}
		paths[i] = p
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.Current()
	if err != nil {
		s.observeSave("patch", err)
		return Snapshot{}, err
	}
	for i, e := range edits {
		doc = document.SetPath(doc, paths[i], e.Value)
	}
	return s.commit(ctx, sess, "patch", doc, len(edits))
}

// Delete removes the node at path and saves the result.
func (s *Service) Delete(ctx context.Context, sess auth.Session, path string) (Snapshot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.Current()
	if err != nil {
		s.observeSave("delete", err)
		return Snapshot{}, err
	}
	doc, err = document.Delete(doc, path)
	if err != nil {
		s.observeSave("delete", err)
		return Snapshot{}, err
	}
	return s.commit(ctx, sess, "delete", doc, 1)
}

// commit writes doc to the store and activates it. Callers hold writeMu.
func (s *Service) commit(ctx context.Context, sess auth.Session, op string, doc document.Value, edits int) (snap Snapshot, err error) {
	ctx, span := s.tracer.Start(ctx, "content."+op, trace.WithAttributes(
		attribute.String("session.id", sess.ID),
		attribute.Int("content.edits", edits),
	))
	defer func() {
		endSpan(span, err)
		s.observeSave(op, err)
	}()

	if doc.Kind() != document.KindObject {
		return Snapshot{}, fmt.Errorf("%w: root is %s, want object", ErrInvalidDocument, doc.Kind())
	}
	if err := s.store.Save(ctx, doc); err != nil {
		s.logger.Error(ctx, err, "content save failed", "op", op, "session", sess.ID)
		return Snapshot{}, err
	}

	src := sourceOf(s.store)
	if src == SourceUnknown {
		src = s.manager.Source()
	}
	snap, err = s.activate(doc, src)
	if err != nil {
		return Snapshot{}, err
	}
	if s.metrics != nil && edits > 0 {
		s.metrics.AddContentEdits(edits)
	}
	s.logger.Info(ctx, "content saved",
		"op", op,
		"session", sess.ID,
		"auth_method", sess.Method,
		"edits", edits,
		"sha256", truncHash(snap.Meta.Hash),
		"version", snap.Meta.Version,
	)
	return snap, nil
}

func (s *Service) activate(doc document.Value, src Source) (Snapshot, error) {
	hash, err := Hash(doc)
	if err != nil {
		return Snapshot{}, err
	}
	snap := s.manager.Set(Snapshot{Doc: doc, Meta: Meta{Hash: hash, Source: src}})
	if s.metrics != nil {
		s.metrics.SetContent(string(snap.Meta.Source), snap.Meta.Hash, snap.LoadedAt)
	}
	return snap, nil
}

func (s *Service) observeSave(op string, err error) {
	if s.metrics != nil {
		s.metrics.IncContentSave(op, err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// truncHash shortens a hash for logs.
func truncHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
