package content

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keithlinneman/yummigo-web/internal/document"
)

// ErrNoDocument means nothing has been activated yet.
var ErrNoDocument = errors.New("content: no document loaded")

type Manager struct {
	active atomic.Pointer[Snapshot]

	// mu serializes writers so previous and generation stay consistent.
	mu         sync.Mutex
	previous   *Snapshot
	generation uint64
}

func NewManager() *Manager { return &Manager{} }

// Set activates s and returns the stored copy. A zero LoadedAt is stamped
// and an empty Version gets the next generation number.
func (m *Manager) Set(s Snapshot) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := s
	if cp.LoadedAt.IsZero() {
		cp.LoadedAt = time.Now().UTC()
	}
	m.generation++
	if cp.Meta.Version == "" {
		cp.Meta.Version = strconv.FormatUint(m.generation, 10)
	}
	m.previous = m.active.Load()
	m.active.Store(&cp)
	return cp
}

// Rollback reactivates the snapshot replaced by the last Set. It reports
// false when there is nothing to roll back to.
func (m *Manager) Rollback() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.previous == nil {
		return false
	}
	prev := m.previous
	m.previous = m.active.Load()
	m.active.Store(prev)
	return true
}

func (m *Manager) Get() (*Snapshot, bool) {
	s := m.active.Load()
	return s, s != nil && s.Doc.Kind() == document.KindObject
}

// Document returns the active root, or an empty object when nothing is
// loaded.
func (m *Manager) Document() document.Value {
	if s, ok := m.Get(); ok {
		return s.Doc
	}
	return document.EmptyObject()
}

// ContentVersion implements httpmw.ContentInfo.
func (m *Manager) ContentVersion() string {
	if s := m.active.Load(); s != nil {
		return s.Meta.Version
	}
	return ""
}

// ContentHash implements httpmw.ContentInfo.
func (m *Manager) ContentHash() string {
	if s := m.active.Load(); s != nil {
		return s.Meta.Hash
	}
	return ""
}

func (m *Manager) Source() Source {
	if s := m.active.Load(); s != nil {
		return s.Meta.Source
	}
	return SourceUnknown
}

func (m *Manager) LoadedAt() time.Time {
	if s := m.active.Load(); s != nil {
		return s.LoadedAt
	}
	return time.Time{}
}
