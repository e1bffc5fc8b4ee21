package content

// ReadyErr fails until a document has been activated.
func (m *Manager) ReadyErr() error {
	if _, ok := m.Get(); !ok {
		return ErrNoDocument
	}
	return nil
}
