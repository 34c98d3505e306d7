package transaction

import "sync"

// Accessor returns the transaction currently in scope, or nil.
type Accessor func() *Transaction

// Scope holds the transaction bound to the running application.
type Scope struct {
	mu      sync.RWMutex
	current *Transaction
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// SetTransaction binds tx, replacing any previous transaction.
func (s *Scope) SetTransaction(tx *Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = tx
}

// Transaction returns the bound transaction.
func (s *Scope) Transaction() *Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Clear unbinds tx if it is still the bound transaction.
func (s *Scope) Clear(tx *Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == tx {
		s.current = nil
	}
}

// Accessor returns a function reading the bound transaction.
func (s *Scope) Accessor() Accessor {
	return s.Transaction
}
