package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/salespipe/crm-mcp-server/pkg/crm"
)

// ErrCredentialsRequired is returned when a session must be created but no
// complete credential set is available. Transports surface it as an
// authentication failure (401), never as a generic server error.
var ErrCredentialsRequired = errors.New("session: tenant credentials required")

// ClientFactory builds the upstream client set for a credential set. Injected
// so tests can substitute clients pointed at local fixtures.
type ClientFactory func(creds Credentials) (*crm.Client, error)

// Session is the binding between an opaque identifier and a resolved
// credential set plus its upstream clients. Credentials are fixed at creation;
// a rebind replaces the whole session rather than mutating it.
type Session struct {
	ID          string
	Credentials Credentials
	Clients     *crm.Client
}

// StoreOptions configure a Store.
type StoreOptions struct {
	// Logger receives structured diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Store maps live session identifiers to sessions. It is an explicit,
// injectable component so each test gets its own isolated instance; all
// bookkeeping happens under one mutex so concurrent create/rebind/release
// never interleave mid-flight.
type Store struct {
	factory ClientFactory
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore builds a Store around the given client factory.
func NewStore(factory ClientFactory, opts *StoreOptions) (*Store, error) {
	if factory == nil {
		return nil, fmt.Errorf("session: client factory is required")
	}
	logger := slog.Default()
	if opts != nil && opts.Logger != nil {
		logger = opts.Logger
	}
	return &Store{
		factory:  factory,
		logger:   logger,
		sessions: make(map[string]*Session),
	}, nil
}

// Resolve returns the session bound to sessionID, creating it from creds when
// none exists. An existing session is sticky: creds supplied for a live
// identifier are ignored. Creating a session requires a complete credential
// set, otherwise Resolve fails with ErrCredentialsRequired.
func (s *Store) Resolve(sessionID string, creds Credentials) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[sessionID]; ok {
		return existing, nil
	}
	return s.createLocked(sessionID, creds)
}

// Rebind discards any session under sessionID and creates a fresh one bound
// to creds. Only the streamed transport's POST path uses this, to support
// rotating credentials mid-connection.
func (s *Store) Rebind(sessionID string, creds Credentials) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.sessions[sessionID]; ok {
		delete(s.sessions, sessionID)
		s.logger.Info("session rebound",
			"session_id", sessionID,
			"old_domain", old.Credentials.CompanyDomain,
		)
	}
	return s.createLocked(sessionID, creds)
}

func (s *Store) createLocked(sessionID string, creds Credentials) (*Session, error) {
	if !creds.Complete() {
		return nil, ErrCredentialsRequired
	}
	clients, err := s.factory(creds)
	if err != nil {
		return nil, fmt.Errorf("session: build upstream clients: %w", err)
	}
	sess := &Session{ID: sessionID, Credentials: creds, Clients: clients}
	s.sessions[sessionID] = sess
	s.logger.Info("session created",
		"session_id", sessionID,
		"domain", creds.CompanyDomain,
		"token", creds.RedactedToken(),
	)
	return sess, nil
}

// Lookup reports the session bound to sessionID, if any. Non-failing; used by
// transports to branch on whether a request may proceed without inline
// credentials.
func (s *Store) Lookup(sessionID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// Release removes the session bound to sessionID. Idempotent.
func (s *Store) Release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; ok {
		delete(s.sessions, sessionID)
		s.logger.Info("session released", "session_id", sessionID)
	}
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ClientFor resolves the upstream client set for the session identifier
// carried by ctx. Tool handlers call this instead of receiving an explicit
// session parameter.
func (s *Store) ClientFor(ctx context.Context) (*crm.Client, error) {
	sess, err := s.SessionFor(ctx)
	if err != nil {
		return nil, err
	}
	return sess.Clients, nil
}

// SessionFor resolves the full session for the identifier carried by ctx.
func (s *Store) SessionFor(ctx context.Context) (*Session, error) {
	id := IDFromContext(ctx)
	if id == "" {
		return nil, ErrCredentialsRequired
	}
	sess, ok := s.Lookup(id)
	if !ok {
		return nil, ErrCredentialsRequired
	}
	return sess, nil
}
