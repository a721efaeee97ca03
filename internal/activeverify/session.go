// Package activeverify implements the nonce-bound challenge/response
// session state machine used to confirm a chain is backed by a live
// Attester rather than replayed or synthesized evidence.
//
// The session table is grounded on the concurrency pattern of the
// teacher's session.MultiDeviceSession (a struct guarded by sync.RWMutex,
// mutated by exactly one logical caller at a time) and its challenge shape
// on presence.Verifier's random-challenge/response-window design — adapted
// here to a single nonce-bound liveness challenge rather than a recurring
// presence-probe stream. github.com/google/uuid (direct dependency of both
// certenIO-certen-validator and jndunlap-gohypo) mints session IDs distinct
// from the Relying-Party-supplied nonce.
package activeverify

import (
	"crypto/ed25519"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tripverifier/criticality/internal/signer"
	"github.com/tripverifier/criticality/internal/triperr"
)

// State is a closed sum over the session lifecycle.
type State int

const (
	StateAwaitingResponse State = iota
	StateEvaluating
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateEvaluating:
		return "evaluating"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultDeadline is the default response window for a challenge.
const DefaultDeadline = 30 * time.Second

// Challenge is the liveness challenge minted for a session.
type Challenge struct {
	Nonce       [16]byte
	ChallengeTS time.Time
	Deadline    time.Duration
}

// Response is what the Attester returns for a challenge.
type Response struct {
	NonceEcho      [16]byte
	ChainHeadHash  [32]byte
	ResponseTS     time.Time
	CurrentIndex   uint64
	SignatureOverResponse []byte
}

// Session is one Active Verification session.
type Session struct {
	ID         string
	IdentityKey string // hex
	Challenge  Challenge
	State      State
	FailReason string
}

// SignedFields builds the canonical byte string covered by
// Response.SignatureOverResponse: every field the Attester controls in
// the response (nonce, chain head, response timestamp, current index) —
// the most conservative signing surface, rather than signing the nonce
// alone (see DESIGN.md).
func SignedFields(nonceEcho [16]byte, chainHead [32]byte, responseTS time.Time, currentIndex uint64) []byte {
	buf := make([]byte, 0, 16+32+8+8)
	buf = append(buf, nonceEcho[:]...)
	buf = append(buf, chainHead[:]...)
	ts := uint64(responseTS.UnixMilli())
	buf = appendUint64(buf, ts)
	buf = appendUint64(buf, currentIndex)
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	for i := 7; i >= 0; i-- {
		buf = append(buf, byte(v>>(8*uint(i))))
	}
	return buf
}

// Store is the concurrent session table: the only shared mutable state in
// the engine. A sync.RWMutex-guarded map, the same pattern the teacher's
// MultiDeviceSession uses to guard its device map.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create mints a new session with a fresh challenge for identityKey,
// state AwaitingResponse.
func (s *Store) Create(identityKey string, nonce [16]byte, now time.Time, deadline time.Duration) *Session {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	sess := &Session{
		ID:          uuid.NewString(),
		IdentityKey: identityKey,
		Challenge: Challenge{
			Nonce:       nonce,
			ChallengeTS: now,
			Deadline:    deadline,
		},
		State: StateAwaitingResponse,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get looks up a session by ID.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete removes a session (called after it reaches a terminal state).
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// StartSweeper runs a background goroutine that, every interval, marks
// sessions still AwaitingResponse past their deadline as Failed and deletes
// Complete or Failed sessions whose challenge was issued more than an hour
// ago, grounded on the teacher's fsnotify-watcher debounce-timer idiom of a
// single ticking goroutine. Closing ctx stops it.
func (s *Store) StartSweeper(ctx <-chan struct{}, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx:
				return
			case <-ticker.C:
				s.sweepExpired()
			}
		}
	}()
}

func (s *Store) sweepExpired() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.State == StateAwaitingResponse && now.After(sess.Challenge.ChallengeTS.Add(sess.Challenge.Deadline)) {
			sess.State = StateFailed
			sess.FailReason = "deadline expired, swept"
		}
		if sess.State == StateComplete || sess.State == StateFailed {
			if now.Sub(sess.Challenge.ChallengeTS) > time.Hour {
				delete(s.sessions, id)
			}
		}
	}
}

// Evaluate validates an incoming Response against a session's challenge,
// advancing AwaitingResponse → Evaluating, or Failed on any violation.
// Callers must serialize access per session.
func Evaluate(sess *Session, resp Response, pubKey ed25519.PublicKey) error {
	if sess.State != StateAwaitingResponse {
		return triperr.New(triperr.KindChainIntegrity, "session is not awaiting a response")
	}

	deadline := sess.Challenge.ChallengeTS.Add(sess.Challenge.Deadline)
	if !resp.ResponseTS.Before(deadline) {
		sess.State = StateFailed
		sess.FailReason = "deadline expired"
		return triperr.DeadlineExpired()
	}

	if resp.NonceEcho != sess.Challenge.Nonce {
		sess.State = StateFailed
		sess.FailReason = "nonce mismatch"
		return triperr.NonceMismatch()
	}

	signed := SignedFields(resp.NonceEcho, resp.ChainHeadHash, resp.ResponseTS, resp.CurrentIndex)
	if !signer.VerifyPayload(pubKey, signed, resp.SignatureOverResponse) {
		sess.State = StateFailed
		sess.FailReason = "signature invalid"
		return triperr.SignatureInvalid(int(resp.CurrentIndex))
	}

	sess.State = StateEvaluating
	return nil
}

// Complete marks a session Complete after certificate issuance succeeded.
func Complete(sess *Session) {
	sess.State = StateComplete
}

// Fail marks a session Failed with the given reason (e.g. the orchestrator
// itself failed after Evaluate succeeded).
func Fail(sess *Session, reason string) {
	sess.State = StateFailed
	sess.FailReason = reason
}
