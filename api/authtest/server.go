// Package authtest provides an in-process fake of the Holo authorities
// (membrane-proof service and auth server) for tests.
package authtest

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ruteri/holo-auth-client/api"
	"go.uber.org/atomic"
)

// Server records every request it receives. Behaviour is configured through
// the exported fields and setters before or between requests.
type Server struct {
	*httptest.Server
	log *slog.Logger

	// MemProof is returned by register-user unless RegistrationError is set
	MemProof string
	// RegistrationError, when set, makes register-user answer 400 with it
	RegistrationError *api.RegistrationErrorResponse
	// ZtPublicKey, when set, is used to verify zt_registration signatures
	ZtPublicKey ed25519.PublicKey

	RegisterCalls  atomic.Int32
	ZtCalls        atomic.Int32
	NotifyCalls    atomic.Int32
	ChallengeCalls atomic.Int32

	ztFailures atomic.Int32
	notifyFail atomic.Bool

	mu            sync.Mutex
	registrations []api.RegistrationRequest
	ztRequests    []api.ZtRegistrationRequest
	notifications []api.NotifyRequest
	challenges    []api.ChallengeRequest
}

// New starts a fake authority. The caller must Close it.
func New(log *slog.Logger) *Server {
	s := &Server{log: log, MemProof: "mem-proof"}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() http.Handler {
	mux := chi.NewRouter()
	mux.Use(s.httpLogger)
	mux.Post(api.RegisterUserPath, s.handleRegisterUser)
	mux.Post(api.ZtRegistrationPath, s.handleZtRegistration)
	mux.Post(api.NotifyPath, s.handleNotify)
	mux.Post(api.ChallengePath, s.handleChallenge)
	return mux
}

func (s *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(s.log, next)
}

// FailZtRegistrations makes the next n zt_registration requests fail with 503.
func (s *Server) FailZtRegistrations(n int32) {
	s.ztFailures.Store(n)
}

// FailNotifications makes the notify endpoint answer 500.
func (s *Server) FailNotifications(fail bool) {
	s.notifyFail.Store(fail)
}

// Registrations returns a copy of the register-user requests received so far.
func (s *Server) Registrations() []api.RegistrationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.RegistrationRequest(nil), s.registrations...)
}

// ZtRequests returns a copy of the zt_registration requests received so far,
// including the ones that were failed on purpose.
func (s *Server) ZtRequests() []api.ZtRegistrationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.ZtRegistrationRequest(nil), s.ztRequests...)
}

// Notifications returns a copy of the notify requests received so far.
func (s *Server) Notifications() []api.NotifyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.NotifyRequest(nil), s.notifications...)
}

// Challenges returns a copy of the challenge requests received so far.
func (s *Server) Challenges() []api.ChallengeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.ChallengeRequest(nil), s.challenges...)
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	s.RegisterCalls.Inc()

	var req api.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.registrations = append(s.registrations, req)
	s.mu.Unlock()

	if s.RegistrationError != nil {
		writeJSON(w, http.StatusBadRequest, s.RegistrationError)
		return
	}
	writeJSON(w, http.StatusOK, &api.RegistrationResponse{MemProof: s.MemProof})
}

func (s *Server) handleZtRegistration(w http.ResponseWriter, r *http.Request) {
	s.ZtCalls.Inc()

	var req api.ZtRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.ztRequests = append(s.ztRequests, req)
	s.mu.Unlock()

	if s.takeZtFailure() {
		http.Error(w, "zerotier central unavailable", http.StatusServiceUnavailable)
		return
	}

	if s.ZtPublicKey != nil {
		sig, err := base64.StdEncoding.DecodeString(req.Signature)
		data, _ := json.Marshal(req.Data)
		if err != nil || !ed25519.Verify(s.ZtPublicKey, data, sig) {
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": req.Data.ZerotierAddress, "authorized": true})
}

func (s *Server) takeZtFailure() bool {
	for {
		n := s.ztFailures.Load()
		if n <= 0 {
			return false
		}
		if s.ztFailures.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	s.NotifyCalls.Inc()

	var req api.NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.notifications = append(s.notifications, req)
	s.mu.Unlock()

	if s.notifyFail.Load() {
		http.Error(w, "postmark unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, &api.NotifyResponse{MessageID: uuid.New()})
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	s.ChallengeCalls.Inc()

	var req api.ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.challenges = append(s.challenges, req)
	s.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
