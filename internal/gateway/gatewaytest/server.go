// Package gatewaytest provides an in-process fake of the mail.tm REST API
// for tests. It keeps accounts and messages in memory and lets a test
// inject failures or hold individual requests open.
package gatewaytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/nhle/throwmail/internal/model"
)

type account struct {
	id       string
	address  string
	password string
}

type failure struct {
	status      int
	description string
	raw         string
}

// Gate holds a request open until released.
type Gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	relOnce sync.Once
}

// Entered is closed once a request has reached the gate.
func (g *Gate) Entered() <-chan struct{} {
	return g.entered
}

// Release lets the held request (and any later one) proceed.
func (g *Gate) Release() {
	g.relOnce.Do(func() { close(g.release) })
}

// Server is a fake mail.tm API backed by httptest.Server.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	domains  []model.Domain
	accounts map[string]*account // by address
	tokens   map[string]string   // token -> address
	messages map[string][]model.MessageDetails
	sources  map[string]string
	failures map[string]failure
	gates    map[string]*Gate
	calls    map[string]int
	total    int
}

// NewServer starts a fake server offering the given domains. It is closed
// automatically when the test finishes.
func NewServer(t interface{ Cleanup(func()) }, domains ...string) *Server {
	s := &Server{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		messages: make(map[string][]model.MessageDetails),
		sources:  make(map[string]string),
		failures: make(map[string]failure),
		gates:    make(map[string]*Gate),
		calls:    make(map[string]int),
	}
	for _, d := range domains {
		s.domains = append(s.domains, model.Domain{
			ID:       uuid.NewString(),
			Domain:   d,
			IsActive: true,
		})
	}

	r := mux.NewRouter()
	r.Use(s.intercept)
	r.HandleFunc("/domains", s.listDomains).Methods(http.MethodGet)
	r.HandleFunc("/accounts", s.createAccount).Methods(http.MethodPost)
	r.HandleFunc("/accounts/{id}", s.authed(s.deleteAccount)).Methods(http.MethodDelete)
	r.HandleFunc("/token", s.issueToken).Methods(http.MethodPost)
	r.HandleFunc("/me", s.authed(s.me)).Methods(http.MethodGet)
	r.HandleFunc("/messages", s.authed(s.listMessages)).Methods(http.MethodGet)
	r.HandleFunc("/messages/{id}", s.authed(s.getMessage)).Methods(http.MethodGet)
	r.HandleFunc("/messages/{id}", s.authed(s.patchMessage)).Methods(http.MethodPatch)
	r.HandleFunc("/messages/{id}", s.authed(s.deleteMessage)).Methods(http.MethodDelete)
	r.HandleFunc("/sources/{id}", s.authed(s.getSource)).Methods(http.MethodGet)

	s.Server = httptest.NewServer(r)
	t.Cleanup(func() {
		s.releaseAll()
		s.Close()
	})
	return s
}

// AddDomain registers an additional domain, optionally private.
func (s *Server) AddDomain(name string, private bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domains = append(s.domains, model.Domain{
		ID:        uuid.NewString(),
		Domain:    name,
		IsActive:  true,
		IsPrivate: private,
	})
}

// AddAccount registers an existing account and returns a valid token.
func (s *Server) AddAccount(address, password string) (id, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &account{id: uuid.NewString(), address: address, password: password}
	s.accounts[address] = a
	token = uuid.NewString()
	s.tokens[token] = address
	return a.id, token
}

// SetMessages replaces the inbox of address.
func (s *Server) SetMessages(address string, msgs ...model.MessageDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[address] = append([]model.MessageDetails(nil), msgs...)
}

// Messages returns a copy of the inbox of address.
func (s *Server) Messages(address string) []model.MessageDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.MessageDetails(nil), s.messages[address]...)
}

// SetSource sets the raw source served for message id.
func (s *Server) SetSource(id, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[id] = raw
}

// HasAccount reports whether address is registered.
func (s *Server) HasAccount(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[address]
	return ok
}

// Fail makes every request matching key ("METHOD /path", e.g.
// "GET /messages") fail with status until ClearFailures is called.
func (s *Server) Fail(key string, status int, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key] = failure{status: status, description: description}
}

// Respond makes every request matching key succeed with status 200 and
// the given raw body instead of the normal handler's response.
func (s *Server) Respond(key, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key] = failure{status: http.StatusOK, raw: body}
}

// ClearFailures removes all injected failures and canned responses.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]failure)
}

// Hold installs a gate on key. Matching requests block until the gate is
// released or the client gives up.
func (s *Server) Hold(key string) *Gate {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &Gate{entered: make(chan struct{}), release: make(chan struct{})}
	s.gates[key] = g
	return g
}

func (s *Server) releaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.gates {
		g.Release()
	}
}

// Calls returns how many requests matched key.
func (s *Server) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// TotalCalls returns the number of requests served.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// intercept records calls and applies gates and injected failures.
func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.calls[key]++
		s.total++
		g := s.gates[key]
		s.mu.Unlock()

		if g != nil {
			g.once.Do(func() { close(g.entered) })
			select {
			case <-g.release:
			case <-r.Context().Done():
				return
			}
		}

		s.mu.Lock()
		f, failing := s.failures[key]
		s.mu.Unlock()
		if failing && f.raw != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.raw))
			return
		}
		if failing {
			writeJSON(w, f.status, map[string]interface{}{
				"@type":             "hydra:Error",
				"hydra:title":       "An error occurred",
				"hydra:description": f.description,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authed resolves the bearer token to an address.
func (s *Server) authed(h func(w http.ResponseWriter, r *http.Request, address string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		address, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"code":    401,
				"message": "JWT Token not found",
			})
			return
		}
		h(w, r, address)
	}
}

func (s *Server) listDomains(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	domains := append([]model.Domain(nil), s.domains...)
	s.mu.Unlock()
	writeCollection(w, domains)
}

type credentials struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeViolation(w, "Invalid JSON body")
		return
	}

	at := strings.LastIndex(c.Address, "@")
	if at <= 0 {
		writeViolation(w, "address: This value is not a valid email address.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	domain := c.Address[at+1:]
	known := false
	for _, d := range s.domains {
		if d.Domain == domain {
			known = true
		}
	}
	if !known {
		writeViolation(w, "address: This domain is not valid.")
		return
	}
	if _, exists := s.accounts[c.Address]; exists {
		writeViolation(w, "address: This value is already used.")
		return
	}

	a := &account{id: uuid.NewString(), address: c.Address, password: c.Password}
	s.accounts[c.Address] = a
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":        a.id,
		"address":   a.address,
		"quota":     40000000,
		"used":      0,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeViolation(w, "Invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[c.Address]
	if !ok || a.password != c.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"code":    401,
			"message": "Invalid credentials.",
		})
		return
	}
	token := uuid.NewString()
	s.tokens[token] = a.address
	writeJSON(w, http.StatusOK, map[string]string{"id": a.id, "token": token})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, address string) {
	s.mu.Lock()
	a := s.accounts[address]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      a.id,
		"address": a.address,
	})
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request, address string) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accounts[address]
	if a == nil || a.id != id {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Access Denied."})
		return
	}
	delete(s.accounts, address)
	delete(s.messages, address)
	for tok, addr := range s.tokens {
		if addr == address {
			delete(s.tokens, tok)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request, address string) {
	s.mu.Lock()
	inbox := s.messages[address]
	summaries := make([]model.Message, 0, len(inbox))
	for _, d := range inbox {
		summaries = append(summaries, d.Message)
	}
	s.mu.Unlock()
	writeCollection(w, summaries)
}

// find returns the index of message id in the inbox of address, or -1.
// The caller must hold s.mu.
func (s *Server) find(address, id string) int {
	for i, d := range s.messages[address] {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) getMessage(w http.ResponseWriter, r *http.Request, address string) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	i := s.find(address, id)
	var d model.MessageDetails
	if i >= 0 {
		d = s.messages[address][i]
	}
	s.mu.Unlock()

	if i < 0 {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) patchMessage(w http.ResponseWriter, r *http.Request, address string) {
	id := mux.Vars(r)["id"]
	var patch struct {
		Seen bool `json:"seen"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeViolation(w, "Invalid JSON body")
		return
	}

	s.mu.Lock()
	i := s.find(address, id)
	if i >= 0 {
		s.messages[address][i].Seen = patch.Seen
	}
	s.mu.Unlock()

	if i < 0 {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"seen": patch.Seen})
}

func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request, address string) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	i := s.find(address, id)
	if i >= 0 {
		inbox := s.messages[address]
		s.messages[address] = append(inbox[:i:i], inbox[i+1:]...)
	}
	s.mu.Unlock()

	if i < 0 {
		writeNotFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getSource(w http.ResponseWriter, r *http.Request, address string) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	i := s.find(address, id)
	raw, custom := s.sources[id]
	var d model.MessageDetails
	if i >= 0 {
		d = s.messages[address][i]
	}
	s.mu.Unlock()

	if i < 0 {
		writeNotFound(w)
		return
	}
	if !custom {
		raw = fmt.Sprintf(
			"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
			d.From.String(), d.Recipients(), d.Subject, d.Text,
		)
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":          id,
		"downloadUrl": "/messages/" + id + "/download",
		"data":        raw,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeCollection[T any](w http.ResponseWriter, items []T) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"hydra:member":     items,
		"hydra:totalItems": len(items),
	})
}

func writeViolation(w http.ResponseWriter, description string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
		"@type":             "ConstraintViolationList",
		"hydra:title":       "An error occurred",
		"hydra:description": description,
	})
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"@type":             "hydra:Error",
		"hydra:title":       "An error occurred",
		"hydra:description": "Not Found",
	})
}
