// Package fakeapi is an in-memory stand-in for the QuickCart backend, for
// tests. It follows the backend's HTTP contract: the product list, carts
// keyed by session id, cookie-based login, and a cart-update event stream
// per session.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	cart "github.com/dwikikusuma/quickcart/internal/cart/domain"
	catalogapp "github.com/dwikikusuma/quickcart/internal/catalog/app"
	catalog "github.com/dwikikusuma/quickcart/internal/catalog/domain"
)

const (
	SessionCookie   = "JSESSIONID"
	EventCartUpdate = "cart-update"
)

type user struct {
	email    string
	password string
}

type event struct {
	name string
	data []byte
}

type Server struct {
	srv *httptest.Server

	requireLogin  bool
	streamTimeout time.Duration

	mu          sync.Mutex
	products    []catalog.Product
	failures    map[string]int
	carts       map[string]*cart.Cart
	users       map[string]user
	logins      map[string]string
	subscribers map[string]map[chan event]struct{}
	closed      chan struct{}
}

type Option func(*Server)

// RequireLogin makes every cart endpoint answer 401 without a valid login
// cookie.
func RequireLogin() Option {
	return func(s *Server) { s.requireLogin = true }
}

// WithStreamTimeout ends each event stream after d, like an emitter timeout.
func WithStreamTimeout(d time.Duration) Option {
	return func(s *Server) { s.streamTimeout = d }
}

func WithUser(username, email, password string) Option {
	return func(s *Server) { s.users[username] = user{email: email, password: password} }
}

// New starts a server with the given catalog.
func New(products []catalog.Product, opts ...Option) *Server {
	s := &Server{
		products:    products,
		failures:    make(map[string]int),
		carts:       make(map[string]*cart.Cart),
		users:       make(map[string]user),
		logins:      make(map[string]string),
		subscribers: make(map[string]map[chan event]struct{}),
		closed:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", s.handleProducts).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/cart/add", s.guard(s.handleAdd)).Methods(http.MethodPut)
	api.HandleFunc("/cart/remove", s.guard(s.handleRemove)).Methods(http.MethodDelete)
	api.HandleFunc("/cart/stream/{sessionId}", s.guard(s.handleStream)).Methods(http.MethodGet)
	api.HandleFunc("/cart/{sessionId}", s.guard(s.handleGetCart)).Methods(http.MethodGet)
	return r
}

// URL is the API base, including the /api prefix.
func (s *Server) URL() string { return s.srv.URL + "/api" }

// Close ends every open stream, then stops the server.
func (s *Server) Close() {
	s.mu.Lock()
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	s.mu.Unlock()
	s.srv.Close()
}

// Fail makes the next n requests to path (e.g. "/products") answer status.
func (s *Server) Fail(path string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status<<16 | n
}

// Expire drops every login, as a server restart would.
func (s *Server) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.logins)
}

// Cart returns a copy of the stored cart for sessionID.
func (s *Server) Cart(sessionID string) (cart.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[sessionID]
	if !ok {
		return cart.Cart{}, false
	}
	return c.Clone(), true
}

// Subscribers reports how many streams are open for sessionID.
func (s *Server) Subscribers(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers[sessionID])
}

// Publish sends a raw event to every stream of sessionID.
func (s *Server) Publish(sessionID, name, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked(sessionID, event{name: name, data: []byte(data)})
}

// DropStreams ends every open stream of sessionID from the server side.
func (s *Server) DropStreams(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers[sessionID] {
		close(ch)
	}
	delete(s.subscribers, sessionID)
}

func (s *Server) publishLocked(sessionID string, ev event) {
	for ch := range s.subscribers[sessionID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Server) broadcastLocked(sessionID string, c *cart.Cart) {
	b, err := json.Marshal(c)
	if err != nil {
		return
	}
	s.publishLocked(sessionID, event{name: EventCartUpdate, data: b})
}

// failure consumes one injected failure for path, if any.
func (s *Server) failure(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.failures[path]
	if !ok {
		return 0
	}
	status, n := v>>16, v&0xffff
	if n <= 1 {
		delete(s.failures, path)
	} else {
		s.failures[path] = status<<16 | (n - 1)
	}
	return status
}

func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.requireLogin && !s.loggedIn(r) {
			writeMessage(w, http.StatusUnauthorized, "Full authentication is required")
			return
		}
		next(w, r)
	}
}

func (s *Server) loggedIn(r *http.Request) bool {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.logins[c.Value]
	return ok
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	if status := s.failure("/products"); status != 0 {
		writeMessage(w, status, http.StatusText(status))
		return
	}
	s.mu.Lock()
	products := append([]catalog.Product(nil), s.products...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, products)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.Username]
	if !ok || u.password != req.Password {
		s.mu.Unlock()
		writeMessage(w, http.StatusUnauthorized, "Invalid username or password!")
		return
	}
	token := uuid.NewString()
	s.logins[token] = req.Username
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: token, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful", "username": req.Username})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.users[req.Username]; taken {
		writeMessage(w, http.StatusBadRequest, "Error: Username is already taken!")
		return
	}
	for _, u := range s.users {
		if u.email == req.Email {
			writeMessage(w, http.StatusBadRequest, "Error: Email is already in use!")
			return
		}
	}
	s.users[req.Username] = user{email: req.Email, password: req.Password}
	writeMessage(w, http.StatusOK, "User registered successfully!")
}

// handleGetCart answers an unknown session with an empty cart.
func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]
	if status := s.failure("/cart"); status != 0 {
		writeMessage(w, status, http.StatusText(status))
		return
	}

	s.mu.Lock()
	c, ok := s.carts[id]
	var out cart.Cart
	if ok {
		out = c.Clone()
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"id": nil, "items": nil, "totalAmount": 0})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type addRequest struct {
	SessionID string            `json:"sessionId"`
	ProductID catalog.ProductID `json:"productId"`
	Quantity  int               `json:"quantity"`
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := catalogapp.Find(s.products, req.ProductID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, fmt.Sprintf("Product not found: %s", req.ProductID))
		return
	}
	c := s.cartLocked(req.SessionID)
	c.AddOrIncrease(req.ProductID, req.Quantity, p.Price)
	touch(c)
	s.broadcastLocked(req.SessionID, c)
	writeJSON(w, http.StatusOK, c)
}

type removeRequest struct {
	SessionID string            `json:"sessionId"`
	ProductID catalog.ProductID `json:"productId"`
	Quantity  *int              `json:"quantity"`
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cartLocked(req.SessionID)
	if !c.DecreaseOrRemove(req.ProductID, req.Quantity) {
		writeJSON(w, http.StatusOK, c)
		return
	}
	touch(c)
	s.broadcastLocked(req.SessionID, c)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) cartLocked(sessionID string) *cart.Cart {
	c, ok := s.carts[sessionID]
	if !ok {
		empty := cart.Empty()
		empty.ID = sessionID
		c = &empty
		s.carts[sessionID] = c
	}
	return c
}

func touch(c *cart.Cart) {
	c.LastUpdated, _ = json.Marshal(time.Now().UTC())
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch := make(chan event, 64)
	s.mu.Lock()
	if s.subscribers[id] == nil {
		s.subscribers[id] = make(map[chan event]struct{})
	}
	s.subscribers[id][ch] = struct{}{}
	s.mu.Unlock()
	defer s.unsubscribe(id, ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var timeout <-chan time.Time
	if s.streamTimeout > 0 {
		t := time.NewTimer(s.streamTimeout)
		defer t.Stop()
		timeout = t.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.closed:
			return
		case <-timeout:
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, ev.data)
			flusher.Flush()
		}
	}
}

func (s *Server) unsubscribe(sessionID string, ch chan event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.subscribers[sessionID]
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	if len(subs) == 0 {
		delete(s.subscribers, sessionID)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
