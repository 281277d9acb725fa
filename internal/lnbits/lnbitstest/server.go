// Package lnbitstest runs an in-memory fake of the LNbits atmbitbit extension
// for tests.
package lnbitstest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/five82/atmbitbit/internal/lnbits"
)

// Call records one request the fake received.
type Call struct {
	Method   string
	Path     string
	Query    string
	AdminKey string
	Body     map[string]any
}

// Server is a fake LNbits instance with a single user owning the given wallets.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	wallets  map[string]string // admin key -> wallet id
	items    map[string]lnbits.AtmBitBit
	calls    []Call
	failures map[string]failure
	seq      int
}

type failure struct {
	status int
	detail string
}

const notFoundDetail = "AtmBitBit configuration not found."

// New starts a fake server that is closed when the test ends.
func New(t testing.TB, wallets ...lnbits.Wallet) *Server {
	t.Helper()
	s := &Server{
		wallets:  make(map[string]string),
		items:    make(map[string]lnbits.AtmBitBit),
		failures: make(map[string]failure),
	}
	for _, w := range wallets {
		s.wallets[w.AdminKey] = w.ID
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/atmbitbit/api/v1", func(r chi.Router) {
		r.Get("/atmbitbits", s.list)
		r.Post("/atmbitbit", s.create)
		r.Get("/atmbitbit/{id}", s.get)
		r.Put("/atmbitbit/{id}", s.update)
		r.Delete("/atmbitbit/{id}", s.destroy)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Seed stores items as if they had been created earlier.
func (s *Server) Seed(items ...lnbits.AtmBitBit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.items[item.ID] = item
	}
}

// Remove drops an item behind the client's back.
func (s *Server) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// Fail makes every request with method answer status/detail until cleared
// with Fail(method, 0, "").
func (s *Server) Fail(method string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, method)
		return
	}
	s.failures[method] = failure{status: status, detail: detail}
}

// Calls returns a copy of the recorded requests.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the recorded requests with the given method.
func (s *Server) CallsTo(method string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Items returns the stored items ordered by id.
func (s *Server) Items() []lnbits.AtmBitBit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]lnbits.AtmBitBit, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := Call{
			Method:   r.Method,
			Path:     r.URL.Path,
			Query:    r.URL.RawQuery,
			AdminKey: r.Header.Get("X-Api-Key"),
		}
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				_ = json.Unmarshal(raw, &call.Body)
			}
			r.Body = io.NopCloser(bytes.NewReader(raw))
		}

		s.mu.Lock()
		s.calls = append(s.calls, call)
		fail, failing := s.failures[r.Method]
		_, known := s.wallets[call.AdminKey]
		s.mu.Unlock()

		if failing {
			writeDetail(w, fail.status, fail.detail)
			return
		}
		if !known {
			writeDetail(w, http.StatusUnauthorized, "Invalid adminkey.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed := map[string]bool{s.wallets[r.Header.Get("X-Api-Key")]: true}
	if r.URL.Query().Get("all_wallets") == "true" {
		for _, id := range s.wallets {
			allowed[id] = true
		}
	}
	out := make([]lnbits.AtmBitBit, 0, len(s.items))
	for _, item := range s.items {
		if allowed[item.Wallet] {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.owned(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, notFoundDetail)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var input lnbits.AtmBitBitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	secret := fmt.Sprintf("%064x", s.seq)
	encoding := "hex"
	item := lnbits.AtmBitBit{
		ID:                   fmt.Sprintf("atm%04d", s.seq),
		Wallet:               s.wallets[r.Header.Get("X-Api-Key")],
		APIKeyID:             fmt.Sprintf("%016x", 0xa000+s.seq),
		APIKeySecret:         &secret,
		APIKeyEncoding:       &encoding,
		Name:                 input.Name,
		FiatCurrency:         input.FiatCurrency,
		ExchangeRateProvider: input.ExchangeRateProvider,
		Fee:                  input.Fee,
	}
	s.items[item.ID] = item
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	var input lnbits.AtmBitBitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.owned(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, notFoundDetail)
		return
	}
	item.Name = input.Name
	item.FiatCurrency = input.FiatCurrency
	item.ExchangeRateProvider = input.ExchangeRateProvider
	item.Fee = input.Fee
	s.items[item.ID] = item
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) destroy(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.owned(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, notFoundDetail)
		return
	}
	delete(s.items, item.ID)
	// FastAPI serializes the ("", 204) tuple as a JSON array with status 200.
	writeJSON(w, http.StatusOK, []any{"", http.StatusNoContent})
}

// owned must be called with s.mu held.
func (s *Server) owned(r *http.Request) (lnbits.AtmBitBit, bool) {
	item, ok := s.items[chi.URLParam(r, "id")]
	if !ok || item.Wallet != s.wallets[r.Header.Get("X-Api-Key")] {
		return lnbits.AtmBitBit{}, false
	}
	return item, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
