// Package pipedrivetest runs an in-process fake of the Pipedrive v2 API for
// tests. It stores persons, deals and notes in memory as raw JSON, checks the
// api_token query parameter, records every request it receives, and can be
// told to fail the next requests with a given status.
package pipedrivetest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/tansive/tansive-pipedrive/internal/common/httpx"
	"github.com/tansive/tansive-pipedrive/internal/common/middleware"
)

// APIPrefix is the path under which the fake API is mounted.
const APIPrefix = "/api/v2"

// Entities served by the fake, with the field each requires on create.
var requiredOnCreate = map[string]string{
	"persons": "name",
	"deals":   "title",
	"notes":   "content",
}

// Request is a request as received by the fake.
type Request struct {
	Method   string
	Path     string
	Query    string
	Header   http.Header
	Body     string
	Received time.Time
}

// Failure is a canned response returned instead of the normal handling.
type Failure struct {
	Status int
	Body   string
}

// Server is the fake API. All methods are safe for concurrent use.
type Server struct {
	*httptest.Server
	Token string

	mu       sync.Mutex
	records  map[string]map[int]string
	nextID   map[string]int
	failures []Failure
	requests []Request
	now      func() time.Time
}

// NewServer starts a fake accepting token. Close it when done.
func NewServer(token string) *Server {
	s := &Server{
		Token:   token,
		records: make(map[string]map[int]string),
		nextID:  make(map[string]int),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for entity := range requiredOnCreate {
		s.records[entity] = make(map[int]string)
		s.nextID[entity] = 1
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// BaseURL returns the API root to configure clients with.
func (s *Server) BaseURL() string {
	return s.URL + APIPrefix
}

// SetClock fixes the time used for add_time and update_time.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailNext queues a canned response. Queued failures are served in order,
// one per request, before normal handling resumes.
func (s *Server) FailNext(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, Failure{Status: status, Body: body})
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestCount returns the number of requests received so far.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Seed stores record under entity and id, overwriting any existing one. The
// id member of record is set to id.
func (s *Server) Seed(entity string, id int, record string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, _ := sjson.Set(record, "id", id)
	s.store(entity)[id] = rec
	if id >= s.nextID[entity] {
		s.nextID[entity] = id + 1
	}
}

// Record returns the stored JSON of an entity.
func (s *Server) Record(entity string, id int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.store(entity)[id]
	return rec, ok
}

func (s *Server) store(entity string) map[int]string {
	m, ok := s.records[entity]
	if !ok {
		m = make(map[int]string)
		s.records[entity] = m
		s.nextID[entity] = 1
	}
	return m
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(middleware.PanicHandler)
	r.Use(s.recordRequest)
	r.Use(s.injectFailure)
	r.Use(s.authenticate)

	r.Route(APIPrefix+"/{entity}", func(r chi.Router) {
		r.Get("/", httpx.WrapHttpRsp(s.list))
		r.Post("/", httpx.WrapHttpRsp(s.create))
		r.Get("/{id}", httpx.WrapHttpRsp(s.get))
		r.Put("/{id}", httpx.WrapHttpRsp(s.update))
		r.Patch("/{id}", httpx.WrapHttpRsp(s.update))
		r.Delete("/{id}", httpx.WrapHttpRsp(s.delete))
	})
	return r
}

func (s *Server) recordRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:   r.Method,
			Path:     r.URL.Path,
			Query:    r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     string(body),
			Received: time.Now(),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var f *Failure
		if len(s.failures) > 0 {
			f = &s.failures[0]
			s.failures = s.failures[1:]
		}
		s.mu.Unlock()
		if f == nil {
			next.ServeHTTP(w, r)
			return
		}
		if gjson.Valid(f.Body) {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(f.Status)
		_, _ = io.WriteString(w, f.Body)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_token") != s.Token {
			httpx.ErrUnAuthorized("a valid api_token is required").Send(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func entityOf(r *http.Request) (string, error) {
	entity := chi.URLParam(r, "entity")
	if _, ok := requiredOnCreate[entity]; !ok {
		return "", httpx.ErrNotFound("unknown entity " + entity)
	}
	return entity, nil
}

func idOf(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, httpx.ErrInvalidRequest("id must be a positive integer")
	}
	return id, nil
}

func readObject(r *http.Request) (string, error) {
	var raw rawBody
	if err := httpx.GetRequestData(r, &raw); err != nil {
		return "", err
	}
	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return "", httpx.ErrInvalidRequest("request body must be a JSON object")
	}
	return obj.Raw, nil
}

func (s *Server) list(r *http.Request) (*httpx.Response, error) {
	entity, err := entityOf(r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.store(entity)))
	for id := range s.store(entity) {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := "[]"
	for _, id := range ids {
		out, _ = sjson.SetRaw(out, "-1", s.store(entity)[id])
	}
	return &httpx.Response{
		Data:           out,
		AdditionalData: `{"next_cursor":null}`,
	}, nil
}

func (s *Server) create(r *http.Request) (*httpx.Response, error) {
	entity, err := entityOf(r)
	if err != nil {
		return nil, err
	}
	rec, err := readObject(r)
	if err != nil {
		return nil, err
	}
	field := requiredOnCreate[entity]
	if v := gjson.Get(rec, field); !v.Exists() || v.String() == "" {
		return nil, httpx.ErrInvalidRequest(field + " is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID[entity]
	s.nextID[entity] = id + 1
	ts := s.now().Format(time.RFC3339)
	rec, _ = sjson.Set(rec, "id", id)
	rec, _ = sjson.Set(rec, "add_time", ts)
	rec, _ = sjson.Set(rec, "update_time", ts)
	s.store(entity)[id] = rec
	return &httpx.Response{StatusCode: http.StatusCreated, Data: rec}, nil
}

func (s *Server) get(r *http.Request) (*httpx.Response, error) {
	entity, err := entityOf(r)
	if err != nil {
		return nil, err
	}
	id, err := idOf(r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.store(entity)[id]
	if !ok {
		return nil, httpx.ErrNotFound()
	}
	return &httpx.Response{Data: rec}, nil
}

// update merges the top-level members of the body into the stored record.
func (s *Server) update(r *http.Request) (*httpx.Response, error) {
	entity, err := entityOf(r)
	if err != nil {
		return nil, err
	}
	id, err := idOf(r)
	if err != nil {
		return nil, err
	}
	patch, err := readObject(r)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.store(entity)[id]
	if !ok {
		return nil, httpx.ErrNotFound()
	}
	var setErr error
	gjson.Parse(patch).ForEach(func(key, value gjson.Result) bool {
		if key.String() == "id" {
			return true
		}
		rec, setErr = sjson.SetRaw(rec, escapePath(key.String()), value.Raw)
		return setErr == nil
	})
	if setErr != nil {
		return nil, httpx.ErrInvalidRequest(setErr.Error())
	}
	rec, _ = sjson.Set(rec, "update_time", s.now().Format(time.RFC3339))
	s.store(entity)[id] = rec
	return &httpx.Response{Data: rec}, nil
}

func (s *Server) delete(r *http.Request) (*httpx.Response, error) {
	entity, err := entityOf(r)
	if err != nil {
		return nil, err
	}
	id, err := idOf(r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.store(entity)[id]; !ok {
		return nil, httpx.ErrNotFound()
	}
	delete(s.store(entity), id)
	return &httpx.Response{Data: map[string]int{"id": id}}, nil
}
