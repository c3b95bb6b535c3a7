// Package remotetest provides an in-memory stand-in for the remote mirror's
// REST surface.
package remotetest

import (
	"encoding/json"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	userFilter = regexp.MustCompile(`user = "((?:[^"\\]|\\.)*)"`)
	textFilter = regexp.MustCompile(`title ~ "((?:[^"\\]|\\.)*)"`)
)

// Record mirrors remote.Record on the wire.
type Record struct {
	ID          string   `json:"id"`
	Collection  string   `json:"collectionName"`
	User        string   `json:"user,omitempty"`
	URL         string   `json:"url,omitempty"`
	Title       string   `json:"title,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Description string   `json:"description,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Comment     string   `json:"comment,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags"`
	Created     string   `json:"created"`
	Updated     string   `json:"updated"`
}

type user struct {
	id       string
	email    string
	password string
}

// Server holds users and collection records in memory.
type Server struct {
	router chi.Router
	secret []byte

	mu          sync.Mutex
	users       map[string]user
	collections map[string][]Record
	seq         int
	down        bool
}

// New returns a server knowing the given collections.
func New(collections ...string) *Server {
	s := &Server{
		secret:      []byte(uuid.NewString()),
		users:       map[string]user{},
		collections: map[string][]Record{},
	}
	for _, c := range collections {
		s.collections[c] = []Record{}
	}

	r := chi.NewRouter()
	r.Get("/api/health", s.health)
	r.Post("/api/collections/users/auth-with-password", s.authWithPassword)
	r.Route("/api/collections/{collection}/records", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Delete("/{id}", s.delete)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AddUser registers an account and returns its id.
func (s *Server) AddUser(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.users[email] = user{id: id, email: email, password: password}
	return id
}

// Token issues a signed token for userID.
func (s *Server) Token(userID string) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   userID,
		"type": "auth",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// SetDown makes every endpoint answer 503.
func (s *Server) SetDown(down bool) {
	s.mu.Lock()
	s.down = down
	s.mu.Unlock()
}

// Records returns a copy of a collection.
func (s *Server) Records(collection string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.collections[collection]...)
}

func (s *Server) isDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.down
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.isDown() {
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"code": 200, "message": "API is healthy."})
}

func (s *Server) authWithPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identity string `json:"identity"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.Identity]
	s.mu.Unlock()
	if !ok || u.password != req.Password {
		writeError(w, http.StatusBadRequest, "Failed to authenticate.")
		return
	}

	resp := map[string]any{
		"token":  s.Token(u.id),
		"record": map[string]string{"id": u.id, "email": u.email},
	}
	writeJSON(w, http.StatusOK, resp)
}

// authenticate rejects requests carrying an invalid bearer token. Anonymous
// requests pass through.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.isDown() {
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}
		if _, ok := s.collection(chi.URLParam(r, "collection")); !ok {
			writeError(w, http.StatusNotFound, "Missing collection context.")
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")
		_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "The request requires valid record authorization token.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) collection(name string) ([]Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, ok := s.collections[name]
	return records, ok
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	records, _ := s.collection(name)

	filter := r.URL.Query().Get("filter")
	matched := []Record{}
	for _, rec := range records {
		if matchFilter(rec, filter) {
			matched = append(matched, rec)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Created > matched[j].Created })

	page := atoiOr(r.URL.Query().Get("page"), 1)
	perPage := atoiOr(r.URL.Query().Get("perPage"), 30)
	totalPages := (len(matched) + perPage - 1) / perPage

	start := min((page-1)*perPage, len(matched))
	end := min(start+perPage, len(matched))

	writeJSON(w, http.StatusOK, map[string]any{
		"page":       page,
		"perPage":    perPage,
		"totalItems": len(matched),
		"totalPages": totalPages,
		"items":      matched[start:end],
	})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")

	var rec Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to load the submitted data.")
		return
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}

	s.mu.Lock()
	s.seq++
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Second)
	rec.ID = uuid.NewString()
	rec.Collection = name
	rec.Created = now.Format("2006-01-02 15:04:05.000Z")
	rec.Updated = rec.Created
	s.collections[name] = append(s.collections[name], rec)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.collections[name]
	for i, rec := range records {
		if rec.ID == id {
			s.collections[name] = append(records[:i:i], records[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "The requested resource wasn't found.")
}

// matchFilter understands the two clauses the client sends: an owner match and
// a case-insensitive text match.
func matchFilter(rec Record, filter string) bool {
	if m := userFilter.FindStringSubmatch(filter); m != nil && rec.User != unescape(m[1]) {
		return false
	}
	if m := textFilter.FindStringSubmatch(filter); m != nil {
		q := strings.ToLower(unescape(m[1]))
		for _, field := range []string{rec.Title, rec.URL, rec.Description, rec.Summary, rec.Comment} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}
	return true
}

func unescape(s string) string {
	return strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(s)
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"code": status, "message": msg, "data": map[string]any{}})
}
