// Package testserver is an in-memory fake of the aetherfy vectors service
// for tests. It keeps collections, payload schemas and points, enforces
// If-Match on upserts, and lets tests script replies ahead of the fake.
package testserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/schema"
)

// APIKey is accepted by servers created with New.
const APIKey = "afy_test_0123456789abcdefghij"

// Reply is a scripted response.
type Reply struct {
	Status int
	Body   any
	Header http.Header
}

// Call is a recorded request.
type Call struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

type collectionState struct {
	size     int
	distance string
	version  int
	points   map[string]storedPoint
}

type storedPoint struct {
	ID      json.RawMessage `json:"id"`
	Vector  []float32       `json:"vector"`
	Payload map[string]any  `json:"payload,omitempty"`
}

type schemaState struct {
	schema      schema.Schema
	enforcement string
	version     int
}

// Server is a running fake service.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	collections map[string]*collectionState
	schemas     map[string]*schemaState
	scripts     map[string][]Reply
	calls       []Call
}

// New starts a fake accepting APIKey. Close it when done.
func New() *Server {
	return NewWithKeys(APIKey)
}

// NewWithKeys starts a fake accepting the given keys; no keys disables auth.
func NewWithKeys(keys ...string) *Server {
	s := &Server{
		collections: make(map[string]*collectionState),
		schemas:     make(map[string]*schemaState),
		scripts:     make(map[string][]Reply),
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(bearerAuth(keys))
	r.Use(s.scripted)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/collections", s.listCollections)
	r.Post("/collections", s.createCollection)
	r.Get("/collections/{name}", s.getCollection)
	r.Delete("/collections/{name}", s.deleteCollection)
	r.Put("/collections/{name}/points", s.upsertPoints)
	r.Post("/collections/{name}/points", s.retrievePoints)
	r.Post("/collections/{name}/points/delete", s.deletePoints)
	r.Post("/collections/{name}/points/search", s.searchPoints)
	r.Post("/collections/{name}/points/count", s.countPoints)
	r.Get("/schema/{name}", s.getSchema)
	r.Put("/schema/{name}", s.putSchema)
	r.Delete("/schema/{name}", s.deleteSchema)
	r.Post("/schema/{name}/analyze", s.analyzeSchema)
	r.Get("/analytics/usage", s.usage)

	s.Server = httptest.NewServer(r)
	return s
}

// AddCollection creates a collection directly.
func (s *Server) AddCollection(name string, size int, distance string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = &collectionState{
		size: size, distance: distance, version: 1, points: make(map[string]storedPoint),
	}
}

// SetSchema installs or replaces a payload schema and returns its ETag.
func (s *Server) SetSchema(name string, sc schema.Schema, enforcement schema.Enforcement) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setSchemaLocked(name, sc, string(enforcement))
}

// BumpVersion simulates a concurrent schema change on the server: the
// collection version and the payload schema ETag (if any) both move on.
func (s *Server) BumpVersion(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		c.version++
	}
	if sc, ok := s.schemas[name]; ok {
		sc.version++
	}
}

// Script queues replies for method and path (e.g. "PUT", "/collections/docs/points").
// Queued replies are served in order before the fake handles the route again.
func (s *Server) Script(method, path string, replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.scripts[key] = append(s.scripts[key], replies...)
}

// Calls returns the recorded requests.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns the recorded requests for method and path.
func (s *Server) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// PointCount returns the number of stored points in a collection.
func (s *Server) PointCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		return len(c.points)
	}
	return 0
}

// Payload returns a stored point's payload, by its JSON id text (e.g. `1` or `"a"`).
func (s *Server) Payload(name, id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, false
	}
	p, ok := c.points[id]
	return p.Payload, ok
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) scripted(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		queue := s.scripts[key]
		var reply *Reply
		if len(queue) > 0 {
			reply = &queue[0]
			s.scripts[key] = queue[1:]
		}
		s.mu.Unlock()

		if reply == nil {
			next.ServeHTTP(w, r)
			return
		}
		for k, vs := range reply.Header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		if reply.Body == nil {
			w.WriteHeader(reply.Status)
			return
		}
		writeJSON(w, reply.Status, reply.Body)
	})
}

func (s *Server) setSchemaLocked(name string, sc schema.Schema, enforcement string) string {
	st, ok := s.schemas[name]
	if !ok {
		st = &schemaState{}
		s.schemas[name] = st
	}
	st.schema = sc
	st.enforcement = enforcement
	st.version++
	return schemaETag(name, st.version)
}

func schemaETag(name string, version int) string {
	return fmt.Sprintf("%s-schema-v%d", name, version)
}

func collectionETag(name string, version int) string {
	return fmt.Sprintf("%s-v%d", name, version)
}

// collection looks up name and writes a 404 when it is missing.
// The caller must hold s.mu.
func (s *Server) collection(w http.ResponseWriter, name string) (*collectionState, bool) {
	c, ok := s.collections[name]
	if !ok {
		writeError(w, http.StatusNotFound, "COLLECTION_NOT_FOUND", fmt.Sprintf("collection %q not found", name))
	}
	return c, ok
}

func (s *Server) listCollections(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.collections))
	for n := range s.collections {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]map[string]any, 0, len(names))
	for _, n := range names {
		out = append(out, collectionBody(n, s.collections[n]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": out})
}

func (s *Server) createCollection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		Vectors struct {
			Size     int    `json:"size"`
			Distance string `json:"distance"`
		} `json:"vectors"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" || body.Vectors.Size <= 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid collection config")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[body.Name]; ok {
		writeError(w, http.StatusBadRequest, "COLLECTION_EXISTS", "collection already exists")
		return
	}
	s.collections[body.Name] = &collectionState{
		size: body.Vectors.Size, distance: body.Vectors.Distance, version: 1, points: make(map[string]storedPoint),
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": true})
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collection(w, name)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":         collectionBody(name, c),
		"schema_version": collectionETag(name, c.version),
	})
}

func collectionBody(name string, c *collectionState) map[string]any {
	return map[string]any{
		"name": name,
		"config": map[string]any{
			"params": map[string]any{
				"vectors": map[string]any{"size": c.size, "distance": c.distance},
			},
		},
		"points_count": len(c.points),
		"status":       "green",
	}
}

func (s *Server) deleteCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collection(w, name); !ok {
		return
	}
	delete(s.collections, name)
	delete(s.schemas, name)
	writeJSON(w, http.StatusOK, map[string]any{"result": true})
}

func (s *Server) upsertPoints(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body struct {
		Points []storedPoint `json:"points"`
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collection(w, name)
	if !ok {
		return
	}

	if ifMatch := r.Header.Get("If-Match"); ifMatch != "" && ifMatch != s.currentETagLocked(name, c) {
		writeError(w, http.StatusPreconditionFailed, "PRECONDITION_FAILED", "schema version mismatch")
		return
	}
	for _, p := range body.Points {
		if len(p.Vector) != c.size {
			writeError(w, http.StatusBadRequest, "VECTOR_DIM_MISMATCH",
				fmt.Sprintf("expected dimension %d, got %d", c.size, len(p.Vector)))
			return
		}
	}
	for _, p := range body.Points {
		c.points[string(p.ID)] = p
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{"status": "completed"}})
}

// currentETagLocked is the token an upsert must present: the payload schema
// ETag when a schema exists, else the collection version.
func (s *Server) currentETagLocked(name string, c *collectionState) string {
	if sc, ok := s.schemas[name]; ok {
		return schemaETag(name, sc.version)
	}
	return collectionETag(name, c.version)
}

func (s *Server) retrievePoints(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body struct {
		IDs         []json.RawMessage `json:"ids"`
		WithPayload bool              `json:"with_payload"`
		WithVector  bool              `json:"with_vector"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collection(w, name)
	if !ok {
		return
	}
	out := make([]storedPoint, 0, len(body.IDs))
	for _, id := range body.IDs {
		p, ok := c.points[string(id)]
		if !ok {
			continue
		}
		out = append(out, project(p, body.WithPayload, body.WithVector))
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": out})
}

func project(p storedPoint, withPayload, withVector bool) storedPoint {
	if !withPayload {
		p.Payload = nil
	}
	if !withVector {
		p.Vector = nil
	}
	return p
}

func (s *Server) deletePoints(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body struct {
		Points []json.RawMessage `json:"points"`
		Filter map[string]any    `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collection(w, name)
	if !ok {
		return
	}
	for _, id := range body.Points {
		delete(c.points, string(id))
	}
	if body.Filter != nil {
		for id, p := range c.points {
			if matches(p.Payload, body.Filter) {
				delete(c.points, id)
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{"status": "completed"}})
}

func (s *Server) searchPoints(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body struct {
		Vector      []float32      `json:"vector"`
		Limit       int            `json:"limit"`
		Offset      int            `json:"offset"`
		WithPayload bool           `json:"with_payload"`
		WithVector  bool           `json:"with_vector"`
		Filter      map[string]any `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collection(w, name)
	if !ok {
		return
	}
	if len(body.Vector) != c.size {
		writeError(w, http.StatusBadRequest, "VECTOR_DIM_MISMATCH", "query vector dimension mismatch")
		return
	}

	type hit struct {
		storedPoint
		Score float64 `json:"score"`
	}
	hits := make([]hit, 0, len(c.points))
	for _, p := range c.points {
		if body.Filter != nil && !matches(p.Payload, body.Filter) {
			continue
		}
		hits = append(hits, hit{storedPoint: project(p, body.WithPayload, body.WithVector), Score: dot(body.Vector, p.Vector)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return string(hits[i].ID) < string(hits[j].ID)
	})
	hits = page(hits, body.Offset, body.Limit)
	writeJSON(w, http.StatusOK, map[string]any{"result": hits})
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func (s *Server) countPoints(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body struct {
		Filter map[string]any `json:"filter"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collection(w, name)
	if !ok {
		return
	}
	n := 0
	for _, p := range c.points {
		if body.Filter == nil || matches(p.Payload, body.Filter) {
			n++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": n})
}

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schemas[name]
	if !ok {
		writeError(w, http.StatusNotFound, "SCHEMA_NOT_FOUND", fmt.Sprintf("no schema for collection %q", name))
		return
	}
	etag := schemaETag(name, sc.version)
	w.Header().Set("ETag", strconv.Quote(etag))
	writeJSON(w, http.StatusOK, map[string]any{
		"schema":           sc.schema,
		"enforcement_mode": sc.enforcement,
		"etag":             etag,
	})
}

func (s *Server) putSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body struct {
		Schema          schema.Schema `json:"schema"`
		EnforcementMode string        `json:"enforcement_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid schema")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collection(w, name); !ok {
		return
	}
	etag := s.setSchemaLocked(name, body.Schema, body.EnforcementMode)
	writeJSON(w, http.StatusOK, map[string]any{"etag": etag})
}

func (s *Server) deleteSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schemas[name]; !ok {
		writeError(w, http.StatusNotFound, "SCHEMA_NOT_FOUND", "schema not found")
		return
	}
	delete(s.schemas, name)
	if c, ok := s.collections[name]; ok {
		c.version++
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": true})
}

func (s *Server) analyzeSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body struct {
		SampleSize int `json:"sample_size"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collection(w, name)
	if !ok {
		return
	}

	seen := make(map[string]int)
	kinds := make(map[string]schema.Type)
	sampled := 0
	for _, p := range c.points {
		if sampled >= body.SampleSize && body.SampleSize > 0 {
			break
		}
		sampled++
		for k, v := range p.Payload {
			seen[k]++
			kinds[k] = schema.DetectType(v)
		}
	}

	fields := make(map[string]any, len(seen))
	suggested := schema.Schema{Fields: make(map[string]schema.FieldDefinition, len(seen))}
	for k, n := range seen {
		fields[k] = map[string]any{"type": kinds[k], "count": n}
		suggested.Fields[k] = schema.FieldDefinition{Type: kinds[k], Required: n == sampled}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection":         name,
		"sample_size":        sampled,
		"total_points":       len(c.points),
		"fields":             fields,
		"suggested_schema":   suggested,
		"processing_time_ms": 1,
	})
}

func (s *Server) usage(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	points := 0
	for _, c := range s.collections {
		points += len(c.points)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"current_collections":    len(s.collections),
		"max_collections":        10,
		"current_points":         points,
		"max_points":             100000,
		"requests_this_month":    len(s.calls),
		"max_requests_per_month": 1000000,
		"storage_used_mb":        0.5,
		"max_storage_mb":         1024,
		"plan_name":              "test",
	})
}

// matches evaluates the must/must_not match subset of a filter.
func matches(payload, f map[string]any) bool {
	for _, c := range conditions(f["must"]) {
		if !condition(payload, c) {
			return false
		}
	}
	for _, c := range conditions(f["must_not"]) {
		if condition(payload, c) {
			return false
		}
	}
	return true
}

func conditions(v any) []map[string]any {
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func condition(payload, c map[string]any) bool {
	key, _ := c["key"].(string)
	got, ok := payload[key]
	if !ok {
		return false
	}
	if m, ok := c["match"].(map[string]any); ok {
		return fmt.Sprint(got) == fmt.Sprint(m["value"])
	}
	if rg, ok := c["range"].(map[string]any); ok {
		n, ok := got.(json.Number)
		if !ok {
			return false
		}
		x, err := n.Float64()
		if err != nil {
			return false
		}
		return bound(rg, "gt", func(b float64) bool { return x > b }) &&
			bound(rg, "gte", func(b float64) bool { return x >= b }) &&
			bound(rg, "lt", func(b float64) bool { return x < b }) &&
			bound(rg, "lte", func(b float64) bool { return x <= b })
	}
	return false
}

func bound(rg map[string]any, op string, ok func(float64) bool) bool {
	b, present := rg[op].(float64)
	return !present || ok(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"message":    message,
		"error_code": code,
		"request_id": "req_test",
	})
}
