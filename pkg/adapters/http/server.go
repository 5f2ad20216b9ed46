// Package http serves the page designer over HTTP: page reads, block and
// field actions, collection metadata, a Mermaid view of the tree, Prometheus
// metrics and a Server-Sent Events stream of mutation events.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/blocks"
	"github.com/aretw0/blocks/internal/logging"
	"github.com/aretw0/blocks/internal/presentation/graph"
	"github.com/aretw0/blocks/internal/runtime"
	"github.com/aretw0/blocks/internal/sanitize"
	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/observability"
	"github.com/aretw0/blocks/pkg/registry"
	"github.com/aretw0/blocks/pkg/tree"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the handlers of the designer API.
type Server struct {
	Engine   *blocks.Engine
	Events   *observability.Broadcaster
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithEvents enables the SSE endpoint.
func WithEvents(b *observability.Broadcaster) Option {
	return func(s *Server) {
		s.Events = b
	}
}

// WithGatherer sets the registry served on /metrics. The default is the
// global Prometheus registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine *blocks.Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:   engine,
		Gatherer: prometheus.DefaultGatherer,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/catalog", s.GetCatalog)

	r.Route("/pages", func(r chi.Router) {
		r.Get("/", s.ListPages)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetPage)
			r.Delete("/", s.DeletePage)
			r.Get("/graph", s.GetGraph)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/blocks", s.AddBlock)
			r.Post("/panes", s.AddPaneBlock)
			r.Post("/notes", s.AddNote)
			r.Post("/fields/toggle", s.ToggleField)
			r.Post("/fields", s.AddCollectionField)
			r.Delete("/nodes", s.RemoveNode)
			r.Post("/reload", s.Reload)
		})
	})

	r.Route("/collections", func(r chi.Router) {
		r.Get("/", s.ListCollections)
		r.Post("/", s.CreateCollection)
		r.Post("/{name}/fields", s.CreateCollectionField)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// placement is the common part of every insert request.
type placement struct {
	// Target is the path of the node the block is placed against.
	Target string `json:"target"`
	// Action is insertBefore, insertAfter or appendChild.
	Action string `json:"action"`
}

func (p placement) resolve() (domain.Path, tree.Op, error) {
	if err := sanitize.All(&p.Target, &p.Action); err != nil {
		return nil, "", err
	}
	op := tree.OpInsertAfter
	switch tree.Op(p.Action) {
	case "":
	case tree.OpInsertBefore, tree.OpInsertAfter, tree.OpAppendChild:
		op = tree.Op(p.Action)
	default:
		return nil, "", fmt.Errorf("unknown action %q", p.Action)
	}
	return domain.ParsePath(p.Target), op, nil
}

type blockRequest struct {
	placement
	runtime.Selection
}

type toggleRequest struct {
	placement
	Name string `json:"name"`
}

type fieldRequest struct {
	placement
	Collection string         `json:"collection"`
	Field      map[string]any `json:"field"`
}

// PageResponse is a page plus the names of its displayed fields.
type PageResponse struct {
	Page      *domain.Page `json:"page"`
	Displayed []string     `json:"displayed"`
	Live      bool         `json:"live"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "blocks-http",
		"version": strings.TrimSpace(blocks.Version),
	})
}

// GetCatalog handles the GET /catalog request.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.Engine.Catalog()
	menus := make(map[string]any)
	for _, name := range cat.Menus() {
		menus[name] = cat.Menu(name)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"menus":      menus,
		"interfaces": cat.Interfaces(),
	})
}

// ListPages handles the GET /pages request.
func (s *Server) ListPages(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Pages(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"pages": ids})
}

// GetPage returns the live tree when a session is open, and the stored
// copy otherwise.
func (s *Server) GetPage(w http.ResponseWriter, r *http.Request) {
	resp, err := s.page(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) page(r *http.Request) (PageResponse, error) {
	id := chi.URLParam(r, "id")
	if sess, ok := s.Engine.Session(id); ok {
		return PageResponse{Page: sess.Snapshot(), Displayed: sess.Displayed(), Live: true}, nil
	}
	page, err := s.Engine.Page(r.Context(), id)
	if err != nil {
		return PageResponse{}, err
	}
	return PageResponse{Page: page, Displayed: displayedNames(page.Root)}, nil
}

// DeletePage handles the DELETE /pages/{id} request.
func (s *Server) DeletePage(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph renders the page tree as a Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	resp, err := s.page(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	overlay := &graph.GraphOverlay{
		Displayed: displayedKeys(resp.Page.Root),
		Current:   r.URL.Query().Get("current"),
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(resp.Page.Root, overlay))
}

// AddBlock handles the POST /pages/{id}/blocks request.
func (s *Server) AddBlock(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if !s.decode(w, r, &req) || !s.clean(w, &req.Key, &req.Menu, &req.Collection, &req.Title) {
		return
	}
	s.act(w, r, req.placement, func(sess *blocks.Session, target domain.Path, op tree.Op) (blocks.Change, error) {
		return sess.AddBlock(r.Context(), req.Selection, target, op)
	})
}

// AddPaneBlock handles the POST /pages/{id}/panes request.
func (s *Server) AddPaneBlock(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if !s.decode(w, r, &req) || !s.clean(w, &req.Key) {
		return
	}
	s.act(w, r, req.placement, func(sess *blocks.Session, target domain.Path, op tree.Op) (blocks.Change, error) {
		return sess.AddPaneBlock(r.Context(), req.Key, target, op)
	})
}

// AddNote handles the POST /pages/{id}/notes request.
func (s *Server) AddNote(w http.ResponseWriter, r *http.Request) {
	var req placement
	if !s.decode(w, r, &req) {
		return
	}
	s.act(w, r, req, func(sess *blocks.Session, target domain.Path, op tree.Op) (blocks.Change, error) {
		return sess.AddNote(r.Context(), target, op)
	})
}

// ToggleField handles the POST /pages/{id}/fields/toggle request.
func (s *Server) ToggleField(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if !s.decode(w, r, &req) || !s.clean(w, &req.Name) {
		return
	}
	if req.Name == "" {
		s.writeJSON(w, http.StatusBadRequest, errorBody("name is required", ""))
		return
	}
	s.act(w, r, req.placement, func(sess *blocks.Session, target domain.Path, op tree.Op) (blocks.Change, error) {
		return sess.ToggleField(r.Context(), req.Name, target, op)
	})
}

// AddCollectionField handles the POST /pages/{id}/fields request.
func (s *Server) AddCollectionField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !s.decode(w, r, &req) || !s.clean(w, &req.Collection) {
		return
	}
	s.act(w, r, req.placement, func(sess *blocks.Session, target domain.Path, op tree.Op) (blocks.Change, error) {
		return sess.AddCollectionField(r.Context(), req.Collection, req.Field, target, op)
	})
}

// RemoveNode handles DELETE /pages/{id}/nodes?path=a/b/c.
func (s *Server) RemoveNode(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("path")
	if !s.clean(w, &raw) {
		return
	}
	path := domain.ParsePath(raw)
	s.act(w, r, placement{}, func(sess *blocks.Session, _ domain.Path, _ tree.Op) (blocks.Change, error) {
		return sess.Remove(r.Context(), path)
	})
}

// Reload handles the POST /pages/{id}/reload request.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Engine.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sess.Reload(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PageResponse{Page: sess.Snapshot(), Displayed: sess.Displayed(), Live: true})
}

// ListCollections handles the GET /collections request.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.Engine.Collections().ListCollections(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if cols == nil {
		cols = []domain.Collection{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"collections": cols})
}

// CreateCollection handles the POST /collections request.
func (s *Server) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var def map[string]any
	if !s.decode(w, r, &def) {
		return
	}
	c, err := s.Engine.Collections().CreateOrUpdateCollection(r.Context(), def)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, c)
}

// CreateCollectionField handles the POST /collections/{name}/fields request.
func (s *Server) CreateCollectionField(w http.ResponseWriter, r *http.Request) {
	var def map[string]any
	if !s.decode(w, r, &def) {
		return
	}
	f, err := s.Engine.Collections().CreateCollectionField(r.Context(), chi.URLParam(r, "name"), def)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, f)
}

type action func(sess *blocks.Session, target domain.Path, op tree.Op) (blocks.Change, error)

// act opens the page session and runs fn. A persistence failure still
// returns the change: the tree did change.
func (s *Server) act(w http.ResponseWriter, r *http.Request, p placement, fn action) {
	target, op, err := p.resolve()
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody(err.Error(), ""))
		return
	}
	sess, err := s.Engine.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ch, err := fn(sess, target, op)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ch)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.Logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body", ""))
		return false
	}
	return true
}

// clean sanitizes request strings in place, answering 400 on bad input.
func (s *Server) clean(w http.ResponseWriter, values ...*string) bool {
	if err := sanitize.All(values...); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody(err.Error(), ""))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

func errorBody(msg, kind string) map[string]string {
	body := map[string]string{"error": msg}
	if kind != "" {
		body["kind"] = kind
	}
	return body
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", r.URL.Path, "status", status, "err", err)
	} else {
		s.Logger.Debug("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	s.writeJSON(w, status, errorBody(err.Error(), runtime.ErrorKind(err)))
}

// StatusFor maps a designer error to an HTTP status code.
func StatusFor(err error) int {
	if errors.Is(err, domain.ErrPageNotFound) {
		return http.StatusNotFound
	}
	switch runtime.ErrorKind(err) {
	case "path_not_found", "collection":
		if errors.Is(err, runtime.ErrNoCollections) {
			return http.StatusNotImplemented
		}
		return http.StatusNotFound
	case "duplicate_key":
		return http.StatusConflict
	case "validation", "blueprint", "detached", "invalid_target":
		return http.StatusUnprocessableEntity
	case "persistence":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// displayedNames lists the fields a stored tree displays.
func displayedNames(root *domain.Node) []string {
	reg := registry.NewRegistry()
	if root != nil {
		_ = reg.Rebuild(root)
	}
	return reg.Names()
}

func displayedKeys(root *domain.Node) []string {
	if root == nil {
		return nil
	}
	var keys []string
	root.Walk(func(n *domain.Node) bool {
		if name, err := registry.DisplayedName(n); err == nil && name != "" {
			keys = append(keys, n.Key)
		}
		return true
	})
	return keys
}
