// Package mcp exposes the page designer as Model Context Protocol tools, so
// an agent can read a page tree and add, toggle or remove blocks.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/blocks"
	"github.com/aretw0/blocks/internal/logging"
	"github.com/aretw0/blocks/internal/sanitize"
	"github.com/aretw0/blocks/pkg/catalog"
	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/tree"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const catalogURI = "blocks://catalog"

// PageResponse is the result of get_page.
type PageResponse struct {
	Page      *domain.Page `json:"page" jsonschema_description:"The page and its schema tree"`
	Displayed []string     `json:"displayed" jsonschema_description:"Names of the collection fields shown on the page"`
}

// CatalogResponse is the result of list_catalog.
type CatalogResponse struct {
	Menus      map[string][]catalog.Group `json:"menus" jsonschema_description:"Selectable blueprints by menu"`
	Interfaces []catalog.Interface        `json:"interfaces" jsonschema_description:"Field types for new collection fields"`
}

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    *blocks.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine *blocks.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("blocks-mcp", strings.TrimSpace(blocks.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Get a page schema tree and the fields it displays."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Page ID")),
		mcp.WithOutputSchema[PageResponse](),
	), mcp.NewStructuredToolHandler(sanitized(s.handleGetPage)))

	s.mcpServer.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Insert a catalog blueprint next to or inside the node at target. Blocks on the page grid are wrapped in a new row."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Page ID; created on first use")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Blueprint key, or collection.<name>.<Blueprint>")),
		mcp.WithString("menu", mcp.Description("Restrict key to this menu (card, pane, form)")),
		mcp.WithString("collection", mcp.Description("Bind the block to this existing collection")),
		mcp.WithBoolean("new_collection", mcp.Description("Create a collection and bind the block to it")),
		mcp.WithString("title", mcp.Description("Title of the new collection")),
		mcp.WithString("target", mcp.Description("Path of the reference node, keys joined by '/'; empty is the page root")),
		mcp.WithString("action", mcp.Description("insertBefore, insertAfter (default) or appendChild")),
		mcp.WithOutputSchema[blocks.Change](),
	), mcp.NewStructuredToolHandler(sanitized(s.handleAddBlock)))

	s.mcpServer.AddTool(mcp.NewTool("toggle_field",
		mcp.WithDescription("Show a collection field next to target, or remove it when it is already shown."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Page ID")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Field name")),
		mcp.WithString("target", mcp.Description("Path of the reference node when showing the field")),
		mcp.WithString("action", mcp.Description("insertBefore, insertAfter (default) or appendChild")),
		mcp.WithOutputSchema[blocks.Change](),
	), mcp.NewStructuredToolHandler(sanitized(s.handleToggleField)))

	s.mcpServer.AddTool(mcp.NewTool("remove_node",
		mcp.WithDescription("Remove the node at path, and any row or column it leaves empty."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Page ID")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the node, keys joined by '/'")),
		mcp.WithOutputSchema[blocks.Change](),
	), mcp.NewStructuredToolHandler(sanitized(s.handleRemoveNode)))

	s.mcpServer.AddTool(mcp.NewTool("list_catalog",
		mcp.WithDescription("List the selectable blueprints and field types."),
		mcp.WithOutputSchema[CatalogResponse](),
	), mcp.NewStructuredToolHandler(s.handleListCatalog))
}

func (s *Server) handleGetPage(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PageResponse, error) {
	id := stringArg(args, "page_id")
	if sess, ok := s.engine.Session(id); ok {
		return PageResponse{Page: sess.Snapshot(), Displayed: sess.Displayed()}, nil
	}
	sess, err := s.engine.Open(ctx, id)
	if err != nil {
		return PageResponse{}, fmt.Errorf("get page failed: %w", err)
	}
	return PageResponse{Page: sess.Snapshot(), Displayed: sess.Displayed()}, nil
}

func (s *Server) handleAddBlock(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (blocks.Change, error) {
	sel := blocks.Selection{
		Key:        stringArg(args, "key"),
		Menu:       stringArg(args, "menu"),
		Collection: stringArg(args, "collection"),
		Title:      stringArg(args, "title"),
	}
	sel.NewCollection, _ = args["new_collection"].(bool)
	return s.act(ctx, args, func(sess *blocks.Session, target domain.Path, op tree.Op) (blocks.Change, error) {
		return sess.AddBlock(ctx, sel, target, op)
	})
}

func (s *Server) handleToggleField(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (blocks.Change, error) {
	name := stringArg(args, "name")
	return s.act(ctx, args, func(sess *blocks.Session, target domain.Path, op tree.Op) (blocks.Change, error) {
		return sess.ToggleField(ctx, name, target, op)
	})
}

func (s *Server) handleRemoveNode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (blocks.Change, error) {
	path := domain.ParsePath(stringArg(args, "path"))
	return s.act(ctx, args, func(sess *blocks.Session, _ domain.Path, _ tree.Op) (blocks.Change, error) {
		return sess.Remove(ctx, path)
	})
}

func (s *Server) handleListCatalog(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CatalogResponse, error) {
	return catalogResponse(s.engine.Catalog()), nil
}

func (s *Server) act(ctx context.Context, args map[string]interface{}, fn func(*blocks.Session, domain.Path, tree.Op) (blocks.Change, error)) (blocks.Change, error) {
	op := tree.OpInsertAfter
	if a := stringArg(args, "action"); a != "" {
		op = tree.Op(a)
	}
	switch op {
	case tree.OpInsertBefore, tree.OpInsertAfter, tree.OpAppendChild:
	default:
		return blocks.Change{}, fmt.Errorf("unknown action %q", op)
	}

	sess, err := s.engine.Open(ctx, stringArg(args, "page_id"))
	if err != nil {
		return blocks.Change{}, err
	}
	ch, err := fn(sess, domain.ParsePath(stringArg(args, "target")), op)
	if err != nil {
		s.logger.Warn("mcp action failed", "page_id", sess.PageID(), "err", err)
		return ch, err
	}
	return ch, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(catalogURI, "Blueprint catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(catalogResponse(s.engine.Catalog()))
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      catalogURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func catalogResponse(cat *catalog.Catalog) CatalogResponse {
	menus := make(map[string][]catalog.Group)
	for _, name := range cat.Menus() {
		menus[name] = cat.Menu(name)
	}
	return CatalogResponse{Menus: menus, Interfaces: cat.Interfaces()}
}

// sanitized cleans every string argument before h sees it.
func sanitized[T any](h func(context.Context, mcp.CallToolRequest, map[string]interface{}) (T, error)) func(context.Context, mcp.CallToolRequest, map[string]interface{}) (T, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (T, error) {
		if err := checkArgs(args); err != nil {
			var zero T
			return zero, fmt.Errorf("input rejected: %w", err)
		}
		return h(ctx, request, args)
	}
}

// checkArgs sanitizes every string argument in place.
func checkArgs(args map[string]interface{}) error {
	for k, v := range args {
		str, ok := v.(string)
		if !ok {
			continue
		}
		clean, err := sanitize.Text(str)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		args[k] = clean
	}
	return nil
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}
