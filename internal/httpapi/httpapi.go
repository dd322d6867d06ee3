// Package httpapi exposes the analyzers and the JSON-RPC dispatcher over
// HTTP for callers that cannot speak MCP stdio.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/aurguard/aurguard/internal/analyzer"
	"github.com/aurguard/aurguard/internal/mcp"
)

// maxRequestBody caps request bodies; PKGBUILDs are small files.
const maxRequestBody = 4 * 1024 * 1024

// Handler builds the HTTP router around an MCP server.
func Handler(srv *mcp.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", healthzHandler)
	r.Post("/rpc", rpcHandler(srv))
	r.Route("/v1/analyze", func(r chi.Router) {
		r.Post("/pkgbuild", analyzePKGBUILDHandler)
		r.Post("/metadata", analyzeMetadataHandler)
	})
	return r
}

// NewServer wraps the router in an http.Server bound to addr.
func NewServer(addr string, srv *mcp.Server) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      Handler(srv),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// rpcHandler accepts one JSON-RPC request per POST and returns its response.
// Notifications get 202 with an empty body.
func rpcHandler(srv *mcp.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "reading request body"})
			return
		}

		var msg mcp.Message
		if err := json.Unmarshal(body, &msg); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "invalid JSON-RPC message"})
			return
		}

		resp := srv.Handle(r.Context(), &msg)
		if resp == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(resp)
	}
}

type pkgbuildRequest struct {
	Content string `json:"content"`
}

func analyzePKGBUILDHandler(w http.ResponseWriter, r *http.Request) {
	var req pkgbuildRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "invalid json"})
		return
	}
	if req.Content == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "content is required"})
		return
	}
	render.JSON(w, r, analyzer.AnalyzePKGBUILD(req.Content))
}

func analyzeMetadataHandler(w http.ResponseWriter, r *http.Request) {
	var meta analyzer.PackageMeta
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&meta); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "invalid json"})
		return
	}
	if meta.Name == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "name is required"})
		return
	}
	render.JSON(w, r, analyzer.AnalyzeMetadata(meta))
}
