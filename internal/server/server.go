// Package server wires the map session, the Huma API and the viewer page
// into one http.Handler.
package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/jamesrr39/goutil/logpkg"

	"github.com/joeblew999/plat-mapview/internal/api"
	"github.com/joeblew999/plat-mapview/internal/api/view"
	"github.com/joeblew999/plat-mapview/internal/engine"
	"github.com/joeblew999/plat-mapview/internal/humastar"
	"github.com/joeblew999/plat-mapview/internal/session"
	"github.com/joeblew999/plat-mapview/internal/templates"
)

//go:embed static
var static embed.FS

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	Version string
	Logger  *logpkg.Logger
}

// Server is the map HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	links    *humastar.Links
	sess     *session.Session
	renderer *templates.Renderer
	view     *view.Handler
	logger   *logpkg.Logger
}

// New creates a server for one map session.
func New(cfg Config, sess *session.Session) (*Server, error) {
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}
	if cfg.Logger == nil {
		cfg.Logger = logpkg.NewLogger(io.Discard, logpkg.LogLevelError)
	}
	mux := http.NewServeMux()
	links := humastar.NewLinks()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-mapview API", cfg.Version)
	humaConfig.Info.Description = "Map viewer API: basemap presets, layer legend, pointer readout and overview map."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, links.Transformer())

	humaAPI := humago.New(mux, humaConfig)

	renderer, err := templates.New()
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		links:    links,
		sess:     sess,
		renderer: renderer,
		view:     view.NewHandler(sess, renderer),
		logger:   cfg.Logger,
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Renderer is the template renderer behind the viewer and the SSE patches.
func (s *Server) Renderer() *templates.Renderer {
	return s.renderer
}

// OpenAPI is the generated API description.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

func (s *Server) routes() {
	// REST API routes (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.sess, s.config.Version))
	huma.AutoRegister(s.humaAPI, api.NewInfoHandler(s.sess, s.config.Version))

	// Viewer SSE routes using Huma + Datastar SDK
	huma.AutoRegister(s.humaAPI, s.view)

	s.links.Build(s.humaAPI)

	staticFS, _ := fs.Sub(static, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Page routes
	s.mux.HandleFunc("/viewer", s.handleViewer)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	for _, link := range s.links.Root() {
		w.Header().Add("Link", link)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-mapview",
		"status":  "running",
	})
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	rendered, err := s.view.Render()
	if err != nil {
		s.logger.Error("viewer: %s", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	page := templates.ViewerPage{Title: "plat-mapview", Presets: rendered.Presets}
	for _, pos := range engine.Positions {
		page.Docks = append(page.Docks, rendered.Docks[pos])
	}
	html, err := s.renderer.RenderViewer(page)
	if err != nil {
		s.logger.Error("viewer: %s", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, html)
}
