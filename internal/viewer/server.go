// Package viewer serves a built cell over HTTP: an interactive 3D page, a
// static figure, JSON summaries and the structure catalogue.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/crystalview/internal/catalog"
	"github.com/banshee-data/crystalview/internal/cell"
	"github.com/banshee-data/crystalview/internal/cif"
	"github.com/banshee-data/crystalview/internal/config"
	"github.com/banshee-data/crystalview/internal/draw"
	"github.com/banshee-data/crystalview/internal/httputil"
	"github.com/banshee-data/crystalview/internal/monitoring"
	"github.com/banshee-data/crystalview/internal/security"
	"github.com/banshee-data/crystalview/internal/timeutil"
	"github.com/banshee-data/crystalview/internal/version"
)

// MaxImages caps the number of cell images one request may draw.
const MaxImages = 512

// Config holds what the server shows.
type Config struct {
	Address   string
	Structure *cif.Structure
	Cell      *cell.Cell
	View      *config.ViewConfig // nil uses defaults
	Catalog   *catalog.Catalog   // optional
	Clock     timeutil.Clock     // nil uses the wall clock
}

// Server is the viewer HTTP server.
type Server struct {
	address   string
	structure *cif.Structure
	cell      *cell.Cell
	view      *config.ViewConfig
	catalog   *catalog.Catalog
	clock     timeutil.Clock
	started   time.Time
	server    *http.Server
}

// NewServer creates a server for cfg. It does not listen until Start.
func NewServer(cfg Config) *Server {
	s := &Server{
		address:   cfg.Address,
		structure: cfg.Structure,
		cell:      cfg.Cell,
		view:      cfg.View,
		catalog:   cfg.Catalog,
		clock:     cfg.Clock,
	}
	if s.clock == nil {
		s.clock = timeutil.RealClock{}
	}
	s.started = s.clock.Now()
	if s.view == nil {
		s.view = config.DefaultViewConfig()
	}
	s.server = &http.Server{
		Addr:              s.address,
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("viewer: listen %s: %w", s.address, err)
	}

	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("Starting viewer on http://%s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("viewer: %w", err)
		}
		return nil
	}
	monitoring.Logf("shutting down viewer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("viewer shutdown error: %v", err)
		if err := s.server.Close(); err != nil {
			monitoring.Logf("viewer force close error: %v", err)
		}
	}
	monitoring.Logf("viewer stopped")
	return nil
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/figure.png", s.handleFigure)
	mux.HandleFunc("/figure.svg", s.handleFigure)
	mux.HandleFunc("/api/cell", s.handleCell)
	mux.HandleFunc("/api/structures", s.handleStructures)
	mux.HandleFunc("/api/structures/", s.handleStructure)

	s.attachDebugRoutes(mux)
	return mux
}

// attachDebugRoutes mounts tsweb's /debug/ index and, with a catalogue, a
// tailsql console over it.
func (s *Server) attachDebugRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	if s.catalog == nil {
		return
	}
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		monitoring.Logf("tailsql unavailable: %v", err)
		return
	}
	tsql.SetDB("sqlite://"+s.catalog.Path(), s.catalog.DB(), &tailsql.DBOptions{
		Label: "Structure catalogue",
	})
	debug.Handle("tailsql/", "SQL console over the structure catalogue", tsql.NewMux())
}

type health struct {
	Status        string  `json:"status"`
	Service       string  `json:"service"`
	Version       string  `json:"version"`
	Timestamp     string  `json:"timestamp"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, health{
		Status:        "ok",
		Service:       "crystalview",
		Version:       version.Version,
		Timestamp:     s.clock.Now().UTC().Format(time.RFC3339),
		UptimeSeconds: s.clock.Since(s.started).Seconds(),
	})
}

// supercell reads the optional supercell query parameter.
func (s *Server) supercell(r *http.Request) ([3]int, error) {
	n := s.view.GetSupercell()
	if q := r.URL.Query().Get("supercell"); q != "" {
		var err error
		if n, err = config.ParseSupercell(q); err != nil {
			return n, err
		}
	}
	if n[0] > MaxImages || n[0]*n[1] > MaxImages || n[0]*n[1]*n[2] > MaxImages {
		return n, fmt.Errorf("supercell %v has more than %d images", n, MaxImages)
	}
	return n, nil
}

// figure draws the cell's supercell for the request.
func (s *Server) figure(r *http.Request) (*draw.Figure, error) {
	n, err := s.supercell(r)
	if err != nil {
		return nil, err
	}
	sc, err := cell.NewSuperCell(s.cell, n)
	if err != nil {
		return nil, err
	}
	fig := draw.MakeFigure(s.view.FigureOptions(sc.String()))
	draw.DrawSupercell(fig, fig.Style(), sc)
	return fig, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, r, http.MethodGet)
		return
	}
	fig, err := s.figure(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := fig.RenderHTML(w); err != nil {
		monitoring.Logf("render index: %v", err)
	}
}

func (s *Server) handleFigure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, r, http.MethodGet)
		return
	}
	format, err := draw.FormatFromPath(r.URL.Path)
	if err != nil {
		httputil.Error(w, http.StatusNotFound, err.Error())
		return
	}
	fig, err := s.figure(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	contentType := "image/png"
	if format == draw.FormatSVG {
		contentType = "image/svg+xml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", security.SanitizeFilename(s.cell.Name)+"."+format))
	if err := fig.WritePlot(w, format); err != nil {
		monitoring.Logf("render %s: %v", r.URL.Path, err)
	}
}

func (s *Server) handleCell(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, r, http.MethodGet)
		return
	}
	httputil.JSON(w, http.StatusOK, Summarize(s.structure, s.cell))
}

func (s *Server) handleStructures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, r, http.MethodGet)
		return
	}
	if s.catalog == nil {
		httputil.Error(w, http.StatusNotFound, "no catalogue attached")
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 || n > 1000 {
			httputil.Error(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	list, err := s.catalog.List(r.Context(), limit)
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []catalog.Summary{}
	}
	httputil.JSON(w, http.StatusOK, list)
}

// handleStructure serves GET (cell summary) and DELETE for
// /api/structures/{id}.
func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		httputil.Error(w, http.StatusNotFound, "no catalogue attached")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/structures/")
	if id == "" || strings.Contains(id, "/") {
		httputil.Error(w, http.StatusBadRequest, "missing structure id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		st, err := s.catalog.Get(r.Context(), id)
		if errors.Is(err, catalog.ErrNotFound) {
			httputil.Error(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			httputil.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		c, err := cell.Build(st, s.view.BuildOptions()...)
		if err != nil {
			httputil.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		httputil.JSON(w, http.StatusOK, Summarize(st, c))
	case http.MethodDelete:
		err := s.catalog.Delete(r.Context(), id)
		if errors.Is(err, catalog.ErrNotFound) {
			httputil.Error(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			httputil.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.MethodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}
