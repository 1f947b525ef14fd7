package server

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ZoneSentinel/internal/model"
	"ZoneSentinel/internal/snapshot"
)

// Refresher rebuilds the snapshot of one target on demand.
type Refresher interface {
	RefreshNow(ctx context.Context, symbol string, tf model.Timeframe) (*model.Snapshot, error)
}

// Server exposes the latest snapshots over HTTP and pushes overlay updates
// over a websocket.
type Server struct {
	Store     *snapshot.Store
	Refresher Refresher
	Hub       *Hub
	Targets   []model.WatchTarget
}

func New(store *snapshot.Store, refresher Refresher, hub *Hub, targets []model.WatchTarget) *Server {
	return &Server{Store: store, Refresher: refresher, Hub: hub, Targets: targets}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CorsMiddleware)

	r.Get("/api/health", s.HandleHealth)
	r.Get("/api/symbols", s.HandleSymbols)

	r.Get("/api/candlestick/{symbol}/{timeframe}", s.HandleCandlestick)
	r.Get("/api/zones/{symbol}/{timeframe}", s.HandleZones)
	r.Get("/api/overlays/{symbol}/{timeframe}", s.HandleOverlays)
	r.Get("/api/indicators/{symbol}/{timeframe}", s.HandleIndicators)
	r.Post("/api/refresh/{symbol}/{timeframe}", s.HandleRefresh)

	r.Get("/ws", s.Hub.ServeWS)
	return r
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.Store.Health()
	var checked any
	if !h.CheckedAt.IsZero() {
		checked = h.CheckedAt
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"backend_connected":  h.Connected,
		"backend_status":     h.Status,
		"backend_checked_at": checked,
		"source":             h.Fetcher,
	})
}

func (s *Server) HandleSymbols(w http.ResponseWriter, r *http.Request) {
	var symbols []string
	var timeframes []model.Timeframe
	seenSym := map[string]bool{}
	seenTF := map[model.Timeframe]bool{}
	for _, t := range s.Targets {
		if !seenSym[t.Symbol] {
			seenSym[t.Symbol] = true
			symbols = append(symbols, t.Symbol)
		}
		if !seenTF[t.Timeframe] {
			seenTF[t.Timeframe] = true
			timeframes = append(timeframes, t.Timeframe)
		}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"symbols":    symbols,
		"timeframes": timeframes,
		"targets":    s.Targets,
	})
}

// latest resolves the snapshot named by the path or writes a 404.
func (s *Server) latest(w http.ResponseWriter, r *http.Request) (*model.Snapshot, bool) {
	symbol, tf := targetParams(r)
	snap, ok := s.Store.Get(symbol, tf)
	if !ok {
		WriteError(w, http.StatusNotFound, "no data for "+symbol+" "+string(tf))
	}
	return snap, ok
}

func (s *Server) HandleCandlestick(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.latest(w, r); ok {
		WriteJSON(w, http.StatusOK, snap.Bars)
	}
}

func (s *Server) HandleZones(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.latest(w, r); ok {
		WriteJSON(w, http.StatusOK, snap.Zones)
	}
}

// HandleOverlays serves the drawable zones. smc=false turns the overlay
// off and yields an empty list.
func (s *Server) HandleOverlays(w http.ResponseWriter, r *http.Request) {
	enabled := true
	if v := r.URL.Query().Get("smc"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "smc must be true or false")
			return
		}
		enabled = parsed
	}
	snap, ok := s.latest(w, r)
	if !ok {
		return
	}
	if !enabled {
		WriteJSON(w, http.StatusOK, []model.Overlay{})
		return
	}
	WriteJSON(w, http.StatusOK, snap.Overlays)
}

func (s *Server) HandleIndicators(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.latest(w, r); ok {
		WriteJSON(w, http.StatusOK, snap.Indicators)
	}
}

// HandleRefresh forces a refresh of a configured target.
func (s *Server) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	symbol, tf := targetParams(r)
	if !s.watched(symbol, tf) {
		WriteError(w, http.StatusNotFound, "not a watched target: "+symbol+" "+string(tf))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	snap, err := s.Refresher.RefreshNow(ctx, symbol, tf)
	if err != nil {
		log.Printf("[ERROR] refresh %s %s: %v", symbol, tf, err)
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, newOverlayMessage(snap))
}

func (s *Server) watched(symbol string, tf model.Timeframe) bool {
	want := model.WatchTarget{Symbol: symbol, Timeframe: tf}
	for _, t := range s.Targets {
		if t == want {
			return true
		}
	}
	return false
}

// targetParams reads symbol and timeframe from the path. Unknown timeframes
// fall back to D1 like the pricing backend does.
func targetParams(r *http.Request) (string, model.Timeframe) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	tf, _ := model.ParseTimeframe(chi.URLParam(r, "timeframe"))
	return symbol, tf
}
