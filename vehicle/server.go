// Package vehicle is the vehicle side of the dashboard: it serves the status
// and position resources and the real-time channel, and bridges them to the
// flight controller.
package vehicle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/pilotdash"
	logp "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var log = logp.NewWithOptions(os.Stderr, logp.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "vehicle",
})

func SetLogLevel(level logp.Level) {
	log.SetLevel(level)
}

const (
	EventArmedStatus  = "armed_status"
	EventGPS          = "gps"
	EventAnnouncement = "announcement"
	EventArm          = "arm"
	EventDisarm       = "disarm"
	EventTranslation  = "translation"
)

// Translation is the debug event that moves the vehicle's reported position.
type Translation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Server ties the vehicle state, the client hub, the flight controller and
// the track history together.
type Server struct {
	state *State
	hub   *Hub
	fc    FlightController
	track TrackStore
	now   func() time.Time
}

func NewServer(state *State, hub *Hub, fc FlightController, track TrackStore) *Server {
	s := &Server{
		state: state,
		hub:   hub,
		fc:    fc,
		track: track,
		now:   time.Now,
	}
	hub.Handle(EventArm, func(ctx context.Context, c *Conn, data json.RawMessage) (any, error) {
		log.Info("arm requested", "client", c.ID, "reason", string(data))
		return s.setMode(ctx, true)
	})
	hub.Handle(EventDisarm, func(ctx context.Context, c *Conn, data json.RawMessage) (any, error) {
		log.Info("disarm requested", "client", c.ID, "reason", string(data))
		return s.setMode(ctx, false)
	})
	hub.Handle(EventTranslation, func(ctx context.Context, c *Conn, data json.RawMessage) (any, error) {
		var t Translation
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("invalid translation: %w", err)
		}
		pos := pilotdash.Position{Latitude: t.Lat, Longitude: t.Lon}
		log.Info("translation", "client", c.ID, "lat", t.Lat, "lon", t.Lon)
		s.UpdatePosition(ctx, pos)
		return pos, nil
	})
	hub.OnDisconnect(func(*Conn) {
		hub.Broadcast(EventAnnouncement, "client has disconnected")
	})
	return s
}

// UpdateStatus records the arm state reported by the flight controller and
// broadcasts it.
func (s *Server) UpdateStatus(_ context.Context, status pilotdash.Status) {
	if s.state.SetArmed(status.Armed) {
		log.Info("status changed", "armed", status.Armed)
	}
	s.hub.Broadcast(EventArmedStatus, status.Armed)
}

// UpdatePosition records a GPS fix and broadcasts it.
func (s *Server) UpdatePosition(ctx context.Context, pos pilotdash.Position) {
	s.state.SetPosition(pos)
	if err := s.track.Record(ctx, pos, s.now()); err != nil {
		log.Error("could not record fix", "err", err)
	}
	s.hub.Broadcast(EventGPS, pos)
}

func (s *Server) setMode(ctx context.Context, armed bool) (string, error) {
	if err := s.fc.SetMode(ctx, armed); err != nil {
		return "", err
	}
	announcement := "disarmed"
	if armed {
		announcement = "armed"
	}
	s.hub.Broadcast(EventAnnouncement, announcement)
	return announcement, nil
}

// Routes returns the HTTP handler for the resources and the channel.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.StandardLog(logp.StandardLogOptions{ForceLevel: logp.DebugLevel}),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/api/status", s.getStatus)
	r.Post("/api/status", s.postStatus)
	r.Get("/api/position", s.getPosition)
	r.Get("/api/track", s.getTrack)
	r.Handle("/socket", s.hub)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	})
	return r
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Status())
}

func (s *Server) postStatus(w http.ResponseWriter, r *http.Request) {
	var status pilotdash.Status
	if err := json.NewDecoder(r.Body).Decode(&status); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid status"})
		return
	}
	if _, err := s.setMode(r.Context(), status.Armed); err != nil {
		log.Error("could not set mode", "armed", status.Armed, "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "flight controller unavailable"})
		return
	}
	writeJSON(w, http.StatusAccepted, status)
}

func (s *Server) getPosition(w http.ResponseWriter, _ *http.Request) {
	pos, _ := s.state.Position()
	writeJSON(w, http.StatusOK, pos)
}

func (s *Server) getTrack(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid limit"})
			return
		}
		limit = n
	}
	fixes, err := s.track.Recent(r.Context(), limit)
	if err != nil {
		log.Error("could not read track", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "could not read track"})
		return
	}
	if fixes == nil {
		fixes = []Fix{}
	}
	writeJSON(w, http.StatusOK, fixes)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("could not write response", "err", err)
	}
}
