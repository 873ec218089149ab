package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/caarlos0/pilotdash"
)

//go:embed index.html
var index string

var tpl = template.Must(template.New("index").Parse(index))

// emitter is the write side of the real-time channel.
type emitter interface {
	Emit(event string, data any, ack func(reply json.RawMessage)) error
}

// subscriber is the full real-time channel.
type subscriber interface {
	emitter
	On(event string, callback func(data json.RawMessage))
}

var (
	errNoChannel          = errors.New("channel is not connected")
	errInvalidCoordinates = errors.New("invalid coordinates")
)

type router interface {
	Handle(pattern string, handler http.Handler)
}

// dashboard renders the views and handles the operator's actions.
type dashboard struct {
	scope    *pilotdash.Scope
	status   *pilotdash.StatusView
	position *pilotdash.PositionView
	sdk      *pageSDK
	channel  emitter

	// guarded by scope
	announcement string
}

type pageData struct {
	State        string
	Known        bool
	Armed        bool
	HasFix       bool
	Position     pilotdash.Position
	Title        string
	MapURL       template.URL
	Channel      bool
	Announcement string
}

func (d *dashboard) routes(mux router) {
	mux.Handle("/", http.HandlerFunc(d.index))
	mux.Handle("/arm", d.post(func(r *http.Request) error {
		return d.status.Arm(r.Context())
	}))
	mux.Handle("/disarm", d.post(func(r *http.Request) error {
		return d.status.Disarm(r.Context())
	}))
	mux.Handle("/translate", d.post(d.translate))
}

// subscribe wires channel events into the page.
func (d *dashboard) subscribe(ch subscriber) {
	d.channel = ch
	ch.On("announcement", func(data json.RawMessage) {
		channelEventCounter.WithLabelValues("announcement").Inc()
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			s = string(data)
		}
		log.Info("announcement", "text", s)
		d.announcement = s
	})
	for _, event := range []string{"armed_status", "gps"} {
		event := event
		ch.On(event, func(data json.RawMessage) {
			channelEventCounter.WithLabelValues(event).Inc()
			log.Debug("channel event", "event", event, "data", string(data))
		})
	}
}

func (d *dashboard) data() pageData {
	status, known := d.status.Status()
	pos, hasFix := d.position.Position()
	data := pageData{
		State:    status.String(),
		Known:    known,
		Armed:    status.Armed,
		HasFix:   hasFix,
		Position: pos,
		Channel:  d.channel != nil,
	}
	d.scope.Read(func() {
		data.Announcement = d.announcement
		data.MapURL = template.URL(d.sdk.m.EmbedURL())
		if len(d.sdk.m.markers) > 0 {
			data.Title = d.sdk.m.markers[0].title
		}
	})
	return data
}

func (d *dashboard) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.Execute(w, d.data()); err != nil {
		log.Error("could not render page", "err", err)
	}
}

func (d *dashboard) post(fn func(r *http.Request) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		if err := fn(r); err != nil {
			log.Error("action failed", "path", r.URL.Path, "err", err)
			code := http.StatusServiceUnavailable
			if errors.Is(err, errInvalidCoordinates) {
				code = http.StatusBadRequest
			}
			http.Error(w, err.Error(), code)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}

func (d *dashboard) translate(r *http.Request) error {
	if d.channel == nil {
		return errNoChannel
	}
	lat, err := strconv.ParseFloat(r.FormValue("lat"), 64)
	if err != nil {
		return errInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(r.FormValue("lon"), 64)
	if err != nil {
		return errInvalidCoordinates
	}
	return d.channel.Emit("translation", map[string]float64{
		"lat": lat,
		"lon": lon,
	}, func(reply json.RawMessage) {
		log.Info("translation acknowledged", "reply", string(reply))
		d.announcement = "translated to " + strconv.FormatFloat(lat, 'f', -1, 64) +
			"," + strconv.FormatFloat(lon, 'f', -1, 64)
	})
}
