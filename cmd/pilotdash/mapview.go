package main

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/pilotdash"
)

// pageSDK builds maps that are rendered as an embedded map on the
// dashboard page. Reads and writes go through the scope.
type pageSDK struct {
	m *pageMap
}

func (s *pageSDK) NewMap(opts pilotdash.MapOptions) pilotdash.Map {
	s.m = &pageMap{opts: opts, center: opts.Center}
	return s.m
}

func (s *pageSDK) NewMarker(m pilotdash.Map, opts pilotdash.MarkerOptions) pilotdash.Marker {
	marker := &pageMarker{title: opts.Title, position: opts.Position}
	if pm, ok := m.(*pageMap); ok {
		pm.markers = append(pm.markers, marker)
	}
	return marker
}

type pageMap struct {
	opts    pilotdash.MapOptions
	center  pilotdash.LatLng
	markers []*pageMarker
}

func (m *pageMap) SetCenter(ll pilotdash.LatLng) {
	m.center = ll
}

var embedLayers = map[pilotdash.MapType]string{
	pilotdash.MapTypeRoadmap:   "m",
	pilotdash.MapTypeSatellite: "k",
	pilotdash.MapTypeHybrid:    "h",
	pilotdash.MapTypeTerrain:   "p",
}

// EmbedURL points an iframe at the map center, pinned on the first marker.
func (m *pageMap) EmbedURL() string {
	pin := m.center
	if len(m.markers) > 0 {
		pin = m.markers[0].position
	}
	layer, ok := embedLayers[m.opts.Type]
	if !ok {
		layer = "k"
	}
	q := url.Values{}
	q.Set("q", pin.String())
	q.Set("ll", m.center.String())
	q.Set("t", layer)
	q.Set("z", fmt.Sprint(m.opts.Zoom))
	q.Set("output", "embed")
	return "https://maps.google.com/maps?" + q.Encode()
}

type pageMarker struct {
	title    string
	position pilotdash.LatLng
}

func (m *pageMarker) SetPosition(ll pilotdash.LatLng) {
	m.position = ll
}
