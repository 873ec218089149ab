package pilotdash

import (
	"context"
	"sync"
)

type fakeStatus struct {
	mu     sync.Mutex
	status Status
	err    error
	gets   int
	saved  []Status
	saveFn func(Status) error
}

func (f *fakeStatus) GetStatus(_ context.Context) (Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	return f.status, f.err
}

func (f *fakeStatus) SaveStatus(_ context.Context, status Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, status)
	if f.saveFn != nil {
		return f.saveFn(status)
	}
	return nil
}

func (f *fakeStatus) Gets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

type fakePosition struct {
	mu  sync.Mutex
	pos Position
	err error
}

func (f *fakePosition) GetPosition(_ context.Context) (Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos, f.err
}

type fakeMap struct {
	opts   MapOptions
	center LatLng
}

func (m *fakeMap) SetCenter(ll LatLng) { m.center = ll }

type fakeMarker struct {
	opts     MarkerOptions
	position LatLng
}

func (m *fakeMarker) SetPosition(ll LatLng) { m.position = ll }

type fakeSDK struct {
	m      *fakeMap
	marker *fakeMarker
}

func (s *fakeSDK) NewMap(opts MapOptions) Map {
	s.m = &fakeMap{opts: opts, center: opts.Center}
	return s.m
}

func (s *fakeSDK) NewMarker(_ Map, opts MarkerOptions) Marker {
	s.marker = &fakeMarker{opts: opts, position: opts.Position}
	return s.marker
}
