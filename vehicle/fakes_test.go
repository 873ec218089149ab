package vehicle

import (
	"context"
	"sync"

	"github.com/caarlos0/pilotdash"
)

type fakeController struct {
	mu    sync.Mutex
	modes []bool
	err   error
}

func (f *fakeController) SetMode(_ context.Context, armed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.modes = append(f.modes, armed)
	return nil
}

func (f *fakeController) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeController) Modes() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.modes...)
}

type fakeSink struct {
	statuses  []pilotdash.Status
	positions []pilotdash.Position
}

func (f *fakeSink) UpdateStatus(_ context.Context, status pilotdash.Status) {
	f.statuses = append(f.statuses, status)
}

func (f *fakeSink) UpdatePosition(_ context.Context, pos pilotdash.Position) {
	f.positions = append(f.positions, pos)
}
