package main

import (
	"context"
	"errors"
	"testing"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/caarlos0/pilotdash"
	"github.com/stretchr/testify/require"
)

type fakeArmer struct {
	status pilotdash.Status
	known  bool
	calls  []bool
	err    error
}

func (f *fakeArmer) Arm(context.Context) error    { return f.set(true) }
func (f *fakeArmer) Disarm(context.Context) error { return f.set(false) }

func (f *fakeArmer) set(armed bool) error {
	f.calls = append(f.calls, armed)
	if f.err != nil {
		return f.err
	}
	f.status.Armed = armed
	f.known = true
	return nil
}

func (f *fakeArmer) Status() (pilotdash.Status, bool) {
	return f.status, f.known
}

func TestArmSwitch(t *testing.T) {
	view := &fakeArmer{}
	a := newArmSwitch(accessory.Info{Name: "Armed"}, view)

	_, code := a.updateHandler(true, nil)
	require.Equal(t, hap.JsonStatusSuccess, code)
	_, code = a.updateHandler(false, nil)
	require.Equal(t, hap.JsonStatusSuccess, code)
	require.Equal(t, []bool{true, false}, view.calls)

	_, code = a.updateHandler("yes", nil)
	require.Equal(t, hap.JsonStatusInvalidValueInRequest, code)

	view.err = errors.New("offline")
	_, code = a.updateHandler(true, nil)
	require.Equal(t, hap.JsonStatusResourceBusy, code)
}

func TestArmSwitchUpdate(t *testing.T) {
	view := &fakeArmer{}
	a := newArmSwitch(accessory.Info{Name: "Armed"}, view)

	a.Update()
	require.False(t, a.Switch.Switch.On.Value())

	view.status, view.known = pilotdash.Status{Armed: true}, true
	a.Update()
	require.True(t, a.Switch.Switch.On.Value())

	view.status.Armed = false
	a.Update()
	require.False(t, a.Switch.Switch.On.Value())
}
