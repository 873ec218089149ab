package pilotdash

import (
	"context"
	"fmt"
)

// StatusView keeps the vehicle arm state in sync with the status resource
// and lets the operator change it.
type StatusView struct {
	scope  *Scope
	res    StatusResource
	poller Poller

	data  Status
	known bool
}

func NewStatusView(scope *Scope, res StatusResource, poller Poller) *StatusView {
	return &StatusView{
		scope:  scope,
		res:    res,
		poller: poller,
	}
}

// Arm marks the vehicle as armed and saves the status record.
func (v *StatusView) Arm(ctx context.Context) error {
	return v.set(ctx, true)
}

// Disarm marks the vehicle as disarmed and saves the status record.
func (v *StatusView) Disarm(ctx context.Context) error {
	return v.set(ctx, false)
}

// The local change is kept even if saving fails; the next tick overwrites
// it with whatever the vehicle reports.
func (v *StatusView) set(ctx context.Context, armed bool) error {
	var status Status
	v.scope.Apply(func() {
		v.data.Armed = armed
		v.known = true
		status = v.data
	})
	log.Info("set status", "armed", armed)
	if err := v.res.SaveStatus(ctx, status); err != nil {
		return fmt.Errorf("could not set armed=%v: %w", armed, err)
	}
	return nil
}

// Tick fetches the status once and replaces the local state on success.
func (v *StatusView) Tick(ctx context.Context) error {
	status, err := v.res.GetStatus(ctx)
	if err != nil {
		return err
	}
	v.scope.Apply(func() {
		if !v.known || v.data != status {
			log.Info("status changed", "armed", status.Armed)
		}
		v.data = status
		v.known = true
	})
	return nil
}

// Run polls the status until ctx is done or polling gives up.
func (v *StatusView) Run(ctx context.Context) error {
	return v.poller.Run(ctx, v.Tick)
}

// Status returns the current record and whether it was ever set.
func (v *StatusView) Status() (Status, bool) {
	var status Status
	var known bool
	v.scope.Read(func() {
		status, known = v.data, v.known
	})
	return status, known
}
