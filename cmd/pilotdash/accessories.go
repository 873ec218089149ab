package main

import (
	"context"
	"net/http"
	"time"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/caarlos0/pilotdash"
)

// armer is what the arm switch drives.
type armer interface {
	Arm(ctx context.Context) error
	Disarm(ctx context.Context) error
	Status() (pilotdash.Status, bool)
}

type ArmSwitch struct {
	*accessory.Switch
	view armer
}

func newArmSwitch(info accessory.Info, view armer) *ArmSwitch {
	a := &ArmSwitch{
		Switch: accessory.NewSwitch(info),
		view:   view,
	}
	a.Switch.Switch.On.SetValueRequestFunc = a.updateHandler
	return a
}

func (a *ArmSwitch) updateHandler(value interface{}, _ *http.Request) (response interface{}, code int) {
	v, ok := value.(bool)
	if !ok {
		return nil, hap.JsonStatusInvalidValueInRequest
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fn := a.view.Disarm
	if v {
		fn = a.view.Arm
	}
	if err := fn(ctx); err != nil {
		log.Error("could not set armed from homekit", "armed", v, "err", err)
		return nil, hap.JsonStatusResourceBusy
	}
	return nil, hap.JsonStatusSuccess
}

// Update mirrors the status view.
func (a *ArmSwitch) Update() {
	status, known := a.view.Status()
	if !known {
		return
	}
	if a.Switch.Switch.On.Value() != status.Armed {
		log.Info("armed switch", "armed", status.Armed)
		a.Switch.Switch.On.SetValue(status.Armed)
	}
}
