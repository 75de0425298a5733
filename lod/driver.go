package lod

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Driver runs the update cycle on a fixed frame duration, moving the focus
// target along its orbit before every rebuild.
type Driver struct {
	Manager       *Manager
	Orbit         *Orbit
	FrameDuration time.Duration

	// Keeps the target where it is instead of stepping the orbit.
	Still bool

	// Called with every published frame, from the driver goroutine.
	OnFrame func(Frame)
}

// Run ticks until ctx is done. The first frame is built right away.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.FrameDuration)
	defer ticker.Stop()

	d.Tick()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			d.Tick()
		}
	}
}

// Tick runs a single update cycle.
func (d *Driver) Tick() {
	focus := d.Orbit.Position
	if !d.Still {
		focus = d.Orbit.Step()
	}

	frame, err := d.Manager.Update(focus)
	if err != nil {
		logs.Warn(err)
		return
	}

	if d.OnFrame != nil {
		d.OnFrame(frame)
	}
}
