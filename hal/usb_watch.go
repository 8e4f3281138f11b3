package hal

import (
	"context"

	"github.com/jochenvg/go-udev"
)

// USBEvent is one hotplug notification for a tty-class device.
type USBEvent struct {
	Action string // "add" or "remove"
	DevNode string
}

// USBWatcher reports tty-subsystem devices being plugged or unplugged, as
// seen by a live udev monitor. It only delivers the events: cmd/cwkeyerd
// does not start one, and nothing re-opens hal.SerialConsole or
// hal.PaddleGPIO in response. Grounded on the teacher's CM108 USB device
// discovery (src/cm108.go), generalised from vendor/product ID scanning to
// a live udev monitor.
type USBWatcher struct {
	u *udev.Udev
}

// NewUSBWatcher returns a watcher ready to Watch.
func NewUSBWatcher() *USBWatcher {
	return &USBWatcher{u: &udev.Udev{}}
}

// Watch starts a udev netlink monitor filtered to the tty subsystem and
// streams events on the returned channel until ctx is cancelled.
func (w *USBWatcher) Watch(ctx context.Context) (<-chan USBEvent, error) {
	mon := w.u.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem("tty"); err != nil {
		return nil, err
	}
	devCh, _, err := mon.DeviceChan(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan USBEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case dev, ok := <-devCh:
				if !ok {
					return
				}
				ev := USBEvent{Action: dev.Action(), DevNode: dev.Devnode()}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
