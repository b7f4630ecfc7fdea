// Package probe decides which accelerator, if any, the demo runs on.
package probe

import (
	"github.com/sirupsen/logrus"

	"github.com/born-ml/devprobe/internal/tensor"
)

// Driver enumerates the devices of one accelerator backend and opens them.
type Driver interface {
	Name() string
	DeviceCount() (int, error)
	Open(index int) (tensor.Accelerator, error)
}

// Result is the outcome of a probe.
// When Available is false, Driver is nil and Count is 0.
type Result struct {
	Available bool
	Backend   string // name of the selected driver, or of the first one asked
	Count     int
	Driver    Driver
	Checked   []string
}

// Probe asks each driver in order and selects the first one reporting at
// least one device. Driver errors are logged and count as "not available";
// a machine without accelerators is a valid outcome, never a failure.
func Probe(log logrus.FieldLogger, drivers ...Driver) Result {
	res := Result{Backend: "Accelerator"}
	if len(drivers) > 0 {
		res.Backend = drivers[0].Name()
	}

	for _, d := range drivers {
		res.Checked = append(res.Checked, d.Name())

		n, err := d.DeviceCount()
		if err != nil {
			log.WithError(err).WithField("backend", d.Name()).Debug("accelerator probe failed")
			continue
		}
		if n < 1 {
			log.WithField("backend", d.Name()).Debug("no devices")
			continue
		}

		res.Available = true
		res.Backend = d.Name()
		res.Count = n
		res.Driver = d
		log.WithFields(logrus.Fields{
			"backend": d.Name(),
			"devices": n,
		}).Info("accelerator selected")
		return res
	}

	log.WithField("checked", res.Checked).Debug("no accelerator found")
	return res
}
