package fleet

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	prov "github.com/oranolio956/qa-automation-framework-sub006/internal/providers"
	"github.com/oranolio956/qa-automation-framework-sub006/internal/telemetry"
	"github.com/oranolio956/qa-automation-framework-sub006/pkg/api"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultMinOnline = 1
)

// Probe classifies the device fleet by running the inventory command.
type Probe struct {
	Runner    Runner
	Command   string
	Args      []string
	Timeout   time.Duration
	MinOnline int
	FarmHost  string
}

// NewProbe builds a probe from the fleet section of cfg. Defaults are
// expected to have been applied already.
func NewProbe(cfg prov.Config, r Runner) *Probe {
	return &Probe{
		Runner:    r,
		Command:   cfg.Fleet.Command,
		Args:      cfg.Fleet.Args,
		Timeout:   time.Duration(cfg.Fleet.TimeoutSeconds) * time.Second,
		MinOnline: cfg.Fleet.MinOnline,
		FarmHost:  cfg.Fleet.FarmHost,
	}
}

// FromConfig wires the configured runner into a probe.
func FromConfig(cfg prov.Config) (*Probe, error) {
	r, err := NewRunner(cfg)
	if err != nil {
		return nil, err
	}
	return NewProbe(cfg, r), nil
}

// Probe never fails: runner errors and timeouts are reported through
// FleetStatus.ProbeError with a zero device count.
func (p *Probe) Probe(ctx context.Context) api.FleetStatus {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	minOnline := p.MinOnline
	if minOnline <= 0 {
		minOnline = DefaultMinOnline
	}
	command := p.Command
	args := p.Args
	if command == "" {
		command, args = "adb", []string{"devices"}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	st := api.FleetStatus{Status: api.FleetDegraded, Devices: []string{}, FarmHost: p.FarmHost}
	start := time.Now()
	out, err := p.Runner.Run(ctx, command, args...)
	if err != nil {
		st.ProbeError = err.Error()
		log.Warn().Err(err).Str("farm_host", p.FarmHost).Dur("took", time.Since(start)).Msg("device inventory probe failed")
	} else {
		st.Devices = ParseDevices(out)
		st.DeviceCount = len(st.Devices)
		if st.DeviceCount >= minOnline {
			st.Status = api.FleetHealthy
		}
		log.Debug().Str("farm_host", p.FarmHost).Int("online", st.DeviceCount).Str("status", string(st.Status)).Msg("device inventory probed")
	}
	telemetry.RecordProbe(p.FarmHost, string(st.Status), st.DeviceCount)
	return st
}

// HealthDocument renders a probe result as the /health response body.
func HealthDocument(st api.FleetStatus) api.HealthResponse {
	doc := api.HealthResponse{Status: st.Status, FarmHost: st.FarmHost}
	if st.ProbeError != "" {
		doc.ADB = api.ADBStatus{OK: false, Error: st.ProbeError}
		return doc
	}
	count := st.DeviceCount
	doc.ADB = api.ADBStatus{OK: true, Count: &count, Devices: st.Devices}
	return doc
}
