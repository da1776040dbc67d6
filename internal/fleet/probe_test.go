package fleet

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/oranolio956/qa-automation-framework-sub006/pkg/api"
)

// fakeRunner returns canned output or blocks until ctx is done.
type fakeRunner struct {
	out   string
	err   error
	block bool
	calls []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, strings.Join(append([]string{name}, args...), " "))
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.out, f.err
}

func TestProbeOneOnlineOneOffline(t *testing.T) {
	r := &fakeRunner{out: "List of devices attached\nemulator-5554\tdevice\nemulator-5556\toffline\n"}
	p := &Probe{Runner: r, FarmHost: "farm-01"}
	st := p.Probe(context.Background())
	if st.DeviceCount != 1 || st.Status != api.FleetHealthy {
		t.Fatalf("expected 1 healthy, got %d %s", st.DeviceCount, st.Status)
	}
	if st.Devices[0] != "emulator-5554" || st.ProbeError != "" || st.FarmHost != "farm-01" {
		t.Fatalf("unexpected status %+v", st)
	}
	if r.calls[0] != "adb devices" {
		t.Fatalf("default command not used: %v", r.calls)
	}
}

func TestProbeTimeout(t *testing.T) {
	p := &Probe{Runner: &fakeRunner{block: true}, Timeout: 20 * time.Millisecond}
	start := time.Now()
	st := p.Probe(context.Background())
	if time.Since(start) > 2*time.Second {
		t.Fatalf("probe did not honour timeout")
	}
	if st.Status != api.FleetDegraded || st.DeviceCount != 0 || st.ProbeError == "" {
		t.Fatalf("expected degraded with error, got %+v", st)
	}
	if !strings.Contains(st.ProbeError, "deadline exceeded") {
		t.Fatalf("unexpected probe error %q", st.ProbeError)
	}
}

func TestProbeRunnerError(t *testing.T) {
	p := &Probe{Runner: &fakeRunner{out: "List of devices attached\nA\tdevice\n", err: errors.New("exit status 1")}}
	st := p.Probe(context.Background())
	if st.Status != api.FleetDegraded || st.DeviceCount != 0 || len(st.Devices) != 0 {
		t.Fatalf("runner error must force zero devices, got %+v", st)
	}
}

func TestProbeMinOnline(t *testing.T) {
	r := &fakeRunner{out: "List of devices attached\nA\tdevice\nB\tdevice\n"}
	p := &Probe{Runner: r, Command: "adb", Args: []string{"-H", "10.0.0.5", "devices"}, MinOnline: 3}
	st := p.Probe(context.Background())
	if st.Status != api.FleetDegraded || st.DeviceCount != 2 || st.ProbeError != "" {
		t.Fatalf("below threshold must be degraded without error, got %+v", st)
	}
	if r.calls[0] != "adb -H 10.0.0.5 devices" {
		t.Fatalf("configured args not passed: %v", r.calls)
	}
}

func TestHealthDocument(t *testing.T) {
	ok := HealthDocument(api.FleetStatus{Status: api.FleetHealthy, DeviceCount: 2, Devices: []string{"a", "b"}, FarmHost: "h"})
	if !ok.ADB.OK || ok.ADB.Count == nil || *ok.ADB.Count != 2 || ok.ADB.Error != "" || ok.FarmHost != "h" {
		t.Fatalf("unexpected healthy document %+v", ok)
	}
	bad := HealthDocument(api.FleetStatus{Status: api.FleetDegraded, Devices: []string{}, ProbeError: "adb: not found"})
	if bad.ADB.OK || bad.ADB.Count != nil || bad.ADB.Error != "adb: not found" || bad.Status != api.FleetDegraded {
		t.Fatalf("unexpected degraded document %+v", bad)
	}
}

func TestLocalRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	out, err := LocalRunner{}.Run(context.Background(), "sh", "-c", `printf 'List of devices attached\nA1\tdevice\n'`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := ParseDevices(out); len(got) != 1 || got[0] != "A1" {
		t.Fatalf("unexpected devices %v", got)
	}

	_, err = LocalRunner{}.Run(context.Background(), "sh", "-c", "echo 'daemon not running' >&2; exit 3")
	if err == nil || !strings.Contains(err.Error(), "daemon not running") {
		t.Fatalf("expected stderr in error, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := (LocalRunner{}).Run(ctx, "sh", "-c", "sleep 5"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLocalRunnerMissingBinary(t *testing.T) {
	p := &Probe{Runner: LocalRunner{}, Command: "qaf-definitely-missing-adb", Timeout: time.Second}
	st := p.Probe(context.Background())
	if st.Status != api.FleetDegraded || st.ProbeError == "" {
		t.Fatalf("missing tool must degrade, got %+v", st)
	}
}
