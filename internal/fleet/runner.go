package fleet

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	prov "github.com/oranolio956/qa-automation-framework-sub006/internal/providers"
	"github.com/oranolio956/qa-automation-framework-sub006/internal/ssh"
)

// Runner executes the inventory command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// LocalRunner runs the command on this machine.
type LocalRunner struct{}

func (LocalRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return string(out), fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return string(out), fmt.Errorf("%s: %w%s", name, err, stderrSuffix(stderr.String()))
	}
	return string(out), nil
}

// SSHRunner runs the command on the farm host.
type SSHRunner struct {
	Client *ssh.Client
}

func (r SSHRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	stdout, stderr, err := r.Client.RunCommand(ctx, ssh.ShellJoin(name, args...))
	if err != nil {
		return stdout, fmt.Errorf("%s on %s: %w%s", name, r.Client.Addr, err, stderrSuffix(stderr))
	}
	return stdout, nil
}

// NewRunner returns an SSHRunner when fleet.ssh.enabled is set, otherwise a
// LocalRunner.
func NewRunner(cfg prov.Config) (Runner, error) {
	s := cfg.Fleet.SSH
	if !s.Enabled {
		return LocalRunner{}, nil
	}
	client, err := ssh.NewClient(cfg.Fleet.FarmHost, s.Port, s.User, s.KeyPath, s.KnownHosts)
	if err != nil {
		return nil, fmt.Errorf("farm ssh client: %w", err)
	}
	return SSHRunner{Client: client}, nil
}

func stderrSuffix(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	if len(stderr) > 256 {
		stderr = stderr[len(stderr)-256:]
	}
	return ": " + stderr
}
