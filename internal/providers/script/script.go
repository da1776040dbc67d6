package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	prov "github.com/oranolio956/qa-automation-framework-sub006/internal/providers"
	"github.com/rs/zerolog/log"
)

// EnvChunkSize carries the requested count to the script alongside the
// trailing positional argument.
const EnvChunkSize = "QAF_CHUNK_SIZE"

// Backend runs a local executable once per chunk. The executable receives
// the count as its last argument and must print a ChunkResult JSON document
// ({"created":[...],"failed":[...]}) on stdout. A non-zero exit is treated as
// a chunk that could not be attempted.
type Backend struct {
	Command string
	Args    []string
	Env     []string
	WorkDir string
}

func New(cfg prov.Config) *Backend {
	s := cfg.Backends.Script
	return &Backend{Command: s.Command, Args: s.Args, Env: s.Env, WorkDir: s.WorkDir}
}

func (b *Backend) CreateMany(ctx context.Context, count int) (prov.ChunkResult, error) {
	if b.Command == "" {
		return prov.ChunkResult{}, prov.ValidationError{Field: "command", Value: "", Message: "script backend needs a command"}
	}
	args := append(append([]string{}, b.Args...), strconv.Itoa(count))
	cmd := exec.CommandContext(ctx, b.Command, args...)
	cmd.WaitDelay = time.Second
	if b.WorkDir != "" {
		cmd.Dir = b.WorkDir
	}
	cmd.Env = append(os.Environ(), b.Env...)
	cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%d", EnvChunkSize, count))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		exitCode := 1
		if exit, ok := err.(*exec.ExitError); ok {
			exitCode = exit.ExitCode()
		}
		return prov.ChunkResult{}, fmt.Errorf("%w: run %s (exit %d): %w: %s", prov.ErrCatastrophic, b.Command, exitCode, err, tail(stderr.String(), 512))
	}

	var out prov.ChunkResult
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return prov.ChunkResult{}, fmt.Errorf("%w: decode %s output: %w", prov.ErrCatastrophic, b.Command, err)
	}
	log.Debug().
		Str("command", b.Command).
		Int("requested", count).
		Int("created", len(out.Created)).
		Int("failed", len(out.Failed)).
		Dur("took", time.Since(start)).
		Msg("script batch finished")
	return out, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
