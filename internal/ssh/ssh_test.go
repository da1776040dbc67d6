package ssh

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	xssh "golang.org/x/crypto/ssh"
)

func testKey(t *testing.T, dir string) (xssh.Signer, string) {
	t.Helper()
	path := filepath.Join(dir, "key-"+strings.ReplaceAll(t.Name(), "/", "_"))
	pub, err := GenerateEd25519Keypair(path)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	signer, err := LoadPrivateKeySigner(path)
	if err != nil {
		t.Fatalf("load key: %v", err)
	}
	return signer, pub
}

type execHandler func(command string) (stdout, stderr string, status uint32)

// startServer runs a minimal exec-only SSH server on loopback.
func startServer(t *testing.T, hostKey xssh.Signer, handle execHandler) string {
	t.Helper()
	cfg := &xssh.ServerConfig{
		PublicKeyCallback: func(xssh.ConnMetadata, xssh.PublicKey) (*xssh.Permissions, error) { return nil, nil },
	}
	cfg.AddHostKey(hostKey)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConn(nc, cfg, handle)
		}
	}()
	return ln.Addr().String()
}

func serveConn(nc net.Conn, cfg *xssh.ServerConfig, handle execHandler) {
	_, chans, reqs, err := xssh.NewServerConn(nc, cfg)
	if err != nil {
		return
	}
	go xssh.DiscardRequests(reqs)
	for nch := range chans {
		if nch.ChannelType() != "session" {
			_ = nch.Reject(xssh.UnknownChannelType, "session only")
			continue
		}
		ch, creqs, err := nch.Accept()
		if err != nil {
			continue
		}
		go func() {
			defer ch.Close()
			for req := range creqs {
				if req.Type != "exec" {
					_ = req.Reply(false, nil)
					continue
				}
				var payload struct{ Command string }
				_ = xssh.Unmarshal(req.Payload, &payload)
				_ = req.Reply(true, nil)
				stdout, stderr, status := handle(payload.Command)
				_, _ = ch.Write([]byte(stdout))
				_, _ = ch.Stderr().Write([]byte(stderr))
				_, _ = ch.SendRequest("exit-status", false, xssh.Marshal(struct{ Status uint32 }{status}))
				return
			}
		}()
	}
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	hostKey, _ := testKey(t, dir)
	userKey, _ := testKey(t, filepath.Join(dir, "user"))
	seen := make(chan string, 1)
	addr := startServer(t, hostKey, func(cmd string) (string, string, uint32) {
		seen <- cmd
		return "List of devices attached\nemulator-5554\tdevice\n", "", 0
	})

	c := &Client{Addr: addr, User: "farm", Signer: userKey, KnownHosts: xssh.FixedHostKey(hostKey.PublicKey()), Timeout: 5 * time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stdout, _, err := c.RunCommand(ctx, ShellJoin("adb", "devices"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := <-seen; got != "adb devices" {
		t.Fatalf("server saw %q", got)
	}
	if !strings.Contains(stdout, "emulator-5554\tdevice") {
		t.Fatalf("unexpected stdout %q", stdout)
	}
}

func TestRunCommandExitStatus(t *testing.T) {
	dir := t.TempDir()
	hostKey, _ := testKey(t, dir)
	userKey, _ := testKey(t, filepath.Join(dir, "user"))
	var calls atomic.Int32
	addr := startServer(t, hostKey, func(string) (string, string, uint32) {
		calls.Add(1)
		return "", "adb: command not found\n", 127
	})

	c := &Client{Addr: addr, User: "farm", Signer: userKey, KnownHosts: xssh.FixedHostKey(hostKey.PublicKey()), Retries: 2, Backoff: time.Millisecond}
	_, stderr, err := c.RunCommand(context.Background(), "adb devices")
	var exitErr *xssh.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitStatus() != 127 {
		t.Fatalf("expected exit status 127, got %v", err)
	}
	if !strings.Contains(stderr, "not found") {
		t.Fatalf("stderr not captured: %q", stderr)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("a command that ran must not be retried, calls=%d", n)
	}
}

func TestRunCommandHostKeyMismatch(t *testing.T) {
	dir := t.TempDir()
	hostKey, _ := testKey(t, dir)
	otherKey, _ := testKey(t, filepath.Join(dir, "other"))
	userKey, _ := testKey(t, filepath.Join(dir, "user"))
	addr := startServer(t, hostKey, func(string) (string, string, uint32) { return "", "", 0 })

	c := &Client{Addr: addr, User: "farm", Signer: userKey, KnownHosts: xssh.FixedHostKey(otherKey.PublicKey())}
	if _, _, err := c.RunCommand(context.Background(), "adb devices"); err == nil {
		t.Fatalf("expected host key mismatch")
	}
}

func TestClientRequiresHostKeyCallback(t *testing.T) {
	signer, _ := testKey(t, t.TempDir())
	c := &Client{Addr: "127.0.0.1:1", Signer: signer}
	if _, err := Dial(context.Background(), c); err == nil || !strings.Contains(err.Error(), "host key callback") {
		t.Fatalf("expected host key callback error, got %v", err)
	}
}

func TestNewClientMissingKey(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewClient("farm-01", 22, "farm", filepath.Join(dir, "none"), filepath.Join(dir, "known_hosts")); err == nil {
		t.Fatalf("expected missing key error")
	}
	if _, err := NewClient("", 22, "farm", "", ""); err == nil {
		t.Fatalf("expected missing host error")
	}
}

func TestNewClient(t *testing.T) {
	dir := t.TempDir()
	key := filepath.Join(dir, "id_ed25519")
	if _, err := GenerateEd25519Keypair(key); err != nil {
		t.Fatalf("keygen: %v", err)
	}
	c, err := NewClient("farm-01", 0, "farm", key, filepath.Join(dir, "known_hosts"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.Addr != "farm-01:22" || c.KnownHosts == nil || c.Signer == nil {
		t.Fatalf("unexpected client %+v", c)
	}
}
