package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	xssh "golang.org/x/crypto/ssh"
)

// Client reaches a device-farm host over SSH with public key auth and a
// strict known_hosts check.
type Client struct {
	Addr       string
	User       string
	Signer     xssh.Signer
	KnownHosts xssh.HostKeyCallback
	Timeout    time.Duration
	Retries    int
	Backoff    time.Duration
}

// NewClient loads the private key and known_hosts file for host:port.
func NewClient(host string, port int, user, keyPath, knownHostsPath string) (*Client, error) {
	if host == "" {
		return nil, errors.New("ssh: host required")
	}
	if port == 0 {
		port = 22
	}
	signer, err := LoadPrivateKeySigner(keyPath)
	if err != nil {
		return nil, err
	}
	cb, err := LoadKnownHostsCallback(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts: %w", err)
	}
	return &Client{
		Addr:       net.JoinHostPort(host, strconv.Itoa(port)),
		User:       user,
		Signer:     signer,
		KnownHosts: cb,
		Timeout:    10 * time.Second,
	}, nil
}

func (c *Client) makeConfig() (*xssh.ClientConfig, error) {
	if c.Signer == nil {
		return nil, errors.New("ssh: signer required")
	}
	if c.KnownHosts == nil {
		return nil, errors.New("ssh: host key callback required")
	}
	return &xssh.ClientConfig{
		User:            c.User,
		Auth:            []xssh.AuthMethod{xssh.PublicKeys(c.Signer)},
		HostKeyCallback: c.KnownHosts,
		Timeout:         c.Timeout,
	}, nil
}

// RunCommand executes a remote command and returns its stdout and stderr.
// Connection failures are retried with linear backoff; a command that ran
// and exited non-zero is returned as is.
func (c *Client) RunCommand(ctx context.Context, command string) (string, string, error) {
	retries := c.Retries
	if retries < 0 {
		retries = 0
	}
	backoff := c.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		cli, err := Dial(ctx, c)
		if err != nil {
			lastErr = err
		} else {
			stdout, stderr, err := run(ctx, cli, command)
			_ = cli.Close()
			var exitErr *xssh.ExitError
			if err == nil || errors.As(err, &exitErr) || ctx.Err() != nil {
				return stdout, stderr, err
			}
			lastErr = err
		}
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		if attempt < retries {
			select {
			case <-ctx.Done():
				return "", "", ctx.Err()
			case <-time.After(backoff * time.Duration(attempt+1)):
			}
		}
	}
	return "", "", lastErr
}

func run(ctx context.Context, cli *xssh.Client, command string) (string, string, error) {
	session, err := cli.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("new session: %w", err)
	}
	defer session.Close()
	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()
	select {
	case <-ctx.Done():
		_ = session.Signal(xssh.SIGKILL)
		_ = cli.Close()
		<-done
		return "", "", ctx.Err()
	case err := <-done:
		return stdout.String(), stderr.String(), err
	}
}

// Dial establishes an SSH connection using the provided client configuration.
// The caller is responsible for closing the returned client.
func Dial(ctx context.Context, c *Client) (*xssh.Client, error) {
	cfg, err := c.makeConfig()
	if err != nil {
		return nil, err
	}
	type res struct {
		cli *xssh.Client
		err error
	}
	ch := make(chan res, 1)
	go func() {
		cli, err := xssh.Dial("tcp", c.Addr, cfg)
		ch <- res{cli: cli, err: err}
	}()
	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.cli != nil {
				_ = r.cli.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("dial %s: %w", c.Addr, r.err)
		}
		return r.cli, nil
	}
}

// ShellJoin renders name and args as a single POSIX shell command line.
func ShellJoin(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{name}, args...) {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:=@,+", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
