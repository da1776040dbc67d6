package archive

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"

	prov "github.com/oranolio956/qa-automation-framework-sub006/internal/providers"
	"github.com/oranolio956/qa-automation-framework-sub006/internal/ssh"
)

// SFTP copies session records to a directory on the farm host.
type SFTP struct {
	Client    *ssh.Client
	RemoteDir string
}

func NewSFTP(cfg prov.Config) (*SFTP, error) {
	s := cfg.Archive.SFTP
	if s.User == "" {
		return nil, fmt.Errorf("sftp archive: user required")
	}
	client, err := ssh.NewClient(s.Host, s.Port, s.User, s.KeyPath, s.KnownHosts)
	if err != nil {
		return nil, fmt.Errorf("sftp archive: %w", err)
	}
	return &SFTP{Client: client, RemoteDir: s.RemoteDir}, nil
}

func (a *SFTP) Driver() string { return DriverSFTP }

// Upload pushes the file into RemoteDir and returns an sftp:// location.
func (a *SFTP) Upload(ctx context.Context, localPath string) (string, error) {
	cli, err := ssh.Dial(ctx, a.Client)
	if err != nil {
		return "", err
	}
	defer cli.Close()
	remote := path.Join(a.RemoteDir, filepath.Base(localPath))
	if err := ssh.PushFile(ctx, cli, localPath, remote); err != nil {
		return "", fmt.Errorf("push %s: %w", remote, err)
	}
	loc := url.URL{Scheme: "sftp", User: url.User(a.Client.User), Host: a.Client.Addr, Path: remote}
	return loc.String(), nil
}
