package archive

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	prov "github.com/oranolio956/qa-automation-framework-sub006/internal/providers"
)

func TestNewDisabled(t *testing.T) {
	for _, driver := range []string{"", "none", "NONE"} {
		var cfg prov.Config
		cfg.Archive.Driver = driver
		a, err := New(context.Background(), cfg)
		if err != nil || a != nil {
			t.Fatalf("driver %q: expected no archiver, got %v %v", driver, a, err)
		}
	}
}

func TestNewUnknownDriver(t *testing.T) {
	var cfg prov.Config
	cfg.Archive.Driver = "ftp"
	if _, err := New(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "unknown archive driver") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
}

func TestNewS3RequiresBucket(t *testing.T) {
	var cfg prov.Config
	cfg.Archive.Driver = "s3"
	a, err := New(context.Background(), cfg)
	if err == nil || a != nil {
		t.Fatalf("expected bucket error and nil archiver, got %v %v", a, err)
	}
}

func TestNewSFTPValidation(t *testing.T) {
	var cfg prov.Config
	cfg.Archive.Driver = "sftp"
	cfg.Archive.SFTP.Host = "farm-01"
	if _, err := New(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "user required") {
		t.Fatalf("expected user error, got %v", err)
	}
	cfg.Archive.SFTP.User = "farm"
	cfg.Archive.SFTP.KeyPath = filepath.Join(t.TempDir(), "missing")
	if a, err := New(context.Background(), cfg); err == nil || a != nil {
		t.Fatalf("expected key error, got %v %v", a, err)
	}
}
