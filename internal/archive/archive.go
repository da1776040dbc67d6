// Package archive replicates persisted session records off the machine that
// ran the session.
package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/oranolio956/qa-automation-framework-sub006/internal/core"
	prov "github.com/oranolio956/qa-automation-framework-sub006/internal/providers"
)

const (
	DriverS3   = "s3"
	DriverSFTP = "sftp"
)

// New returns the archiver selected by archive.driver, or nil when archiving
// is disabled.
func New(ctx context.Context, cfg prov.Config) (core.Archiver, error) {
	switch strings.ToLower(cfg.Archive.Driver) {
	case "", "none":
		return nil, nil
	case DriverS3:
		s := cfg.Archive.S3
		a, err := NewS3(ctx, S3Config{
			Bucket:          s.Bucket,
			Region:          s.Region,
			Endpoint:        s.Endpoint,
			Prefix:          s.Prefix,
			PathStyle:       s.PathStyle,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case DriverSFTP:
		a, err := NewSFTP(cfg)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Archive.Driver)
	}
}
