package fleet

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	prov "github.com/oranolio956/qa-automation-framework-sub006/internal/providers"
)

// TLSFiles locates the server certificate and, for mutual TLS, the CA that
// signs accepted client certificates.
type TLSFiles struct {
	CertFile string
	KeyFile  string
	ClientCA string
}

// TLSFilesFromConfig returns nil when fleet.tls is not configured.
func TLSFilesFromConfig(cfg prov.Config) *TLSFiles {
	t := cfg.Fleet.TLS
	if t.CertFile == "" && t.KeyFile == "" && t.ClientCA == "" {
		return nil
	}
	return &TLSFiles{CertFile: t.CertFile, KeyFile: t.KeyFile, ClientCA: t.ClientCA}
}

// BuildTLS loads the server key pair. With ClientCA set, clients must present
// a certificate signed by it.
func BuildTLS(files TLSFiles) (*tls.Config, error) {
	if files.CertFile == "" || files.KeyFile == "" {
		return nil, fmt.Errorf("server cert and key required for TLS")
	}
	cert, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load server certificate: %w", err)
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if files.ClientCA != "" {
		caPEM, err := os.ReadFile(files.ClientCA)
		if err != nil {
			return nil, fmt.Errorf("read client CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("failed to parse client CA certificate")
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
		log.Info().Str("ca_cert", files.ClientCA).Msg("mTLS client authentication enabled")
	}
	return cfg, nil
}
