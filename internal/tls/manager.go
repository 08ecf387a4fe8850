package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"registration-wizard/internal/config"
	"registration-wizard/internal/util"
)

var ErrNoCertificate = errors.New("no TLS certificate available")

// Manager picks the server certificate: autocert when enabled, then the
// configured key pair, then (outside production) a self-signed one.
type Manager struct {
	cfg        config.ServerConfig
	production bool
	logger     *zap.Logger
	autoCert   *autocert.Manager

	mu   sync.Mutex
	file *tls.Certificate
	dev  *tls.Certificate
}

func NewManager(cfg config.ServerConfig, production bool, logger *zap.Logger) (*Manager, error) {
	m := &Manager{cfg: cfg, production: production, logger: util.OrNop(logger)}

	if cfg.AutoCert {
		if err := m.setupAutoCert(); err != nil {
			return nil, err
		}
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
		}
		m.file = &cert
	}
	return m, nil
}

func (m *Manager) setupAutoCert() error {
	if err := os.MkdirAll(m.cfg.AutoCertDir, 0o700); err != nil {
		return fmt.Errorf("could not create autocert directory: %w", err)
	}

	m.autoCert = &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(m.cfg.Domain),
		Cache:      autocert.DirCache(m.cfg.AutoCertDir),
		Email:      m.cfg.Email,
	}

	m.logger.Info("AutoCert configured",
		zap.String("domain", m.cfg.Domain),
		zap.String("cache_dir", m.cfg.AutoCertDir))
	return nil
}

func (m *Manager) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	if m.autoCert != nil {
		cert, err := m.autoCert.GetCertificate(hello)
		if err == nil {
			return cert, nil
		}
		m.logger.Warn("AutoCert failed, falling back", zap.Error(err))
	}

	if m.file != nil {
		return m.file, nil
	}

	if m.production {
		return nil, ErrNoCertificate
	}
	return m.devCertificate()
}

func (m *Manager) devCertificate() (*tls.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dev != nil {
		return m.dev, nil
	}

	hosts := []string{m.cfg.Domain, "localhost", "127.0.0.1", "::1"}
	cert, err := SelfSigned(hosts, devCertValidity)
	if err != nil {
		return nil, fmt.Errorf("failed to generate self-signed certificate: %w", err)
	}
	m.dev = &cert

	m.logger.Info("Generated self-signed certificate", zap.Strings("hosts", hosts))
	return m.dev, nil
}

func (m *Manager) GetTLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: m.GetCertificate,
		NextProtos:     []string{"h2", "http/1.1"},
		MinVersion:     tls.VersionTLS12,
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
		},
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		},
	}
}

// GetAutocertManager is nil unless autocert is enabled; cmd/server uses it
// to answer HTTP-01 challenges on the plain port.
func (m *Manager) GetAutocertManager() *autocert.Manager {
	return m.autoCert
}
