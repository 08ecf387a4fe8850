package tls

import (
	"crypto/tls"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registration-wizard/internal/config"
)

func TestSelfSigned(t *testing.T) {
	cert, err := SelfSigned([]string{"wizard.local", "127.0.0.1", ""}, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, cert.Leaf)

	assert.Equal(t, []string{"wizard.local"}, cert.Leaf.DNSNames)
	require.Len(t, cert.Leaf.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", cert.Leaf.IPAddresses[0].String())
	assert.NoError(t, cert.Leaf.VerifyHostname("wizard.local"))
}

func TestManagerDevFallback(t *testing.T) {
	m, err := NewManager(config.ServerConfig{Domain: "localhost"}, false, nil)
	require.NoError(t, err)
	assert.Nil(t, m.GetAutocertManager())

	first, err := m.GetCertificate(&tls.ClientHelloInfo{ServerName: "localhost"})
	require.NoError(t, err)
	second, err := m.GetCertificate(&tls.ClientHelloInfo{ServerName: "localhost"})
	require.NoError(t, err)
	assert.Same(t, first, second)

	cfg := m.GetTLSConfig()
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
}

func TestManagerProductionNeedsCertificate(t *testing.T) {
	m, err := NewManager(config.ServerConfig{Domain: "example.com"}, true, nil)
	require.NoError(t, err)

	_, err = m.GetCertificate(&tls.ClientHelloInfo{ServerName: "example.com"})
	assert.ErrorIs(t, err, ErrNoCertificate)
}

func TestManagerMissingKeyPair(t *testing.T) {
	_, err := NewManager(config.ServerConfig{CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}, false, nil)
	assert.Error(t, err)
}
