package mongodb

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mongodbopts "github.com/kart-io/mongosource/pkg/options/mongodb"
)

type testCA struct {
	cert *x509.Certificate
	key  *ecdsa.PrivateKey
	pool *x509.CertPool
}

func newTestCA(t *testing.T) *testCA {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(cert)
	return &testCA{cert: cert, key: key, pool: pool}
}

func (ca *testCA) issue(t *testing.T, dnsName string) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: dnsName},
		DNSNames:     []string{dnsName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, ca.cert, &key.PublicKey, ca.key)
	require.NoError(t, err)
	return der
}

func TestBuildTLSConfig(t *testing.T) {
	assert.Nil(t, buildTLSConfig(mongodbopts.SSLOptions{}, nil))

	cfg := buildTLSConfig(mongodbopts.SSLOptions{Enabled: true}, nil)
	require.NotNil(t, cfg)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.Nil(t, cfg.VerifyPeerCertificate)

	cfg = buildTLSConfig(mongodbopts.SSLOptions{Enabled: true, InvalidHostNameAllowed: true}, nil)
	require.NotNil(t, cfg)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.NotNil(t, cfg.VerifyPeerCertificate)
}

func TestVerifyChainOnly(t *testing.T) {
	ca := newTestCA(t)
	leaf := ca.issue(t, "db1.internal")

	t.Run("host name is not checked", func(t *testing.T) {
		// 证书签发给 db1.internal, 但不校验主机名
		verify := verifyChainOnly(ca.pool)
		assert.NoError(t, verify([][]byte{leaf}, nil))
	})

	t.Run("unknown authority fails", func(t *testing.T) {
		other := newTestCA(t)
		verify := verifyChainOnly(other.pool)
		assert.Error(t, verify([][]byte{leaf}, nil))
	})

	t.Run("no certificates", func(t *testing.T) {
		verify := verifyChainOnly(ca.pool)
		assert.Error(t, verify(nil, nil))
	})

	t.Run("garbage certificate", func(t *testing.T) {
		verify := verifyChainOnly(ca.pool)
		assert.Error(t, verify([][]byte{[]byte("not a certificate")}, nil))
	})
}
