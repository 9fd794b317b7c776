package mongodb

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	mongodbopts "github.com/kart-io/mongosource/pkg/options/mongodb"
)

// buildTLSConfig returns nil when TLS is disabled.
//
// With InvalidHostNameAllowed the certificate chain is still verified
// against the system roots (or roots) but the host name is not.
func buildTLSConfig(ssl mongodbopts.SSLOptions, roots *x509.CertPool) *tls.Config {
	if !ssl.Enabled {
		return nil
	}

	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		RootCAs:    roots,
	}
	if ssl.InvalidHostNameAllowed {
		cfg.InsecureSkipVerify = true
		cfg.VerifyPeerCertificate = verifyChainOnly(roots)
	}
	return cfg
}

func verifyChainOnly(roots *x509.CertPool) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return fmt.Errorf("tls: server presented no certificates")
		}

		certs := make([]*x509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("tls: parse certificate: %w", err)
			}
			certs = append(certs, cert)
		}

		intermediates := x509.NewCertPool()
		for _, cert := range certs[1:] {
			intermediates.AddCert(cert)
		}

		// DNSName left empty: no host name check.
		_, err := certs[0].Verify(x509.VerifyOptions{
			Roots:         roots,
			Intermediates: intermediates,
		})
		return err
	}
}
