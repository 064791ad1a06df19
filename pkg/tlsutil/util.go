package tlsutil

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"software.sslmate.com/src/go-pkcs12"
)

const minCertAge = time.Hour * 24

// LoadP12 reads a client certificate with its key and CA chain from a pkcs12 file.
func LoadP12(filename, password string) (*tls.Certificate, []*x509.Certificate, error) {
	p12Data, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, err
	}

	key, cert, cas, err := pkcs12.DecodeChain(p12Data, password)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", filename, err)
	}

	if cert.NotAfter.Before(time.Now().Add(minCertAge)) {
		return nil, nil, fmt.Errorf("cert is too old notAfter=(%s)", cert.NotAfter)
	}

	return &tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  key,
		Leaf:        cert,
	}, cas, nil
}

// ClientConfig builds a tls config for the api client. With an empty filename
// only the strict flag is applied.
func ClientConfig(filename, password string, strict bool) (*tls.Config, error) {
	conf := &tls.Config{ //nolint:exhaustruct
		MinVersion: tls.VersionTLS12,
	}

	if filename != "" {
		cert, cas, err := LoadP12(filename, password)
		if err != nil {
			return nil, err
		}

		conf.Certificates = []tls.Certificate{*cert}

		if len(cas) > 0 {
			conf.RootCAs = MakeCertPool(cas...)
		}
	}

	if !strict {
		conf.InsecureSkipVerify = true
	}

	return conf, nil
}

func CertToPem(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
}

func KeyToPem(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

func MakeCertPool(certs ...*x509.Certificate) *x509.CertPool {
	cp := x509.NewCertPool()
	for _, c := range certs {
		if c != nil {
			cp.AddCert(c)
		}
	}

	return cp
}
