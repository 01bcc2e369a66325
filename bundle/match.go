package bundle

import (
	"bytes"
	"crypto"
	"crypto/x509"
)

// matchCertificate returns the first certificate carrying pub.
func matchCertificate(pub crypto.PublicKey, certs []*x509.Certificate) *x509.Certificate {
	for _, cert := range certs {
		if publicKeysEqual(pub, cert.PublicKey) {
			return cert
		}
	}
	return nil
}

func publicKeysEqual(a, b crypto.PublicKey) bool {
	if a == nil || b == nil {
		return false
	}

	// All key types of the standard library implement Equal.
	if k, ok := a.(interface{ Equal(crypto.PublicKey) bool }); ok {
		return k.Equal(b)
	}

	a_bytes, err := x509.MarshalPKIXPublicKey(a)
	if err != nil {
		return false
	}
	b_bytes, err := x509.MarshalPKIXPublicKey(b)
	if err != nil {
		return false
	}
	return bytes.Equal(a_bytes, b_bytes)
}
