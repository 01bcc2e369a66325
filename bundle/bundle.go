// Package bundle extracts the signing identity from a PKCS#12 certificate
// bundle.
package bundle

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"fmt"

	"github.com/digitorus/signpdf/common"
)

// Identity is the key material recovered from a bundle.
type Identity struct {
	// PrivateKey is the first private key found in the bundle.
	PrivateKey crypto.Signer

	// Certificate is the certificate whose public key matches PrivateKey.
	Certificate *x509.Certificate

	// Certificates holds every certificate of the bundle in bundle order,
	// Certificate included.
	Certificates []*x509.Certificate
}

// Additional returns the certificates of the bundle other than the signing
// certificate, in bundle order.
func (id *Identity) Additional() []*x509.Certificate {
	var additional []*x509.Certificate
	for _, cert := range id.Certificates {
		if cert != id.Certificate {
			additional = append(additional, cert)
		}
	}
	return additional
}

// Chain returns the signing certificate followed by its issuers, as far as
// the bundle contains them.
func (id *Identity) Chain() []*x509.Certificate {
	chain := []*x509.Certificate{id.Certificate}
	for cert := id.Certificate; len(chain) <= len(id.Certificates); {
		if bytes.Equal(cert.RawIssuer, cert.RawSubject) {
			break
		}
		issuer := findIssuer(cert, id.Certificates)
		if issuer == nil {
			break
		}
		chain = append(chain, issuer)
		cert = issuer
	}
	return chain
}

func findIssuer(cert *x509.Certificate, candidates []*x509.Certificate) *x509.Certificate {
	for _, candidate := range candidates {
		if candidate == cert || !bytes.Equal(cert.RawIssuer, candidate.RawSubject) {
			continue
		}
		if cert.CheckSignatureFrom(candidate) == nil {
			return candidate
		}
	}
	return nil
}

// Options controls how a bundle is decoded.
type Options struct {
	// Passphrase decrypts the bundle. An empty passphrase is valid.
	Passphrase string

	// Strict rejects bundles that are not a single well formed DER structure
	// and disables the fallback decoder.
	Strict bool
}

// Extract decodes data and returns the private key together with the
// certificate that carries its public key.
func Extract(data []byte, opts Options) (*Identity, error) {
	if len(data) == 0 {
		return nil, &common.InvalidInputError{Msg: "certificate bundle expected as non-empty byte slice"}
	}

	contents, err := decodeBundle(data, opts)
	if err != nil {
		return nil, &common.BundleParseError{Err: err}
	}

	signer, ok := contents.key.(crypto.Signer)
	if !ok {
		return nil, &common.BundleParseError{Err: fmt.Errorf("private key of type %T cannot sign", contents.key)}
	}

	cert := matchCertificate(signer.Public(), contents.certificates)
	if cert == nil {
		return nil, &common.CertificateMismatchError{Certificates: len(contents.certificates)}
	}

	return &Identity{
		PrivateKey:   signer,
		Certificate:  cert,
		Certificates: contents.certificates,
	}, nil
}

// Inspect returns the common name of the signing certificate in data. It
// reads the bundle only; any failure is reported as a VerifyInfoError.
func Inspect(data []byte, passphrase string) (string, error) {
	id, err := Extract(data, Options{Passphrase: passphrase})
	if err != nil {
		return "", &common.VerifyInfoError{Err: err}
	}
	return id.Certificate.Subject.CommonName, nil
}
