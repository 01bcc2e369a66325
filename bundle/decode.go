package bundle

import (
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/containerd/log"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
	"golang.org/x/crypto/pkcs12"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

var (
	ErrNoPrivateKey  = errors.New("bundle contains no private key")
	ErrNoCertificate = errors.New("bundle contains no certificate")
)

type contents struct {
	key          crypto.PrivateKey
	certificates []*x509.Certificate
}

func decodeBundle(data []byte, opts Options) (*contents, error) {
	if opts.Strict {
		if err := checkDER(data); err != nil {
			return nil, err
		}
		return decodeBags(data, opts.Passphrase)
	}

	decoded, err := decodeBags(outerSequence(data), opts.Passphrase)
	if err == nil || errors.Is(err, pkcs12.ErrIncorrectPassword) {
		return decoded, err
	}

	// x/crypto only implements the legacy SHA-1 MAC and PBE schemes, bundles
	// written by current OpenSSL releases need the second decoder.
	log.L.WithError(err).Debug("falling back to go-pkcs12 decoder")

	decoded, fallbackErr := decodeChain(outerSequence(data), opts.Passphrase)
	if fallbackErr != nil {
		return nil, errors.Join(err, fallbackErr)
	}
	return decoded, nil
}

// decodeBags walks every safe bag of the bundle. The first key bag is used,
// all certificate bags are kept in bundle order.
func decodeBags(data []byte, passphrase string) (*contents, error) {
	blocks, err := pkcs12.ToPEM(data, passphrase)
	if err != nil {
		return nil, err
	}

	c := &contents{}
	for _, b := range blocks {
		switch b.Type {
		case "PRIVATE KEY":
			if c.key != nil {
				continue
			}
			if c.key, err = parsePrivateKey(b.Bytes); err != nil {
				return nil, err
			}
		case "CERTIFICATE":
			cert, err := x509.ParseCertificate(b.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse certificate: %w", err)
			}
			c.certificates = append(c.certificates, cert)
		}
	}

	return c, c.check()
}

func decodeChain(data []byte, passphrase string) (*contents, error) {
	key, cert, ca_certs, err := gopkcs12.DecodeChain(data, passphrase)
	if err != nil {
		return nil, err
	}

	c := &contents{
		key:          key,
		certificates: append([]*x509.Certificate{cert}, ca_certs...),
	}
	return c, c.check()
}

func (c *contents) check() error {
	if c.key == nil {
		return ErrNoPrivateKey
	}
	if len(c.certificates) == 0 {
		return ErrNoCertificate
	}
	return nil
}

// parsePrivateKey accepts the PKCS#1 and SEC 1 forms the PEM conversion
// produces as well as PKCS#8.
func parsePrivateKey(der []byte) (crypto.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		return key, nil
	}
	return nil, errors.New("failed to parse private key")
}

// checkDER requires data to be exactly one DER encoded SEQUENCE.
func checkDER(data []byte) error {
	input := cryptobyte.String(data)

	var pfx cryptobyte.String
	if !input.ReadASN1Element(&pfx, cryptobyte_asn1.SEQUENCE) {
		return errors.New("bundle is not a DER encoded SEQUENCE")
	}
	if !input.Empty() {
		return fmt.Errorf("%d bytes of trailing data after bundle", len(input))
	}
	return nil
}

// outerSequence drops anything after the outer SEQUENCE. Data that does not
// start with a well formed SEQUENCE is returned unchanged.
func outerSequence(data []byte) []byte {
	input := cryptobyte.String(data)

	var pfx cryptobyte.String
	if !input.ReadASN1Element(&pfx, cryptobyte_asn1.SEQUENCE) {
		return data
	}
	return pfx
}
