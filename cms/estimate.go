package cms

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/digitorus/pkcs7"
	"github.com/digitorus/signpdf/bundle"
)

var (
	ErrNilPublicKey   = errors.New("public key cannot be nil")
	ErrUnsupportedKey = errors.New("unsupported key type")
)

const (
	// baseSize covers the fixed SignedData structure and attribute headers.
	baseSize = 512

	// DefaultSignatureSize is the fallback for unrecognized key types.
	DefaultSignatureSize = 8192

	// timestampSize is reserved for a TSA token, responses differ per server.
	timestampSize = 9000
)

// PublicKeySignatureSize returns the maximum signature size for a public key.
func PublicKeySignatureSize(pub crypto.PublicKey) (int, error) {
	if pub == nil {
		return 0, ErrNilPublicKey
	}

	switch k := pub.(type) {
	case *rsa.PublicKey:
		if k.N == nil {
			return 0, fmt.Errorf("%w: RSA key has nil modulus", ErrUnsupportedKey)
		}
		return k.Size(), nil

	case *ecdsa.PublicKey:
		if k.Curve == nil {
			return 0, fmt.Errorf("%w: ECDSA key has nil curve", ErrUnsupportedKey)
		}
		// SEQUENCE { r INTEGER, s INTEGER }: two coordinates plus 9 bytes of
		// tags, lengths and sign padding.
		coordSize := (k.Curve.Params().BitSize + 7) / 8
		return 2*coordSize + 9, nil

	case ed25519.PublicKey:
		return ed25519.SignatureSize, nil

	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedKey, pub)
	}
}

// EstimateSize returns an upper bound, in bytes, of the signature
// BuildDetached produces for id. A placeholder slot of twice this many hex
// digits always fits the signature.
func EstimateSize(id *bundle.Identity, withTSA bool) (int, error) {
	if id == nil || id.Certificate == nil {
		return 0, ErrNilIdentity
	}

	size := baseSize

	sigSize, err := PublicKeySignatureSize(id.Certificate.PublicKey)
	if err != nil {
		sigSize = DefaultSignatureSize
	}
	size += sigSize

	// The message digest attribute and the digest algorithm identifiers.
	size += crypto.SHA256.Size() * 2

	degenerated, err := pkcs7.DegenerateCertificate(id.Certificate.Raw)
	if err != nil {
		return 0, fmt.Errorf("failed to degenerate certificate: %w", err)
	}
	size += len(degenerated)

	// Issuer and serial number of the signer info.
	size += len(id.Certificate.RawIssuer)

	for _, cert := range id.Additional() {
		degenerated, err := pkcs7.DegenerateCertificate(cert.Raw)
		if err != nil {
			return 0, fmt.Errorf("failed to degenerate certificate in chain: %w", err)
		}
		size += len(degenerated)
	}

	if withTSA {
		size += timestampSize
	}

	return size, nil
}
