package cms

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"

	"github.com/digitorus/signpdf/internal/testpki"
)

func TestPublicKeySignatureSize(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	p384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	edPub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		key  interface{}
		want int
	}{
		{"RSA-2048", &rsaKey.PublicKey, 256},
		{"ECDSA-P384", &p384.PublicKey, 105},
		{"Ed25519", edPub, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(st *testing.T) {
			got, err := PublicKeySignatureSize(tt.key)
			if err != nil {
				st.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				st.Errorf("PublicKeySignatureSize = %d, want %d", got, tt.want)
			}
		})
	}

	if _, err := PublicKeySignatureSize(nil); !errors.Is(err, ErrNilPublicKey) {
		t.Errorf("expected ErrNilPublicKey, got %v", err)
	}
	if _, err := PublicKeySignatureSize("key"); !errors.Is(err, ErrUnsupportedKey) {
		t.Errorf("expected ErrUnsupportedKey, got %v", err)
	}
}

func TestEstimateSizeIsUpperBound(t *testing.T) {
	for _, profile := range []testpki.KeyProfile{testpki.RSA_2048, testpki.ECDSA_P384} {
		t.Run(string(profile), func(st *testing.T) {
			id := newIdentity(st, profile)

			estimate, err := EstimateSize(id, false)
			if err != nil {
				st.Fatalf("EstimateSize failed: %v", err)
			}

			signature, err := (&Builder{Identity: id}).BuildDetached([]byte("estimate"))
			if err != nil {
				st.Fatalf("BuildDetached failed: %v", err)
			}
			if len(signature) > estimate {
				st.Errorf("signature of %d bytes exceeds estimate %d", len(signature), estimate)
			}

			withTSA, err := EstimateSize(id, true)
			if err != nil {
				st.Fatalf("EstimateSize failed: %v", err)
			}
			if withTSA != estimate+timestampSize {
				st.Errorf("TSA reservation = %d, want %d", withTSA-estimate, timestampSize)
			}
		})
	}

	if _, err := EstimateSize(nil, false); !errors.Is(err, ErrNilIdentity) {
		t.Errorf("expected ErrNilIdentity, got %v", err)
	}
}
