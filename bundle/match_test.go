package bundle

import (
	"crypto/x509"
	"testing"

	"github.com/digitorus/signpdf/internal/testpki"
)

func TestMatchCertificateOrder(t *testing.T) {
	key, cert := testpki.SelfSigned(t, testpki.ECDSA_P256, "Signer")
	_, other1 := testpki.SelfSigned(t, testpki.ECDSA_P256, "Other 1")
	_, other2 := testpki.SelfSigned(t, testpki.RSA_2048, "Other 2")

	orders := map[string][]*x509.Certificate{
		"first":  {cert, other1, other2},
		"middle": {other1, cert, other2},
		"last":   {other1, other2, cert},
	}

	for name, certs := range orders {
		t.Run(name, func(st *testing.T) {
			if got := matchCertificate(key.Public(), certs); got != cert {
				st.Errorf("expected the signer certificate, got %v", got)
			}
		})
	}

	if got := matchCertificate(key.Public(), []*x509.Certificate{other1, other2}); got != nil {
		t.Errorf("expected no match, got %s", got.Subject)
	}
}

// opaqueKey hides the Equal method of the wrapped key.
type opaqueKey struct {
	pub interface{}
}

func TestPublicKeysEqual(t *testing.T) {
	key, cert := testpki.SelfSigned(t, testpki.ECDSA_P256, "Signer")

	if !publicKeysEqual(key.Public(), cert.PublicKey) {
		t.Error("expected equal keys")
	}
	if publicKeysEqual(nil, cert.PublicKey) {
		t.Error("expected nil key not to match")
	}
	if publicKeysEqual(opaqueKey{key.Public()}, cert.PublicKey) {
		t.Error("expected a key that cannot be marshaled not to match")
	}
}

func TestIdentityChain(t *testing.T) {
	pki := testpki.NewTestPKIWithConfig(t, testpki.TestPKIConfig{Profile: testpki.ECDSA_P256, IntermediateCAs: 2})
	key, leaf := pki.IssueLeaf("Chain Signer")

	// Root first, leaf in the middle: the chain does not depend on bundle order.
	certs := []*x509.Certificate{pki.RootCert, leaf, pki.IntermediateCerts[0], pki.IntermediateCerts[1]}
	id := &Identity{PrivateKey: key, Certificate: leaf, Certificates: certs}

	chain := id.Chain()
	want := []*x509.Certificate{leaf, pki.IntermediateCerts[1], pki.IntermediateCerts[0], pki.RootCert}
	if len(chain) != len(want) {
		t.Fatalf("chain length %d, want %d", len(chain), len(want))
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Errorf("chain[%d] = %s, want %s", i, chain[i].Subject.CommonName, want[i].Subject.CommonName)
		}
	}

	// A missing intermediate ends the chain.
	id.Certificates = []*x509.Certificate{leaf, pki.RootCert}
	if chain := id.Chain(); len(chain) != 1 {
		t.Errorf("expected only the leaf, got %d certificates", len(chain))
	}
}
