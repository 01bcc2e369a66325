package cms

import (
	"crypto/x509"
	"errors"
	"strings"
	"testing"

	"github.com/digitorus/pkcs7"
	"github.com/digitorus/signpdf/bundle"
	"github.com/digitorus/signpdf/internal/testpki"
	"github.com/digitorus/signpdf/revocation"
)

func TestBuildDetachedWithRevocation(t *testing.T) {
	pki := testpki.NewTestPKI(t)
	pki.StartRevocationServer()
	defer pki.Close()

	key, cert := pki.IssueLeaf("Revocation Signer")
	id := &bundle.Identity{
		PrivateKey:   key,
		Certificate:  cert,
		Certificates: append([]*x509.Certificate{cert}, pki.Chain()...),
	}

	builder := &Builder{Identity: id, Revocation: revocation.Default}
	signature, err := builder.BuildDetached([]byte("content"))
	if err != nil {
		t.Fatalf("BuildDetached failed: %v", err)
	}

	p7, err := pkcs7.Parse(signature)
	if err != nil {
		t.Fatal(err)
	}

	var info revocation.InfoArchival
	if err := p7.UnmarshalSignedAttribute(revocation.OIDAttributeInfoArchival, &info); err != nil {
		t.Fatalf("missing revocation archive: %v", err)
	}
	if len(info.OCSP) != 1 || len(info.CRL) != 1 {
		t.Errorf("expected one OCSP response and one CRL, got %d and %d", len(info.OCSP), len(info.CRL))
	}
	if got := info.Status(cert); got != revocation.Good {
		t.Errorf("status = %v, want good", got)
	}

	p7.Content = []byte("content")
	if err := p7.Verify(); err != nil {
		t.Errorf("signature does not verify: %v", err)
	}
}

func TestBuildDetachedRevokedSigner(t *testing.T) {
	pki := testpki.NewTestPKI(t)
	pki.StartRevocationServer()
	defer pki.Close()

	key, cert := pki.IssueLeaf("Revoked Signer")
	pki.Revoke(cert.SerialNumber)

	builder := &Builder{
		Identity:   &bundle.Identity{PrivateKey: key, Certificate: cert, Certificates: []*x509.Certificate{cert}},
		Revocation: revocation.Default,
	}

	_, err := builder.BuildDetached([]byte("content"))
	if err == nil {
		t.Fatal("expected a revoked signer to fail")
	}
	if !strings.Contains(err.Error(), "Revoked Signer") {
		t.Errorf("error does not name the certificate: %v", err)
	}
}

func TestBuildDetachedRevocationFuncError(t *testing.T) {
	errFetch := errors.New("offline")
	builder := &Builder{
		Identity: newIdentity(t, testpki.ECDSA_P256),
		Revocation: func(cert, issuer *x509.Certificate, i *revocation.InfoArchival) error {
			return errFetch
		},
	}

	if _, err := builder.BuildDetached([]byte("content")); !errors.Is(err, errFetch) {
		t.Errorf("expected the revocation error, got %v", err)
	}
}
