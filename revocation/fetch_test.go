package revocation

import (
	"testing"

	"github.com/digitorus/signpdf/internal/testpki"
)

func TestFetch(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantOCSP int
		wantCRL  int
	}{
		{"both", Options{EmbedOCSP: true, EmbedCRL: true}, 1, 1},
		{"ocsp only", Options{EmbedOCSP: true}, 1, 0},
		{"crl only", Options{EmbedCRL: true}, 0, 1},
		{"stop on success", Options{EmbedOCSP: true, EmbedCRL: true, StopOnSuccess: true}, 1, 0},
		{"prefer crl", Options{EmbedOCSP: true, EmbedCRL: true, PreferCRL: true, StopOnSuccess: true}, 0, 1},
		{"disabled", Options{}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(st *testing.T) {
			pki := testpki.NewTestPKI(st)
			pki.StartRevocationServer()
			defer pki.Close()

			_, leaf := pki.IssueLeaf("Fetch Subject")

			var info InfoArchival
			if err := New(tt.opts)(leaf, pki.IntermediateCerts[0], &info); err != nil {
				st.Fatalf("fetch failed: %v", err)
			}
			if len(info.OCSP) != tt.wantOCSP || len(info.CRL) != tt.wantCRL {
				st.Errorf("got %d OCSP and %d CRL, want %d and %d", len(info.OCSP), len(info.CRL), tt.wantOCSP, tt.wantCRL)
			}
		})
	}
}

func TestFetchRevoked(t *testing.T) {
	pki := testpki.NewTestPKI(t)
	pki.StartRevocationServer()
	defer pki.Close()

	_, leaf := pki.IssueLeaf("Revoked Subject")
	pki.Revoke(leaf.SerialNumber)

	var info InfoArchival
	if err := Default(leaf, pki.IntermediateCerts[0], &info); err == nil {
		t.Fatal("expected an error for a revoked certificate")
	}
	if !info.Empty() {
		t.Error("nothing should be archived for a revoked certificate")
	}
}

func TestFetchSkipsCertificatesWithoutEndpoints(t *testing.T) {
	pki := testpki.NewTestPKI(t)

	var info InfoArchival
	if err := Default(pki.RootCert, nil, &info); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !info.Empty() {
		t.Error("expected nothing to be archived")
	}
}

func TestFetchCache(t *testing.T) {
	pki := testpki.NewTestPKI(t)
	pki.StartRevocationServer()
	defer pki.Close()

	_, leaf := pki.IssueLeaf("Cached Subject")
	fetch := New(Options{EmbedOCSP: true, EmbedCRL: true, Cache: NewMemoryCache()})

	for i := 0; i < 2; i++ {
		var info InfoArchival
		if err := fetch(leaf, pki.IntermediateCerts[0], &info); err != nil {
			t.Fatalf("fetch %d failed: %v", i, err)
		}
	}

	if pki.OCSPRequests != 1 || pki.CRLRequests != 1 {
		t.Errorf("expected one request per endpoint, got %d OCSP and %d CRL", pki.OCSPRequests, pki.CRLRequests)
	}
}

func TestFetchUnavailable(t *testing.T) {
	pki := testpki.NewTestPKI(t)
	pki.StartRevocationServer()
	_, leaf := pki.IssueLeaf("Offline Subject")
	pki.Close()

	var info InfoArchival
	if err := Default(leaf, pki.IntermediateCerts[0], &info); err == nil {
		t.Error("expected an error when both endpoints are unreachable")
	}
}
