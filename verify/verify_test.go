package verify

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/digitorus/signpdf/bundle"
	"github.com/digitorus/signpdf/cms"
	"github.com/digitorus/signpdf/internal/testpdf"
	"github.com/digitorus/signpdf/internal/testpki"
	"github.com/digitorus/signpdf/sign"
)

func signTestDocument(t *testing.T, tsa cms.TSA) ([]byte, *sign.Result) {
	pki := testpki.NewTestPKI(t)
	key, cert := pki.IssueLeaf("Verify Test Signer")

	id := &bundle.Identity{
		PrivateKey:   key,
		Certificate:  cert,
		Certificates: append([]*x509.Certificate{cert}, pki.Chain()...),
	}

	result, err := sign.Sign(context.Background(), testpdf.New(testpdf.Options{}), &cms.Builder{Identity: id, TSA: tsa}, sign.Options{})
	if err != nil {
		t.Fatalf("failed to sign test document: %v", err)
	}
	return result.Document, result
}

func TestVerify(t *testing.T) {
	doc, result := signTestDocument(t, cms.TSA{})

	response, err := Verify(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(response.Signers) != 1 {
		t.Fatalf("expected 1 signer, got %d", len(response.Signers))
	}

	signer := response.Signers[0]
	for _, e := range signer.ValidationErrors {
		t.Errorf("unexpected validation error: %v", e)
	}
	if !signer.ValidSignature {
		t.Error("expected a valid signature")
	}
	if !signer.CoversDocument {
		t.Error("expected the signature to cover the whole document")
	}
	if signer.Name != "Verify Test Signer" {
		t.Errorf("Name = %q", signer.Name)
	}
	if signer.Field != "Signature1" {
		t.Errorf("Field = %q", signer.Field)
	}
	if signer.Reason != "Test" {
		t.Errorf("Reason = %q", signer.Reason)
	}
	if signer.ByteRange != [4]int64(result.ByteRange) {
		t.Errorf("ByteRange = %v, want %v", signer.ByteRange, result.ByteRange)
	}
	if signer.HashAlgorithm != "SHA-256" {
		t.Errorf("HashAlgorithm = %q", signer.HashAlgorithm)
	}
	if signer.SignatureTime == nil {
		t.Error("expected a signature time")
	}

	covered, err := result.ByteRange.Select(doc)
	if err != nil {
		t.Fatal(err)
	}
	want := sha256.Sum256(covered)
	if signer.DocumentHash != hex.EncodeToString(want[:]) {
		t.Errorf("DocumentHash = %s, want %x", signer.DocumentHash, want)
	}

	signers := 0
	for _, c := range signer.Certificates {
		if c.Signer {
			signers++
		}
	}
	if len(signer.Certificates) != 3 || signers != 1 {
		t.Errorf("expected 3 certificates with 1 signer, got %d with %d", len(signer.Certificates), signers)
	}
	if response.DocumentInfo.Pages != 1 {
		t.Errorf("Pages = %d, want 1", response.DocumentInfo.Pages)
	}
}

func TestVerifyTampered(t *testing.T) {
	doc, _ := signTestDocument(t, cms.TSA{})

	tampered := bytes.Replace(doc, []byte("/Reason (Test)"), []byte("/Reason (Tost)"), 1)
	if bytes.Equal(tampered, doc) {
		t.Fatal("failed to tamper with the document")
	}

	response, err := Verify(bytes.NewReader(tampered), int64(len(tampered)))
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	signer := response.Signers[0]
	if signer.ValidSignature {
		t.Error("expected the tampered signature to be invalid")
	}

	var invalid *InvalidSignatureError
	found := false
	for _, e := range signer.ValidationErrors {
		if errors.As(e, &invalid) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an InvalidSignatureError, got %v", signer.ValidationErrors)
	}
}

func TestVerifyAppended(t *testing.T) {
	doc, _ := signTestDocument(t, cms.TSA{})
	appended := append(bytes.Clone(doc), []byte("\n% appended\n")...)

	response, err := Verify(bytes.NewReader(appended), int64(len(appended)))
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if response.Signers[0].CoversDocument {
		t.Error("expected appended data to be detected")
	}
	if !response.Signers[0].ValidSignature {
		t.Error("expected the signature itself to remain valid")
	}
}

func TestVerifyUnsigned(t *testing.T) {
	doc := testpdf.New(testpdf.Options{})

	response, err := Verify(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	signer := response.Signers[0]
	if signer.ValidSignature {
		t.Error("expected an unsigned placeholder to be invalid")
	}
	if len(signer.ValidationErrors) == 0 {
		t.Error("expected a validation error for the unfilled ByteRange")
	}
}

func TestVerifyWithTimestamp(t *testing.T) {
	pki := testpki.NewTestPKI(t)
	pki.StartTSAServer()
	defer pki.Close()

	doc, _ := signTestDocument(t, cms.TSA{URL: pki.Server.URL})

	response, err := Verify(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	signer := response.Signers[0]
	for _, e := range signer.ValidationErrors {
		t.Errorf("unexpected validation error: %v", e)
	}
	if signer.TimeStamp == nil {
		t.Fatal("expected a timestamp")
	}
}

func TestFile(t *testing.T) {
	doc, _ := signTestDocument(t, cms.TSA{})

	path := filepath.Join(t.TempDir(), "signed.pdf")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatal(err)
	}

	response, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}
	if !response.Signers[0].ValidSignature {
		t.Error("expected a valid signature")
	}

	if _, err := File(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestVerifyNoSignature(t *testing.T) {
	doc := []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\nxref\n0 2\n0000000000 65535 f \n0000000009 00000 n \ntrailer\n<< /Size 2 /Root 1 0 R >>\nstartxref\n45\n%%EOF\n")

	_, err := Verify(bytes.NewReader(doc), int64(len(doc)))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}
