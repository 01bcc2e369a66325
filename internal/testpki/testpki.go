package testpki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/containerd/log"
	"github.com/digitorus/timestamp"
	"golang.org/x/crypto/ocsp"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

// KeyProfile defines the cryptographic settings for the PKI.
type KeyProfile string

const (
	RSA_2048   KeyProfile = "RSA_2048"
	RSA_3072   KeyProfile = "RSA_3072"
	ECDSA_P256 KeyProfile = "ECDSA_P256"
	ECDSA_P384 KeyProfile = "ECDSA_P384"
)

type TestPKIConfig struct {
	Profile         KeyProfile
	IntermediateCAs int
}

// TestPKI manages a temporary PKI hierarchy for testing.
type TestPKI struct {
	T                 *testing.T
	RootKey           crypto.Signer
	RootCert          *x509.Certificate
	IntermediateKeys  []crypto.Signer
	IntermediateCerts []*x509.Certificate
	Server            *httptest.Server
	TSAKey            crypto.Signer
	TSACert           *x509.Certificate
	Requests          int
	FailTSA           bool
	Profile           KeyProfile

	// RevocationServer serves /crl and /ocsp/ for leaf certificates issued
	// after StartRevocationServer.
	RevocationServer *httptest.Server
	RevokedSerials   []*big.Int
	CRLRequests      int
	OCSPRequests     int
}

// NewTestPKI creates a fresh Root CA and initializes the helper.
func NewTestPKI(t *testing.T) *TestPKI {
	return NewTestPKIWithConfig(t, TestPKIConfig{
		Profile:         ECDSA_P256,
		IntermediateCAs: 1,
	})
}

// NewTestPKIWithConfig allows detailed configuration of the PKI.
func NewTestPKIWithConfig(t *testing.T, config TestPKIConfig) *TestPKI {
	rootKey := GenerateKey(t, config.Profile)

	rootTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:   "SignPDF Test Root CA",
			Organization: []string{"SignPDF Test Org"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		SubjectKeyId:          []byte{1, 2, 3, 4},
	}

	rootBytes, err := x509.CreateCertificate(rand.Reader, rootTemplate, rootTemplate, rootKey.Public(), rootKey)
	if err != nil {
		Fail(t, "failed to create root cert: %v", err)
	}
	rootCert, err := x509.ParseCertificate(rootBytes)
	if err != nil {
		Fail(t, "failed to parse root cert: %v", err)
	}

	var intermediateKeys []crypto.Signer
	var intermediateCerts []*x509.Certificate

	parentKey := rootKey
	parentCert := rootCert

	for i := 0; i < config.IntermediateCAs; i++ {
		key := GenerateKey(t, config.Profile)
		template := &x509.Certificate{
			SerialNumber: big.NewInt(int64(i + 2)),
			Subject: pkix.Name{
				CommonName:   fmt.Sprintf("SignPDF Test Intermediate CA %d", i+1),
				Organization: []string{"SignPDF Test Org"},
			},
			NotBefore:             time.Now().Add(-1 * time.Hour),
			NotAfter:              time.Now().Add(24 * time.Hour),
			KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
			BasicConstraintsValid: true,
			IsCA:                  true,
			SubjectKeyId:          []byte{5, 6, 7, 8, byte(i)},
			AuthorityKeyId:        parentCert.SubjectKeyId,
		}

		certBytes, err := x509.CreateCertificate(rand.Reader, template, parentCert, key.Public(), parentKey)
		if err != nil {
			Fail(t, "failed to create intermediate cert %d: %v", i, err)
		}
		cert, err := x509.ParseCertificate(certBytes)
		if err != nil {
			Fail(t, "failed to parse intermediate cert %d: %v", i, err)
		}

		intermediateKeys = append(intermediateKeys, key)
		intermediateCerts = append(intermediateCerts, cert)

		parentKey = key
		parentCert = cert
	}

	return &TestPKI{
		T:                 t,
		RootKey:           rootKey,
		RootCert:          rootCert,
		IntermediateKeys:  intermediateKeys,
		IntermediateCerts: intermediateCerts,
		Profile:           config.Profile,
	}
}

// issuer returns the CA issuing leaf certificates.
func (p *TestPKI) issuer() (crypto.Signer, *x509.Certificate) {
	if len(p.IntermediateCerts) > 0 {
		return p.IntermediateKeys[len(p.IntermediateKeys)-1], p.IntermediateCerts[len(p.IntermediateCerts)-1]
	}
	return p.RootKey, p.RootCert
}

// IssueLeaf generates a new document signing certificate signed by the last CA
// of the chain.
func (p *TestPKI) IssueLeaf(commonName string) (crypto.Signer, *x509.Certificate) {
	priv := GenerateKey(p.T, p.Profile)

	template := &x509.Certificate{
		SerialNumber: randomSerial(p.T),
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: []string{"SignPDF Test Org"},
		},
		NotBefore:          time.Now().Add(-1 * time.Hour),
		NotAfter:           time.Now().Add(1 * time.Hour),
		KeyUsage:           x509.KeyUsageDigitalSignature,
		UnknownExtKeyUsage: []asn1.ObjectIdentifier{{1, 3, 6, 1, 5, 5, 7, 3, 36}},
	}
	if p.RevocationServer != nil {
		template.CRLDistributionPoints = []string{p.RevocationServer.URL + "/crl"}
		template.OCSPServer = []string{p.RevocationServer.URL + "/ocsp"}
	}

	issuerKey, issuerCert := p.issuer()
	certBytes, err := x509.CreateCertificate(rand.Reader, template, issuerCert, priv.Public(), issuerKey)
	if err != nil {
		Fail(p.T, "failed to issue leaf cert: %v", err)
	}

	leafCert, err := x509.ParseCertificate(certBytes)
	if err != nil {
		Fail(p.T, "failed to parse leaf cert: %v", err)
	}

	return priv, leafCert
}

// Chain returns the certificate chain for a leaf (Intermediate -> Root).
func (p *TestPKI) Chain() []*x509.Certificate {
	var chain []*x509.Certificate
	for i := len(p.IntermediateCerts) - 1; i >= 0; i-- {
		chain = append(chain, p.IntermediateCerts[i])
	}
	chain = append(chain, p.RootCert)
	return chain
}

// StartTSAServer issues a time stamping certificate and starts a mock
// RFC 3161 responder at Server.URL.
func (p *TestPKI) StartTSAServer() {
	p.TSAKey = GenerateKey(p.T, p.Profile)

	template := &x509.Certificate{
		SerialNumber: randomSerial(p.T),
		Subject: pkix.Name{
			CommonName:   "SignPDF Test TSA",
			Organization: []string{"SignPDF Test Org"},
		},
		NotBefore:   time.Now().Add(-1 * time.Hour),
		NotAfter:    time.Now().Add(24 * time.Hour),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageTimeStamping},
	}

	certBytes, err := x509.CreateCertificate(rand.Reader, template, p.RootCert, p.TSAKey.Public(), p.RootKey)
	if err != nil {
		Fail(p.T, "failed to create TSA cert: %v", err)
	}
	p.TSACert, err = x509.ParseCertificate(certBytes)
	if err != nil {
		Fail(p.T, "failed to parse TSA cert: %v", err)
	}

	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.Requests++

		if p.FailTSA {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("tsa unavailable"))
			return
		}
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/timestamp-query" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		req, err := timestamp.ParseRequest(body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		ts := timestamp.Timestamp{
			HashAlgorithm:     req.HashAlgorithm,
			HashedMessage:     req.HashedMessage,
			Time:              time.Now().UTC(),
			Accuracy:          time.Second,
			SerialNumber:      randomSerial(nil),
			Policy:            asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 99999, 1},
			Nonce:             req.Nonce,
			AddTSACertificate: req.Certificates,
		}

		resp, err := ts.CreateResponseWithOpts(p.TSACert, p.TSAKey, crypto.SHA256)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/timestamp-reply")
		_, _ = w.Write(resp)
	}))
}

// Revoke marks serial as revoked in both the CRL and the OCSP responses.
func (p *TestPKI) Revoke(serial *big.Int) {
	p.RevokedSerials = append(p.RevokedSerials, serial)
}

func (p *TestPKI) isRevoked(serial *big.Int) bool {
	for _, s := range p.RevokedSerials {
		if s.Cmp(serial) == 0 {
			return true
		}
	}
	return false
}

// StartRevocationServer starts a mock CRL and OCSP responder for the issuing
// CA. The CRL is regenerated on every request from RevokedSerials.
func (p *TestPKI) StartRevocationServer() {
	p.RevocationServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		issuerKey, issuerCert := p.issuer()
		now := time.Now()

		if r.URL.Path == "/crl" {
			p.CRLRequests++

			var entries []x509.RevocationListEntry
			for _, serial := range p.RevokedSerials {
				entries = append(entries, x509.RevocationListEntry{SerialNumber: serial, RevocationTime: now.Add(-time.Minute)})
			}
			crl, err := x509.CreateRevocationList(rand.Reader, &x509.RevocationList{
				Number:                    big.NewInt(int64(p.CRLRequests)),
				ThisUpdate:                now.Add(-time.Hour),
				NextUpdate:                now.Add(24 * time.Hour),
				RevokedCertificateEntries: entries,
			}, issuerCert, issuerKey)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "application/pkix-crl")
			_, _ = w.Write(crl)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/ocsp/") {
			p.OCSPRequests++

			reqBytes, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(r.URL.Path, "/ocsp/"))
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			ocspReq, err := ocsp.ParseRequest(reqBytes)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			template := ocsp.Response{
				Status:       ocsp.Good,
				SerialNumber: ocspReq.SerialNumber,
				ThisUpdate:   now.Add(-time.Hour),
				NextUpdate:   now.Add(24 * time.Hour),
			}
			if p.isRevoked(ocspReq.SerialNumber) {
				template.Status = ocsp.Revoked
				template.RevokedAt = now.Add(-time.Minute)
			}

			resp, err := ocsp.CreateResponse(issuerCert, issuerCert, template, issuerKey)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "application/ocsp-response")
			_, _ = w.Write(resp)
			return
		}

		w.WriteHeader(http.StatusNotFound)
	}))
}

// Close stops the mock servers.
func (p *TestPKI) Close() {
	if p.Server != nil {
		p.Server.Close()
	}
	if p.RevocationServer != nil {
		p.RevocationServer.Close()
	}
}

// SelfSigned returns a key and a self-signed certificate for commonName.
func SelfSigned(t *testing.T, profile KeyProfile, commonName string) (crypto.Signer, *x509.Certificate) {
	key := GenerateKey(t, profile)

	template := &x509.Certificate{
		SerialNumber: randomSerial(t),
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: []string{"SignPDF Test Org"},
		},
		NotBefore: time.Now().Add(-1 * time.Hour),
		NotAfter:  time.Now().Add(24 * time.Hour),
		KeyUsage:  x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, key.Public(), key)
	if err != nil {
		Fail(t, "failed to create self-signed cert: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		Fail(t, "failed to parse self-signed cert: %v", err)
	}

	return key, cert
}

// Bundle encodes a PKCS#12 bundle with SHA-1 MAC and 3DES encryption, the
// legacy format every decoder understands.
func Bundle(t *testing.T, key crypto.PrivateKey, cert *x509.Certificate, caCerts []*x509.Certificate, passphrase string) []byte {
	data, err := gopkcs12.LegacyDES.Encode(key, cert, caCerts, passphrase)
	if err != nil {
		Fail(t, "failed to encode legacy bundle: %v", err)
	}
	return data
}

// ModernBundle encodes a PKCS#12 bundle with PBES2 AES-256 encryption and a
// SHA-256 MAC, as written by current OpenSSL releases.
func ModernBundle(t *testing.T, key crypto.PrivateKey, cert *x509.Certificate, caCerts []*x509.Certificate, passphrase string) []byte {
	data, err := gopkcs12.Modern2023.Encode(key, cert, caCerts, passphrase)
	if err != nil {
		Fail(t, "failed to encode modern bundle: %v", err)
	}
	return data
}

func Fail(t *testing.T, format string, args ...interface{}) {
	if t != nil {
		t.Fatalf(format, args...)
	} else {
		log.L.Fatalf(format, args...)
	}
}

func randomSerial(t *testing.T) *big.Int {
	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		Fail(t, "failed to generate serial number: %v", err)
	}
	return serialNumber
}

func GenerateKey(t *testing.T, profile KeyProfile) crypto.Signer {
	switch profile {
	case RSA_2048:
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			Fail(t, "failed to generate RSA 2048 key: %v", err)
		}
		return k
	case RSA_3072:
		k, err := rsa.GenerateKey(rand.Reader, 3072)
		if err != nil {
			Fail(t, "failed to generate RSA 3072 key: %v", err)
		}
		return k
	case ECDSA_P256:
		k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			Fail(t, "failed to generate P-256 key: %v", err)
		}
		return k
	case ECDSA_P384:
		k, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
		if err != nil {
			Fail(t, "failed to generate P-384 key: %v", err)
		}
		return k
	default:
		Fail(t, "unknown key profile: %s", profile)
		return nil
	}
}
