// Package revocation holds the revocation data that can be archived inside a
// PDF signature, and fetches it from the CRL and OCSP endpoints named in a
// certificate.
package revocation

import (
	"crypto/x509"
	"encoding/asn1"

	"golang.org/x/crypto/ocsp"
)

// OIDAttributeInfoArchival is the signed attribute (adbe-revocationInfoArchival)
// that carries InfoArchival.
var OIDAttributeInfoArchival = asn1.ObjectIdentifier{1, 2, 840, 113583, 1, 1, 8}

// InfoArchival is the pkcs7 container containing the revocation information for
// all embedded certificates.
type InfoArchival struct {
	CRL   CRL   `asn1:"tag:0,optional,explicit"`
	OCSP  OCSP  `asn1:"tag:1,optional,explicit"`
	Other Other `asn1:"tag:2,optional,explicit"`
}

// AddCRL is used to embed an CRL to revocation.InfoArchival object. You directly
// pass the bytes of a downloaded CRL to this function.
func (r *InfoArchival) AddCRL(b []byte) error {
	r.CRL = append(r.CRL, asn1.RawValue{FullBytes: b})
	return nil
}

// AddOCSP is used to embed the raw bytes of an OCSP response.
func (r *InfoArchival) AddOCSP(b []byte) error {
	r.OCSP = append(r.OCSP, asn1.RawValue{FullBytes: b})
	return nil
}

// Empty reports whether no CRL or OCSP response was collected.
func (r *InfoArchival) Empty() bool {
	return len(r.CRL) == 0 && len(r.OCSP) == 0
}

// Status is the archived revocation state of a single certificate.
type Status int

const (
	// Unknown means no archived CRL or OCSP response covers the certificate.
	Unknown Status = iota
	Good
	Revoked
)

func (s Status) String() string {
	switch s {
	case Good:
		return "good"
	case Revoked:
		return "revoked"
	}
	return "unknown"
}

// Status returns the state of c according to the archived data. A revocation
// in any source wins; otherwise an OCSP response or a CRL issued by the
// issuer of c makes it Good. Signatures on the archived data are not checked.
func (r *InfoArchival) Status(c *x509.Certificate) Status {
	status := Unknown

	for _, raw := range r.OCSP {
		resp, err := ocsp.ParseResponse(raw.FullBytes, nil)
		if err != nil || resp.SerialNumber == nil || resp.SerialNumber.Cmp(c.SerialNumber) != 0 {
			continue
		}
		switch resp.Status {
		case ocsp.Revoked:
			return Revoked
		case ocsp.Good:
			status = Good
		}
	}

	for _, raw := range r.CRL {
		crl, err := x509.ParseRevocationList(raw.FullBytes)
		if err != nil {
			continue
		}
		if string(crl.RawIssuer) != string(c.RawIssuer) {
			continue
		}
		for _, rc := range crl.RevokedCertificateEntries {
			if rc.SerialNumber.Cmp(c.SerialNumber) == 0 {
				return Revoked
			}
		}
		status = Good
	}

	return status
}

// IsRevoked reports whether the archived data marks c as revoked.
func (r *InfoArchival) IsRevoked(c *x509.Certificate) bool {
	return r.Status(c) == Revoked
}

// CRL contains the raw bytes of a pkix.CertificateList and can be parsed with
// x509.ParseRevocationList.
type CRL []asn1.RawValue

// OCSP contains the raw bytes of an OCSP response and can be parsed with
// x/crypto/ocsp.ParseResponse.
type OCSP []asn1.RawValue

// ANS.1 Object OtherRevInfo.
type Other struct {
	Type  asn1.ObjectIdentifier
	Value []byte
}
