// Package cms builds the detached CMS (PKCS#7) SignedData that is embedded in
// the signature slot of a PDF.
package cms

import (
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"

	"github.com/digitorus/pkcs7"
	"github.com/digitorus/signpdf/bundle"
	"github.com/digitorus/signpdf/revocation"
	"github.com/digitorus/timestamp"
)

var ErrNilIdentity = errors.New("signing identity cannot be nil")

// OIDAttributeTimeStampToken is the unsigned attribute carrying an RFC 3161
// timestamp token over the signature value.
var OIDAttributeTimeStampToken = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 2, 14}

// Builder signs content with the identity of a certificate bundle.
type Builder struct {
	Identity *bundle.Identity

	// TSA is only contacted when its URL is set.
	TSA TSA

	// Revocation, when set, collects CRL and OCSP data for the signing chain
	// and archives it in a signed attribute.
	Revocation revocation.Func
}

// BuildDetached returns a DER encoded SignedData over content using SHA-256.
// The signed attributes are content type, message digest and signing time,
// plus the revocation archive when Revocation is set. Every certificate of the
// bundle is attached and the content is detached.
func (b *Builder) BuildDetached(content []byte) ([]byte, error) {
	if b.Identity == nil || b.Identity.PrivateKey == nil || b.Identity.Certificate == nil {
		return nil, ErrNilIdentity
	}

	signed_data, err := pkcs7.NewSignedData(content)
	if err != nil {
		return nil, fmt.Errorf("new signed data: %w", err)
	}

	signed_data.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)

	var signer_config pkcs7.SignerInfoConfig
	if b.Revocation != nil {
		revocation_data, err := b.fetchRevocationData()
		if err != nil {
			return nil, fmt.Errorf("fetch revocation data: %w", err)
		}
		signer_config.ExtraSignedAttributes = []pkcs7.Attribute{
			{
				Type:  revocation.OIDAttributeInfoArchival,
				Value: revocation_data,
			},
		}
	}

	if err := signed_data.AddSigner(b.Identity.Certificate, b.Identity.PrivateKey, signer_config); err != nil {
		return nil, fmt.Errorf("add signer: %w", err)
	}

	// The signer certificate is added by AddSigner, the rest of the bundle
	// goes in unverified.
	for _, cert := range b.Identity.Additional() {
		signed_data.AddCertificate(cert)
	}

	// PDF needs a detached signature, meaning the content isn't included.
	signed_data.Detach()

	if b.TSA.URL != "" {
		if err := b.addTimestamp(signed_data); err != nil {
			return nil, err
		}
	}

	return signed_data.Finish()
}

// fetchRevocationData runs Revocation for every certificate of the signing
// chain, the last one without an issuer.
func (b *Builder) fetchRevocationData() (revocation.InfoArchival, error) {
	var info revocation.InfoArchival

	chain := b.Identity.Chain()
	for i, certificate := range chain {
		var issuer *x509.Certificate
		if i < len(chain)-1 {
			issuer = chain[i+1]
		}
		if err := b.Revocation(certificate, issuer, &info); err != nil {
			return info, fmt.Errorf("%s: %w", certificate.Subject.CommonName, err)
		}
	}

	return info, nil
}

func (b *Builder) addTimestamp(signed_data *pkcs7.SignedData) error {
	signature_data := signed_data.GetSignedData()

	timestamp_response, err := b.TSA.Request(signature_data.SignerInfos[0].EncryptedDigest)
	if err != nil {
		return fmt.Errorf("get timestamp: %w", err)
	}

	ts, err := timestamp.ParseResponse(timestamp_response)
	if err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}

	_, err = pkcs7.Parse(ts.RawToken)
	if err != nil {
		return fmt.Errorf("parse timestamp token: %w", err)
	}

	timestamp_attribute := pkcs7.Attribute{
		Type:  OIDAttributeTimeStampToken,
		Value: asn1.RawValue{FullBytes: ts.RawToken},
	}
	return signature_data.SignerInfos[0].SetUnauthenticatedAttributes([]pkcs7.Attribute{timestamp_attribute})
}
