package cms

import (
	"fmt"

	"github.com/digitorus/pkcs7"
)

// MessageDigest returns the message digest signed attribute of the first
// signer of a DER encoded SignedData. Trailing zero padding, as left in a PDF
// signature slot, is accepted.
func MessageDigest(signature []byte) ([]byte, error) {
	p7, err := pkcs7.Parse(signature)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKCS#7: %w", err)
	}

	var digest []byte
	if err := p7.UnmarshalSignedAttribute(pkcs7.OIDAttributeMessageDigest, &digest); err != nil {
		return nil, fmt.Errorf("failed to read message digest: %w", err)
	}
	return digest, nil
}
