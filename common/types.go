package common

import (
	"crypto/x509"
	"time"

	"github.com/digitorus/timestamp"
)

// SignatureInfo contains information about the signer and signature.
type SignatureInfo struct {
	Name          string               `json:"name"`
	SignatureTime *time.Time           `json:"signature_time,omitempty"`
	TimeStamp     *timestamp.Timestamp `json:"time_stamp,omitempty"`
	DocumentHash  string               `json:"document_hash"`
	SignatureHash string               `json:"signature_hash"`
	HashAlgorithm string               `json:"hash_algorithm"`
	ByteRange     [4]int64             `json:"byte_range"`
}

// Certificate contains a certificate embedded in a signature and whether it
// carries the signer's key.
type Certificate struct {
	Certificate *x509.Certificate `json:"certificate"`
	Signer      bool              `json:"signer"`
	NotBefore   time.Time         `json:"not_before"`
	NotAfter    time.Time         `json:"not_after"`

	// RevocationStatus is taken from the revocation data archived in the
	// signature: "good", "revoked" or "unknown".
	RevocationStatus string `json:"revocation_status"`
}
