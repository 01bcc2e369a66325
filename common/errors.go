package common

import "fmt"

// InvalidInputError reports a document or bundle argument that cannot be
// processed at all, e.g. an empty buffer.
type InvalidInputError struct {
	Msg string
}

func (e *InvalidInputError) Error() string {
	return e.Msg
}

// PlaceholderNotFoundError indicates the document carries no ByteRange
// placeholder declaration built from the expected token.
type PlaceholderNotFoundError struct {
	Declaration string
}

func (e *PlaceholderNotFoundError) Error() string {
	return fmt.Sprintf("could not find ByteRange placeholder: %s", e.Declaration)
}

// SignatureSlotNotFoundError indicates the /Contents hex slot following the
// ByteRange declaration is missing or malformed.
type SignatureSlotNotFoundError struct {
	Offset int
	Msg    string
}

func (e *SignatureSlotNotFoundError) Error() string {
	return fmt.Sprintf("could not find signature slot after offset %d: %s", e.Offset, e.Msg)
}

// BundleParseError indicates the certificate bundle could not be decoded or
// decrypted with the supplied passphrase.
type BundleParseError struct {
	Err error
}

func (e *BundleParseError) Error() string {
	return fmt.Sprintf("failed to parse certificate bundle: %v", e.Err)
}

func (e *BundleParseError) Unwrap() error {
	return e.Err
}

// CertificateMismatchError indicates that none of the certificates in the
// bundle carries the public key of the bundled private key.
type CertificateMismatchError struct {
	Certificates int
}

func (e *CertificateMismatchError) Error() string {
	return fmt.Sprintf("failed to find a certificate that matches the private key (%d certificates checked)", e.Certificates)
}

// SignatureTooLargeError indicates the hex encoded signature does not fit the
// reserved /Contents slot. Length and Capacity are counted in hex digits.
type SignatureTooLargeError struct {
	Length   int
	Capacity int
}

func (e *SignatureTooLargeError) Error() string {
	return fmt.Sprintf("signature exceeds placeholder length: %d > %d", e.Length, e.Capacity)
}

// VerifyInfoError wraps any failure of the read-only identity inspection.
type VerifyInfoError struct {
	Err error
}

func (e *VerifyInfoError) Error() string {
	return fmt.Sprintf("failed to read signature info: %v", e.Err)
}

func (e *VerifyInfoError) Unwrap() error {
	return e.Err
}
