package sign

import "errors"

var ErrNilBuilder = errors.New("signature builder cannot be nil")

// SignatureBuilder produces a detached signature over content.
type SignatureBuilder interface {
	BuildDetached(content []byte) ([]byte, error)
}

// SignatureBuilderFunc adapts a function to a SignatureBuilder.
type SignatureBuilderFunc func(content []byte) ([]byte, error)

func (f SignatureBuilderFunc) BuildDetached(content []byte) ([]byte, error) {
	return f(content)
}

// Options configures a signing run.
type Options struct {
	// ByteRangePlaceholder is the token used in the reserved ByteRange
	// declaration, DefaultByteRangePlaceholder when empty.
	ByteRangePlaceholder string
}

// Result is the outcome of a successful signing run.
type Result struct {
	// Document is the signed PDF.
	Document []byte

	// ByteRange is the range written into the document.
	ByteRange ByteRange

	// Signature is the raw DER signature before padding.
	Signature []byte

	// SignatureHex is the hex encoded signature without padding.
	SignatureHex string
}
