// Package signpdf embeds a detached PKCS#7 signature into a PDF whose
// signature placeholder was reserved when the document was authored.
//
// The document must contain a ByteRange placeholder followed by a hex string
// slot, for example:
//
//	/ByteRange [0 /********** /********** /**********] /Contents <0000...0000>
//
// Basic usage:
//
//	signed, err := signpdf.Default.Sign(pdf, p12, signpdf.Options{
//	    Passphrase: "secret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Signing never parses the PDF: the placeholder is found by a byte search and
// the document length does not change.
package signpdf

import (
	"context"
	"errors"
	"sync"

	"github.com/containerd/log"

	"github.com/digitorus/signpdf/bundle"
	"github.com/digitorus/signpdf/cms"
	"github.com/digitorus/signpdf/common"
	"github.com/digitorus/signpdf/revocation"
	"github.com/digitorus/signpdf/sign"
)

// Options controls a single Sign call.
type Options struct {
	// Passphrase decrypts the PKCS#12 bundle. Empty by default.
	Passphrase string

	// StrictDecoding rejects bundles that are not a single well formed DER
	// structure.
	StrictDecoding bool

	// TSA optionally adds an RFC 3161 timestamp to the signature.
	TSA cms.TSA

	// Revocation optionally archives CRL and OCSP data for the signing chain,
	// for example revocation.Default.
	Revocation revocation.Func
}

// SignPdf signs documents and remembers the last signature it embedded.
type SignPdf struct {
	// ByteRangePlaceholder is the token repeated in the reserved ByteRange
	// declaration, sign.DefaultByteRangePlaceholder when empty.
	ByteRangePlaceholder string

	mu            sync.Mutex
	lastSignature string
}

// Default is a SignPdf using the default placeholder.
var Default = &SignPdf{}

// Sign signs pdf with the identity in the PKCS#12 bundle p12 and returns the
// signed document.
func (s *SignPdf) Sign(pdf []byte, p12 []byte, opts Options) ([]byte, error) {
	return s.SignContext(context.Background(), pdf, p12, opts)
}

// SignContext is Sign with a context for log scoping.
//
// The bundle is only decoded once the placeholder has been located and the
// ByteRange filled in, so document errors are reported before bundle errors.
func (s *SignPdf) SignContext(ctx context.Context, pdf []byte, p12 []byte, opts Options) ([]byte, error) {
	if len(pdf) == 0 {
		return nil, &common.InvalidInputError{Msg: "PDF expected as non-empty byte slice"}
	}
	if len(p12) == 0 {
		return nil, &common.InvalidInputError{Msg: "certificate bundle expected as non-empty byte slice"}
	}

	b := &lazyBuilder{p12: p12, opts: opts}
	result, err := sign.Sign(ctx, pdf, b, s.signOptions())
	return s.finish(ctx, b, result, err)
}

// SignFile signs the PDF at input and writes it to output. Nothing is written
// when signing fails.
func (s *SignPdf) SignFile(ctx context.Context, input string, output string, p12 []byte, opts Options) error {
	if len(p12) == 0 {
		return &common.InvalidInputError{Msg: "certificate bundle expected as non-empty byte slice"}
	}

	b := &lazyBuilder{p12: p12, opts: opts}
	result, err := sign.SignFile(ctx, input, output, b, s.signOptions())
	_, err = s.finish(ctx, b, result, err)
	return err
}

func (s *SignPdf) signOptions() sign.Options {
	return sign.Options{ByteRangePlaceholder: s.ByteRangePlaceholder}
}

func (s *SignPdf) finish(ctx context.Context, b *lazyBuilder, result *sign.Result, err error) ([]byte, error) {
	if err != nil {
		var tooLarge *common.SignatureTooLargeError
		if errors.As(err, &tooLarge) && b.identity != nil {
			if estimate, estimateErr := cms.EstimateSize(b.identity, b.opts.TSA.URL != ""); estimateErr == nil {
				log.G(ctx).WithFields(log.Fields{
					"capacity": tooLarge.Capacity,
					"required": 2 * estimate,
				}).Warn("signature placeholder too small for this bundle")
			}
		}
		return nil, err
	}

	s.mu.Lock()
	s.lastSignature = result.SignatureHex
	s.mu.Unlock()

	return result.Document, nil
}

// lazyBuilder decodes the bundle when the signature is requested, after the
// document has been prepared.
type lazyBuilder struct {
	p12      []byte
	opts     Options
	identity *bundle.Identity
}

func (b *lazyBuilder) BuildDetached(content []byte) ([]byte, error) {
	id, err := bundle.Extract(b.p12, bundle.Options{
		Passphrase: b.opts.Passphrase,
		Strict:     b.opts.StrictDecoding,
	})
	if err != nil {
		return nil, err
	}
	b.identity = id

	builder := &cms.Builder{Identity: id, TSA: b.opts.TSA, Revocation: b.opts.Revocation}
	return builder.BuildDetached(content)
}

// LastSignature returns the hex encoded signature, without padding, embedded
// by the most recent successful Sign call.
func (s *SignPdf) LastSignature() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSignature
}

// Inspect returns the common name of the signing certificate in the PKCS#12
// bundle p12.
func Inspect(p12 []byte, passphrase string) (string, error) {
	return bundle.Inspect(p12, passphrase)
}
