package sign

import (
	"context"
	"fmt"
	"os"

	"github.com/containerd/log"
	"github.com/digitorus/signpdf/common"
)

// SignFile signs the PDF at input and writes the result to output. Nothing
// is written when signing fails.
func SignFile(ctx context.Context, input string, output string, builder SignatureBuilder, opts Options) (*Result, error) {
	input_file, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	result, err := Sign(ctx, input_file, builder, opts)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(output, result.Document, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	return result, nil
}

// Sign fills the reserved ByteRange declaration of pdf, signs the covered
// bytes with builder and writes the signature into the reserved slot.
//
// The steps run in a fixed order on fresh copies of the document; pdf itself
// is never modified and no partial output is returned on failure.
func Sign(ctx context.Context, pdf []byte, builder SignatureBuilder, opts Options) (*Result, error) {
	if len(pdf) == 0 {
		return nil, &common.InvalidInputError{Msg: "PDF expected as non-empty byte slice"}
	}
	if builder == nil {
		return nil, ErrNilBuilder
	}

	pdf = stripTrailingNewline(pdf)

	placeholder, err := Locate(pdf, opts.ByteRangePlaceholder)
	if err != nil {
		return nil, err
	}

	byte_range := ComputeByteRange(placeholder, len(pdf))

	logger := log.G(ctx).WithFields(log.Fields{
		"byte_range": byte_range.String(),
		"capacity":   placeholder.HexCapacity(),
	})
	logger.Debug("located signature placeholder")

	with_range, err := withRangeInserted(pdf, placeholder, byte_range)
	if err != nil {
		return nil, fmt.Errorf("failed to update byte range: %w", err)
	}

	signature, err := builder.BuildDetached(withSlotExcised(with_range, placeholder))
	if err != nil {
		return nil, fmt.Errorf("failed to create signature: %w", err)
	}

	signature_hex, padded, err := encodeSignature(signature, placeholder)
	if err != nil {
		return nil, err
	}

	signed, err := withSignatureInserted(with_range, placeholder, padded)
	if err != nil {
		return nil, fmt.Errorf("failed to replace signature: %w", err)
	}

	logger.WithField("signature_length", len(signature_hex)).Debug("signature embedded")

	return &Result{
		Document:     signed,
		ByteRange:    byte_range,
		Signature:    signature,
		SignatureHex: signature_hex,
	}, nil
}
