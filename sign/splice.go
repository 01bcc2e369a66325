package sign

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/digitorus/signpdf/common"
	"github.com/mattetti/filebuffer"
)

// stripTrailingNewline drops a single trailing line terminator, authoring
// tools append one that is not part of the signed structure.
func stripTrailingNewline(pdf []byte) []byte {
	switch {
	case bytes.HasSuffix(pdf, []byte("\r\n")):
		return pdf[:len(pdf)-2]
	case bytes.HasSuffix(pdf, []byte("\n")), bytes.HasSuffix(pdf, []byte("\r")):
		return pdf[:len(pdf)-1]
	}
	return pdf
}

// overwriteAt returns a copy of pdf with data written over the bytes
// starting at offset. The length of the document never changes.
func overwriteAt(pdf []byte, offset int64, data []byte) ([]byte, error) {
	output_buffer := filebuffer.New(bytes.Clone(pdf))

	if _, err := output_buffer.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := output_buffer.Write(data); err != nil {
		return nil, err
	}

	return output_buffer.Buff.Bytes(), nil
}

// withRangeInserted replaces the placeholder declaration with the concrete
// byte range, padded to the declaration width.
func withRangeInserted(pdf []byte, p *Placeholder, byte_range ByteRange) ([]byte, error) {
	rendered, err := byte_range.render(p.DeclEnd - p.DeclStart)
	if err != nil {
		return nil, err
	}
	return overwriteAt(pdf, int64(p.DeclStart), rendered)
}

// withSlotExcised returns the document without the bracketed signature slot,
// which is exactly the content the signature digest covers.
func withSlotExcised(pdf []byte, p *Placeholder) []byte {
	excised := make([]byte, 0, len(pdf)-p.Width())
	excised = append(excised, pdf[:p.SlotOpen]...)
	excised = append(excised, pdf[p.SlotClose+1:]...)
	return excised
}

// encodeSignature hex encodes signature and pads it with hex encoded NUL
// bytes up to the capacity of the slot.
func encodeSignature(signature []byte, p *Placeholder) (string, []byte, error) {
	dst := make([]byte, hex.EncodedLen(len(signature)))
	hex.Encode(dst, signature)

	if len(dst) > p.HexCapacity() {
		return "", nil, &common.SignatureTooLargeError{Length: len(dst), Capacity: p.HexCapacity()}
	}

	padded := make([]byte, 0, p.HexCapacity())
	padded = append(padded, dst...)
	padded = append(padded, hex.EncodeToString(make([]byte, p.Capacity()-len(signature)))...)

	return string(dst), padded, nil
}

// withSignatureInserted writes the padded hex signature between the brackets
// of the slot. The brackets themselves are kept.
func withSignatureInserted(pdf []byte, p *Placeholder, padded []byte) ([]byte, error) {
	if len(padded) != p.HexCapacity() {
		return nil, fmt.Errorf("padded signature holds %d hex digits, slot holds %d", len(padded), p.HexCapacity())
	}
	return overwriteAt(pdf, int64(p.SlotOpen+1), padded)
}
