package sign

import (
	"bytes"
	"fmt"

	"github.com/digitorus/signpdf/common"
)

// DefaultByteRangePlaceholder is the token repeated three times inside the
// ByteRange declaration reserved at authoring time.
const DefaultByteRangePlaceholder = "**********"

const contentsMarker = "/Contents "

// Placeholder holds the offsets of the reserved ByteRange declaration and the
// signature slot. SlotOpen and SlotClose point at the '<' and '>' brackets.
type Placeholder struct {
	DeclStart int
	DeclEnd   int
	SlotOpen  int
	SlotClose int
}

// Width returns the width of the slot including both brackets.
func (p *Placeholder) Width() int {
	return p.SlotClose + 1 - p.SlotOpen
}

// HexCapacity returns the number of hex digits between the brackets.
func (p *Placeholder) HexCapacity() int {
	return p.SlotClose - p.SlotOpen - 1
}

// Capacity returns the number of signature bytes the slot can hold.
func (p *Placeholder) Capacity() int {
	return p.HexCapacity() / 2
}

// byteRangeDeclaration renders the placeholder declaration for token.
func byteRangeDeclaration(token string) string {
	return fmt.Sprintf("/ByteRange [0 /%s /%s /%s]", token, token, token)
}

// Locate finds the ByteRange placeholder built from token and the signature
// slot that follows it. Both searches are first match, left to right.
func Locate(pdf []byte, token string) (*Placeholder, error) {
	if token == "" {
		token = DefaultByteRangePlaceholder
	}

	p := &Placeholder{}
	if err := p.findDeclaration(pdf, byteRangeDeclaration(token)); err != nil {
		return nil, err
	}
	if err := p.findSlot(pdf); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Placeholder) findDeclaration(pdf []byte, declaration string) error {
	pos := bytes.Index(pdf, []byte(declaration))
	if pos == -1 {
		return &common.PlaceholderNotFoundError{Declaration: declaration}
	}

	p.DeclStart = pos
	p.DeclEnd = pos + len(declaration)
	return nil
}

func (p *Placeholder) findSlot(pdf []byte) error {
	contents := indexFrom(pdf, []byte(contentsMarker), p.DeclEnd)
	if contents == -1 {
		return &common.SignatureSlotNotFoundError{Offset: p.DeclEnd, Msg: "missing " + contentsMarker + "entry"}
	}

	open := indexFrom(pdf, []byte{'<'}, contents)
	if open == -1 {
		return &common.SignatureSlotNotFoundError{Offset: contents, Msg: "missing opening bracket"}
	}

	end := indexFrom(pdf, []byte{'>'}, open)
	if end == -1 {
		return &common.SignatureSlotNotFoundError{Offset: open, Msg: "missing closing bracket"}
	}

	// A slot of odd width cannot be refilled with whole hex encoded bytes.
	if (end-open-1)%2 != 0 {
		return &common.SignatureSlotNotFoundError{Offset: open, Msg: fmt.Sprintf("slot holds an odd number of hex digits (%d)", end-open-1)}
	}

	p.SlotOpen = open
	p.SlotClose = end
	return nil
}

func indexFrom(b, sep []byte, from int) int {
	if from > len(b) {
		return -1
	}
	i := bytes.Index(b[from:], sep)
	if i == -1 {
		return -1
	}
	return from + i
}
