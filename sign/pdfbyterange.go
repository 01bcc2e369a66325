package sign

import (
	"fmt"
	"strings"

	"github.com/digitorus/signpdf/common"
)

// ByteRange describes the two spans covered by the signature digest:
// [start1 length1 start2 length2].
type ByteRange [4]int64

// ComputeByteRange calculates the ByteRange for a document of size bytes
// with the signature slot described by p.
func ComputeByteRange(p *Placeholder, size int) ByteRange {
	var byte_range ByteRange

	// Part 1 always starts at byte 0.
	byte_range[0] = 0

	// Part 1 stops right before the opening bracket of the slot.
	byte_range[1] = int64(p.SlotOpen)

	// Part 2 starts directly after the closing bracket.
	byte_range[2] = byte_range[1] + int64(p.Width())

	// Part 2 is everything else of the file.
	byte_range[3] = int64(size) - byte_range[2]

	return byte_range
}

func (b ByteRange) String() string {
	return fmt.Sprintf("/ByteRange [%d %d %d %d]", b[0], b[1], b[2], b[3])
}

// render returns the declaration padded with spaces to exactly width bytes.
func (b ByteRange) render(width int) ([]byte, error) {
	new_byte_range := b.String()

	// The declaration may never grow, every following offset depends on it.
	if len(new_byte_range) > width {
		return nil, &common.InvalidInputError{
			Msg: fmt.Sprintf("byte range %s does not fit the %d byte placeholder", new_byte_range, width),
		}
	}

	new_byte_range += strings.Repeat(" ", width-len(new_byte_range))
	return []byte(new_byte_range), nil
}

// Select returns the bytes of doc covered by the two spans.
func (b ByteRange) Select(doc []byte) ([]byte, error) {
	if b[0] < 0 || b[1] < 0 || b[2] < 0 || b[3] < 0 ||
		b[0]+b[1] > int64(len(doc)) || b[2]+b[3] > int64(len(doc)) {
		return nil, fmt.Errorf("byte range %v exceeds document of %d bytes", [4]int64(b), len(doc))
	}

	sign_content := make([]byte, 0, b[1]+b[3])
	sign_content = append(sign_content, doc[b[0]:b[0]+b[1]]...)
	sign_content = append(sign_content, doc[b[2]:b[2]+b[3]]...)
	return sign_content, nil
}
