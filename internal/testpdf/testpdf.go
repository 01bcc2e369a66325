// Package testpdf builds small, well formed PDF documents that carry an
// unsigned signature field with a reserved ByteRange placeholder.
package testpdf

import (
	"bytes"
	"fmt"
	"strings"
)

const defaultToken = "**********"

// Options controls the generated document.
type Options struct {
	// Token is repeated in the ByteRange declaration. Defaults to ten asterisks.
	Token string

	// SlotSize is the number of signature bytes the /Contents slot can hold.
	// The slot is filled with 2*SlotSize zero hex digits.
	SlotSize int

	// FieldName is the partial name of the signature field.
	FieldName string

	// OmitTrailingNewline drops the line feed after %%EOF.
	OmitTrailingNewline bool
}

// New returns a single page PDF with one signature field. The signature
// dictionary lists /ByteRange before /Contents and the cross reference table
// offsets are exact, so the result can be parsed both before and after the
// placeholder is filled.
func New(opts Options) []byte {
	if opts.Token == "" {
		opts.Token = defaultToken
	}
	if opts.SlotSize == 0 {
		opts.SlotSize = 8192
	}
	if opts.FieldName == "" {
		opts.FieldName = "Signature1"
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R /AcroForm << /Fields [5 0 R] /SigFlags 3 >> >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Annots [5 0 R] >>",
		fmt.Sprintf("<< /Type /Sig /Filter /Adobe.PPKLite /SubFilter /adbe.pkcs7.detached "+
			"/ByteRange [0 /%[1]s /%[1]s /%[1]s] /Contents <%[2]s> /Reason (Test) /M (D:20240101000000+00'00') >>",
			opts.Token, strings.Repeat("0", opts.SlotSize*2)),
		fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /Sig /T (%s) /V 4 0 R /Rect [0 0 0 0] /F 132 /P 3 0 R >>",
			opts.FieldName),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(objects)+1, xref)

	if !opts.OmitTrailingNewline {
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// Minimal returns the smallest document that still passes the placeholder
// scan: the default declaration followed by a slot of hexDigits zeros. It is
// not a parseable PDF.
func Minimal(hexDigits int) []byte {
	return []byte("%PDF-1.3\n/ByteRange [0 /" + defaultToken + " /" + defaultToken + " /" + defaultToken +
		"] /Contents <" + strings.Repeat("0", hexDigits) + ">\n%%EOF\n")
}
