// Package verify checks the signatures embedded in a signed PDF.
package verify

import (
	"fmt"
	"io"
	"os"

	"github.com/digitorus/pdf"
	sigpdf "github.com/digitorus/signpdf/internal/pdf"
)

// File opens and verifies the PDF at path.
func File(path string) (*Response, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	finfo, err := file.Stat()
	if err != nil {
		return nil, err
	}

	return Verify(file, finfo.Size())
}

// Verify reads every signed signature field of the document and verifies it.
// Problems with an individual signature are reported in its ValidationErrors,
// an error is only returned when the document cannot be read or carries no
// signature at all.
func Verify(file io.ReaderAt, size int64) (apiResp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			apiResp = nil
			err = fmt.Errorf("failed to verify file (%v)", r)
		}
	}()

	rdr, err := pdf.NewReader(file, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	// AcroForm will contain a SigFlags value if the form contains a digital signature
	if rdr.Trailer().Key("Root").Key("AcroForm").Key("SigFlags").IsNull() {
		return nil, &ValidationError{Msg: "no digital signature in document"}
	}

	fields, err := sigpdf.ScanSignatures(rdr)
	if err != nil {
		return nil, fmt.Errorf("failed to scan signature fields: %w", err)
	}
	if len(fields) == 0 {
		return nil, &ValidationError{Msg: "no digital signature in document"}
	}

	apiResp = &Response{}
	parseDocumentInfo(rdr.Trailer().Key("Info"), &apiResp.DocumentInfo)

	if pages := rdr.Trailer().Key("Root").Key("Pages").Key("Count"); !pages.IsNull() {
		apiResp.DocumentInfo.Pages = int(pages.Int64())
	}

	for _, field := range fields {
		signer := VerifySignature(field.Signature, file, size)
		signer.Field = field.Name
		apiResp.Signers = append(apiResp.Signers, *signer)
	}

	return apiResp, nil
}
