package verify

import (
	"time"

	"github.com/digitorus/signpdf/common"
)

// Response contains the verification results for a document.
type Response struct {
	DocumentInfo DocumentInfo `json:"document_info"`
	Signers      []Signer     `json:"signers"`
}

// Signer contains the result of verifying a single signature field.
type Signer struct {
	common.SignatureInfo

	Field       string `json:"field"`
	Reason      string `json:"reason"`
	Location    string `json:"location"`
	ContactInfo string `json:"contact_info"`

	// ValidSignature is set when the message digest matches the signed bytes
	// and the signature verifies against the signer certificate.
	ValidSignature bool `json:"valid_signature"`

	// CoversDocument is set when the ByteRange ends at the end of the file,
	// i.e. nothing was appended after signing.
	CoversDocument bool `json:"covers_document"`

	Certificates     []common.Certificate `json:"certificates"`
	ValidationErrors []error              `json:"-"`
}

// DocumentInfo contains document information.
type DocumentInfo struct {
	Author     string `json:"author"`
	Creator    string `json:"creator"`
	Hash       string `json:"hash"`
	Name       string `json:"name"`
	Permission string `json:"permission"`
	Producer   string `json:"producer"`
	Subject    string `json:"subject"`
	Title      string `json:"title"`

	Pages        int       `json:"pages"`
	Keywords     []string  `json:"keywords"`
	ModDate      time.Time `json:"mod_date"`
	CreationDate time.Time `json:"creation_date"`
}
