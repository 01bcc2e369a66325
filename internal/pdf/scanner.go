package pdf

import (
	"fmt"

	pdflib "github.com/digitorus/pdf"
)

// SignatureField is a signed signature field found in the AcroForm.
type SignatureField struct {
	// Name is the fully qualified field name.
	Name string

	// ID is the object number of the field dictionary, 0 for direct objects.
	ID uint32

	// Signature is the signature dictionary the field's /V entry points to.
	Signature pdflib.Value
}

// ScanSignatures walks the AcroForm field tree and returns every signature
// field that carries a value, in document order.
func ScanSignatures(r *pdflib.Reader) ([]SignatureField, error) {
	if r == nil {
		return nil, fmt.Errorf("no reader available")
	}

	fields := r.Trailer().Key("Root").Key("AcroForm").Key("Fields")
	if fields.IsNull() {
		return nil, nil
	}
	if fields.Kind() != pdflib.Array {
		return nil, fmt.Errorf("AcroForm fields is not an array, got %v", fields.Kind())
	}

	var found []SignatureField
	visited := make(map[uint32]bool)

	var processField func(field pdflib.Value, parentName string, inheritedType string)
	processField = func(field pdflib.Value, parentName string, inheritedType string) {
		id := uint32(field.GetPtr().GetID())
		if id != 0 {
			if visited[id] {
				return
			}
			visited[id] = true
		}

		name := parentName
		if t := field.Key("T"); !t.IsNull() {
			if name != "" {
				name += "."
			}
			name += t.Text()
		}

		fieldType := inheritedType
		if ft := field.Key("FT"); !ft.IsNull() {
			fieldType = ft.Name()
		}

		if fieldType == "Sig" {
			if v := field.Key("V"); !v.IsNull() && v.Kind() == pdflib.Dict {
				found = append(found, SignatureField{Name: name, ID: id, Signature: v})
			}
		}

		kids := field.Key("Kids")
		for i := 0; i < kids.Len(); i++ {
			processField(kids.Index(i), name, fieldType)
		}
	}

	for i := 0; i < fields.Len(); i++ {
		processField(fields.Index(i), "", "")
	}

	return found, nil
}
