package verify

import (
	"fmt"
	"strings"
	"time"

	"github.com/digitorus/pdf"
)

// parseDocumentInfo copies the entries of the Info dictionary into documentInfo.
// Unparseable dates are left zero.
func parseDocumentInfo(v pdf.Value, documentInfo *DocumentInfo) {
	text := func(key string) string {
		return v.Key(key).Text()
	}

	documentInfo.Author = text("Author")
	documentInfo.Creator = text("Creator")
	documentInfo.Hash = text("Hash")
	documentInfo.Name = text("Name")
	documentInfo.Permission = text("Permission")
	documentInfo.Producer = text("Producer")
	documentInfo.Subject = text("Subject")
	documentInfo.Title = text("Title")

	if keywords := text("Keywords"); keywords != "" {
		documentInfo.Keywords = parseKeywords(keywords)
	}
	if t, err := parseDate(text("CreationDate")); err == nil {
		documentInfo.CreationDate = t
	}
	if t, err := parseDate(text("ModDate")); err == nil {
		documentInfo.ModDate = t
	}
}

// pdfDateLayouts are tried longest first. Everything after the year is
// optional in a PDF date string.
var pdfDateLayouts = []string{
	"20060102150405",
	"200601021504",
	"2006010215",
	"20060102",
	"200601",
	"2006",
}

// parseDate parses a PDF date string of the form D:YYYYMMDDHHmmSSOHH'mm'.
// The D: prefix, the offset and any trailing part of the date may be
// missing; a missing offset means UTC.
func parseDate(v string) (time.Time, error) {
	s := strings.TrimPrefix(strings.TrimSpace(v), "D:")

	digits := len(s) - len(strings.TrimLeft(s, "0123456789"))
	stamp, zone := s[:digits], s[digits:]

	loc, err := parseZone(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", v, err)
	}

	for _, layout := range pdfDateLayouts {
		if len(stamp) != len(layout) {
			continue
		}
		return time.ParseInLocation(layout, stamp, loc)
	}
	return time.Time{}, fmt.Errorf("invalid date %q", v)
}

// parseZone parses the O HH'mm' part of a PDF date.
func parseZone(zone string) (*time.Location, error) {
	zone = strings.TrimSuffix(zone, "'")
	if zone == "" || zone == "Z" {
		return time.UTC, nil
	}

	sign := 1
	switch zone[0] {
	case '+':
	case '-':
		sign = -1
	case 'Z':
		// Z00'00' is UTC written out.
		sign = 0
	default:
		return nil, fmt.Errorf("unexpected offset %q", zone)
	}

	var hours, minutes int
	offset := strings.Replace(zone[1:], "'", "", 1)
	switch len(offset) {
	case 2:
		_, err := fmt.Sscanf(offset, "%02d", &hours)
		if err != nil {
			return nil, err
		}
	case 4:
		_, err := fmt.Sscanf(offset, "%02d%02d", &hours, &minutes)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unexpected offset %q", zone)
	}
	if hours > 23 || minutes > 59 {
		return nil, fmt.Errorf("offset %q out of range", zone)
	}

	return time.FixedZone("", sign*(hours*3600+minutes*60)), nil
}

// parseKeywords splits the Keywords entry. Authoring tools separate keywords
// with commas, semicolons, colons or plain spaces.
func parseKeywords(value string) []string {
	separator := func(r rune) bool { return r == ' ' }
	if strings.ContainsAny(value, ",;:") {
		separator = func(r rune) bool { return r == ',' || r == ';' || r == ':' }
	}

	var keywords []string
	for _, k := range strings.FieldsFunc(value, separator) {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}
