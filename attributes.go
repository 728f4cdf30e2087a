package adgroups

import (
	"fmt"

	"github.com/bwmarrin/go-objectsid"
	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
)

// Attributes is a directory entry's attribute dictionary, mapping attribute
// names to their values.
type Attributes map[string][]string

// Value returns the first value of the named attribute. The boolean reports
// whether the attribute is present at all, distinguishing "attribute absent"
// from "attribute present but empty".
func (a Attributes) Value(name string) (string, bool) {
	values, ok := a[name]
	if !ok {
		return "", false
	}
	if len(values) == 0 {
		return "", true
	}
	return values[0], true
}

// Values returns all values of the named attribute and whether it is present.
func (a Attributes) Values(name string) ([]string, bool) {
	values, ok := a[name]
	return values, ok
}

// Has reports whether the named attribute is present.
func (a Attributes) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// clone returns an independent copy of the dictionary, values included.
func (a Attributes) clone() Attributes {
	copied := make(Attributes, len(a))
	for name, values := range a {
		copied[name] = append([]string(nil), values...)
	}
	return copied
}

// entryAttributes converts an LDAP entry into an attribute dictionary.
// Binary objectGUID and objectSid values are decoded into their canonical
// string forms.
func entryAttributes(entry *ldap.Entry) Attributes {
	attrs := make(Attributes, len(entry.Attributes))

	for _, attr := range entry.Attributes {
		switch attr.Name {
		case "objectGUID":
			if guid, err := guidString(entry.GetRawAttributeValue(attr.Name)); err == nil {
				attrs[attr.Name] = []string{guid}
				continue
			}
		case "objectSid":
			if sid, err := sidString(entry.GetRawAttributeValue(attr.Name)); err == nil {
				attrs[attr.Name] = []string{sid}
				continue
			}
		}
		attrs[attr.Name] = attr.Values
	}

	return attrs
}

// guidString converts an Active Directory binary objectGUID into its
// canonical hyphenated form. AD stores the first three GUID groups
// little-endian, unlike RFC 4122 byte order.
func guidString(raw []byte) (string, error) {
	if len(raw) != 16 {
		return "", fmt.Errorf("objectGUID must be 16 bytes, got %d", len(raw))
	}

	ordered := []byte{
		raw[3], raw[2], raw[1], raw[0],
		raw[5], raw[4],
		raw[7], raw[6],
		raw[8], raw[9], raw[10], raw[11], raw[12], raw[13], raw[14], raw[15],
	}

	guid, err := uuid.FromBytes(ordered)
	if err != nil {
		return "", fmt.Errorf("decoding objectGUID: %w", err)
	}

	return guid.String(), nil
}

// sidString converts an Active Directory binary objectSid into its
// S-1-5-21-... string representation.
func sidString(raw []byte) (string, error) {
	// Minimum SID: revision byte, subauthority count, 6-byte authority
	if len(raw) < 8 {
		return "", fmt.Errorf("objectSid too short: %d bytes", len(raw))
	}

	// The header's count byte promises 4 bytes per subauthority; Decode
	// indexes them unchecked.
	if want := 8 + 4*int(raw[1]); len(raw) < want {
		return "", fmt.Errorf("objectSid truncated: %d bytes, need %d for %d subauthorities", len(raw), want, raw[1])
	}

	sid := objectsid.Decode(raw)
	return sid.String(), nil
}
