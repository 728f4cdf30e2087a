package adgroups

import (
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// parentDN strips the leading RDN from dn, returning the parent DN. The
// boolean is false when dn has no parent (a single RDN). This is a pure
// string operation; no directory call is made.
func parentDN(dn string) (string, bool) {
	idx := indexUnescapedComma(dn)
	if idx == -1 {
		return dn, false
	}
	return strings.TrimSpace(dn[idx+1:]), true
}

// firstRDN returns the leading RDN component of dn.
func firstRDN(dn string) string {
	idx := indexUnescapedComma(dn)
	if idx == -1 {
		return dn
	}
	return dn[:idx]
}

// indexUnescapedComma finds the first comma in dn that is not preceded by a
// backslash escape, per RFC 4514 value escaping.
func indexUnescapedComma(dn string) int {
	escaped := false
	for i := 0; i < len(dn); i++ {
		switch {
		case escaped:
			escaped = false
		case dn[i] == '\\':
			escaped = true
		case dn[i] == ',':
			return i
		}
	}
	return -1
}

// dnEqual compares two DNs per the distinguishedNameMatch rule
// (case-insensitive on attribute types and values). Unparseable DNs fall
// back to a case-insensitive string comparison.
func dnEqual(a, b string) bool {
	parsedA, errA := ldap.ParseDN(a)
	parsedB, errB := ldap.ParseDN(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return parsedA.Equal(parsedB)
}

// validDN reports whether dn parses as an RFC 4514 distinguished name with
// at least one RDN.
func validDN(dn string) bool {
	parsed, err := ldap.ParseDN(dn)
	return err == nil && len(parsed.RDNs) > 0
}
