package adgroups

import (
	"fmt"

	"github.com/go-ldap/ldap/v3"
)

// groupOrOUFilter matches group and organizational-unit entries.
const groupOrOUFilter = "(|(objectClass=group)(objectClass=organizationalUnit))"

// userFilter matches user entries whose lookup attribute equals value.
// The value is escaped per RFC 4515 before interpolation.
func userFilter(lookupAttr, value string) string {
	return fmt.Sprintf("(&(objectClass=user)(%s=%s))", lookupAttr, ldap.EscapeFilter(value))
}

// memberFilter matches user entries that are members of the given group.
func memberFilter(groupDN string) string {
	return fmt.Sprintf("(&(objectCategory=user)(memberOf=%s))", ldap.EscapeFilter(groupDN))
}

// childFilter matches group or organizational-unit entries whose lookup
// attribute equals name.
func childFilter(lookupAttr, name string) string {
	return fmt.Sprintf("(&%s(%s=%s))", groupOrOUFilter, lookupAttr, ldap.EscapeFilter(name))
}
