package adgroups

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParentDN(t *testing.T) {
	tests := []struct {
		name   string
		dn     string
		parent string
		ok     bool
	}{
		{
			name:   "nested group",
			dn:     "CN=Engineering,OU=Groups,DC=example,DC=com",
			parent: "OU=Groups,DC=example,DC=com",
			ok:     true,
		},
		{
			name:   "single RDN has no parent",
			dn:     "DC=com",
			parent: "DC=com",
			ok:     false,
		},
		{
			name:   "escaped comma stays in the leading RDN",
			dn:     `CN=Smith\, John,OU=People,DC=example,DC=com`,
			parent: "OU=People,DC=example,DC=com",
			ok:     true,
		},
		{
			name:   "whitespace after separator is trimmed",
			dn:     "CN=Engineering, OU=Groups,DC=example,DC=com",
			parent: "OU=Groups,DC=example,DC=com",
			ok:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent, ok := parentDN(tt.dn)
			assert.Equal(t, tt.parent, parent)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestFirstRDN(t *testing.T) {
	assert.Equal(t, "CN=Engineering", firstRDN("CN=Engineering,OU=Groups,DC=example,DC=com"))
	assert.Equal(t, "DC=com", firstRDN("DC=com"))
	assert.Equal(t, `CN=Smith\, John`, firstRDN(`CN=Smith\, John,OU=People,DC=example,DC=com`))
}

func TestDNEqual(t *testing.T) {
	assert.True(t, dnEqual("CN=A,DC=example,DC=com", "cn=a,dc=example,dc=com"))
	assert.True(t, dnEqual("CN=A, DC=example, DC=com", "CN=A,DC=example,DC=com"))
	assert.False(t, dnEqual("CN=A,DC=example,DC=com", "CN=B,DC=example,DC=com"))
}

func TestValidDN(t *testing.T) {
	assert.True(t, validDN("CN=Engineering,OU=Groups,DC=example,DC=com"))
	assert.True(t, validDN("DC=com"))
	assert.False(t, validDN(""))
	assert.False(t, validDN("not a dn"))
}
