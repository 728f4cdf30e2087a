package ldap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAuthMethod(t *testing.T) {
	tests := []struct {
		name   string
		config *ConnectionConfig
		want   AuthMethod
	}{
		{
			name:   "no credentials",
			config: &ConnectionConfig{},
			want:   AuthMethodAnonymous,
		},
		{
			name:   "username and password",
			config: &ConnectionConfig{Username: "CN=svc,DC=example,DC=com", Password: "secret"},
			want:   AuthMethodSimpleBind,
		},
		{
			name:   "kerberos with keytab",
			config: &ConnectionConfig{KerberosRealm: "EXAMPLE.COM", KerberosKeytab: "/etc/krb5.keytab"},
			want:   AuthMethodKerberos,
		},
		{
			name:   "kerberos with ccache",
			config: &ConnectionConfig{KerberosRealm: "EXAMPLE.COM", KerberosCCache: "/tmp/krb5cc_1000"},
			want:   AuthMethodKerberos,
		},
		{
			name:   "kerberos takes precedence over simple bind",
			config: &ConnectionConfig{KerberosRealm: "EXAMPLE.COM", Username: "svc", Password: "secret"},
			want:   AuthMethodKerberos,
		},
		{
			name:   "realm without credentials falls back to anonymous",
			config: &ConnectionConfig{KerberosRealm: "EXAMPLE.COM"},
			want:   AuthMethodAnonymous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.GetAuthMethod())
			assert.Equal(t, tt.want != AuthMethodAnonymous, tt.config.HasAuthentication())
		})
	}
}

func TestAuthMethodString(t *testing.T) {
	assert.Equal(t, "anonymous", AuthMethodAnonymous.String())
	assert.Equal(t, "simple", AuthMethodSimpleBind.String())
	assert.Equal(t, "kerberos", AuthMethodKerberos.String())
	assert.Equal(t, "unknown", AuthMethod(99).String())
}

func TestSearchScopeString(t *testing.T) {
	assert.Equal(t, "base", ScopeBaseObject.String())
	assert.Equal(t, "one", ScopeSingleLevel.String())
	assert.Equal(t, "sub", ScopeWholeSubtree.String())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.UseTLS)
	assert.Equal(t, 10, cfg.MaxConnections)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2.0, cfg.BackoffFactor)
	assert.NotNil(t, cfg.TLSConfig)
	assert.NotNil(t, cfg.Logger)
}
