package adgroups

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigApplyDefaults(t *testing.T) {
	cfg := &Config{
		ServerURI: "ldaps://dc1.example.com:636",
		BaseDN:    "DC=example,DC=com",
	}

	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, "sAMAccountName", cfg.UserLookupAttr)
	assert.Equal(t, "name", cfg.GroupLookupAttr)
	assert.Equal(t, []string{"displayName", "sAMAccountName", "distinguishedName"}, cfg.AttrList)
	assert.Equal(t, 500, cfg.PageSize)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "DC=example,DC=com", cfg.UserSearchBase)
	assert.Equal(t, "DC=example,DC=com", cfg.GroupSearchBase)
	assert.NotNil(t, cfg.Logger)
}

func TestConfigDefaultsPreserveExplicitValues(t *testing.T) {
	cfg := &Config{
		ServerURI:      "ldaps://dc1.example.com:636",
		BaseDN:         "DC=example,DC=com",
		UserLookupAttr: "userPrincipalName",
		AttrList:       []string{},
		PageSize:       100,
		UserSearchBase: "OU=People,DC=example,DC=com",
	}

	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, "userPrincipalName", cfg.UserLookupAttr)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, "OU=People,DC=example,DC=com", cfg.UserSearchBase)
	assert.Equal(t, "DC=example,DC=com", cfg.GroupSearchBase)

	// An explicitly empty, non-nil list means "all attributes" and must not
	// be replaced by the default projection.
	assert.NotNil(t, cfg.AttrList)
	assert.Empty(t, cfg.AttrList)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name:    "server URI and base DN",
			cfg:     &Config{ServerURI: "ldaps://dc1.example.com:636", BaseDN: "DC=example,DC=com"},
			wantErr: false,
		},
		{
			name:    "domain discovery",
			cfg:     &Config{Domain: "example.com", BaseDN: "DC=example,DC=com"},
			wantErr: false,
		},
		{
			name:    "multiple URLs",
			cfg:     &Config{LDAPURLs: []string{"ldaps://dc1:636", "ldaps://dc2:636"}, BaseDN: "DC=example,DC=com"},
			wantErr: false,
		},
		{
			name:    "no server",
			cfg:     &Config{BaseDN: "DC=example,DC=com"},
			wantErr: true,
		},
		{
			name:    "no base DN",
			cfg:     &Config{ServerURI: "ldaps://dc1.example.com:636"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrImproperlyConfigured)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvServerURI, "ldaps://dc1.example.com:636")
	t.Setenv(EnvBaseDN, "DC=example,DC=com")
	t.Setenv(EnvUserLookupAttr, "userPrincipalName")
	t.Setenv(EnvAttrList, "cn, mail ,sAMAccountName")
	t.Setenv(EnvBindDN, "CN=svc,OU=Service,DC=example,DC=com")
	t.Setenv(EnvBindPassword, "hunter2")
	t.Setenv(EnvPageSize, "250")
	t.Setenv(EnvTimeout, "45s")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "ldaps://dc1.example.com:636", cfg.ServerURI)
	assert.Equal(t, "DC=example,DC=com", cfg.BaseDN)
	assert.Equal(t, "userPrincipalName", cfg.UserLookupAttr)
	assert.Equal(t, "name", cfg.GroupLookupAttr)
	assert.Equal(t, []string{"cn", "mail", "sAMAccountName"}, cfg.AttrList)
	assert.Equal(t, "CN=svc,OU=Service,DC=example,DC=com", cfg.BindDN)
	assert.Equal(t, 250, cfg.PageSize)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
}

func TestFromEnvErrors(t *testing.T) {
	t.Run("missing required settings", func(t *testing.T) {
		t.Setenv(EnvServerURI, "")
		t.Setenv(EnvBaseDN, "")

		_, err := FromEnv()
		assert.ErrorIs(t, err, ErrImproperlyConfigured)
	})

	t.Run("malformed page size", func(t *testing.T) {
		t.Setenv(EnvServerURI, "ldaps://dc1.example.com:636")
		t.Setenv(EnvBaseDN, "DC=example,DC=com")
		t.Setenv(EnvPageSize, "many")

		_, err := FromEnv()
		assert.ErrorIs(t, err, ErrImproperlyConfigured)
	})

	t.Run("malformed timeout", func(t *testing.T) {
		t.Setenv(EnvServerURI, "ldaps://dc1.example.com:636")
		t.Setenv(EnvBaseDN, "DC=example,DC=com")
		t.Setenv(EnvTimeout, "soon")

		_, err := FromEnv()
		assert.ErrorIs(t, err, ErrImproperlyConfigured)
	})
}
