package adgroups

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"go.uber.org/zap"

	"github.com/isometry/adgroups/ldap"
)

// Config holds the connection parameters and lookup settings for a Group.
//
// ServerURI (or LDAPURLs, or Domain for SRV discovery) and BaseDN are
// required. Everything else has a documented default.
type Config struct {
	// ServerURI is a single LDAP URL, e.g. "ldaps://dc1.example.com:636".
	ServerURI string

	// LDAPURLs lists multiple LDAP URLs; takes precedence over ServerURI.
	LDAPURLs []string

	// Domain enables DNS SRV discovery of domain controllers when no URLs
	// are configured.
	Domain string

	// BaseDN is the search base for user and group lookups.
	BaseDN string

	// UserLookupAttr is the attribute used to resolve user accounts.
	UserLookupAttr string `default:"sAMAccountName"`

	// GroupLookupAttr is the attribute used to resolve child groups.
	GroupLookupAttr string `default:"name"`

	// AttrList is the attribute projection for member-info queries. A nil
	// slice takes the default below; an explicitly empty, non-nil slice
	// requests all attributes.
	AttrList []string `default:"[\"displayName\", \"sAMAccountName\", \"distinguishedName\"]"`

	// UserSearchBase overrides BaseDN for user lookups.
	UserSearchBase string

	// GroupSearchBase overrides BaseDN for child-group lookups.
	GroupSearchBase string

	// BindDN and BindPassword are the credentials for the directory bind.
	// Leaving both empty results in an anonymous bind; group modification
	// methods will then most likely fail.
	BindDN       string
	BindPassword string

	// KerberosRealm switches authentication to GSSAPI/Kerberos.
	KerberosRealm  string
	KerberosKeytab string
	KerberosCCache string

	// PageSize bounds each page of paged searches.
	PageSize int `default:"500"`

	// Timeout applies to connection establishment and each protocol operation.
	Timeout time.Duration `default:"30s"`

	// TLSConfig customizes TLS for LDAPS/StartTLS connections.
	TLSConfig *tls.Config

	// SkipTLS disables the StartTLS upgrade on plain connections.
	SkipTLS bool

	// Logger receives structured operation logs. Defaults to a no-op logger.
	Logger *zap.Logger
}

// ApplyDefaults fills unset fields with their documented defaults.
func (c *Config) ApplyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("applying config defaults: %w", err)
	}

	if c.UserSearchBase == "" {
		c.UserSearchBase = c.BaseDN
	}
	if c.GroupSearchBase == "" {
		c.GroupSearchBase = c.BaseDN
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	return nil
}

// Validate checks that the required connection parameters are present.
func (c *Config) Validate() error {
	if c.ServerURI == "" && len(c.LDAPURLs) == 0 && c.Domain == "" {
		return fmt.Errorf("%w: a server URI, LDAP URLs, or a domain must be provided", ErrImproperlyConfigured)
	}

	if c.BaseDN == "" {
		return fmt.Errorf("%w: a base DN must be provided", ErrImproperlyConfigured)
	}

	return nil
}

// connectionConfig builds the protocol-client configuration.
func (c *Config) connectionConfig() *ldap.ConnectionConfig {
	cfg := ldap.DefaultConfig()

	cfg.BaseDN = c.BaseDN
	cfg.Domain = c.Domain
	cfg.Username = c.BindDN
	cfg.Password = c.BindPassword
	cfg.KerberosRealm = c.KerberosRealm
	cfg.KerberosKeytab = c.KerberosKeytab
	cfg.KerberosCCache = c.KerberosCCache
	cfg.SkipTLS = c.SkipTLS
	cfg.Logger = c.Logger

	if len(c.LDAPURLs) > 0 {
		cfg.LDAPURLs = c.LDAPURLs
	} else if c.ServerURI != "" {
		cfg.LDAPURLs = []string{c.ServerURI}
	}

	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}

	if c.TLSConfig != nil {
		cfg.TLSConfig = c.TLSConfig
	}

	return cfg
}
