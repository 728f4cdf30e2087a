package adgroups

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names recognized by FromEnv.
const (
	EnvServerURI       = "LDAP_GROUPS_SERVER_URI"
	EnvBaseDN          = "LDAP_GROUPS_BASE_DN"
	EnvUserLookupAttr  = "LDAP_GROUPS_USER_LOOKUP_ATTRIBUTE"
	EnvGroupLookupAttr = "LDAP_GROUPS_GROUP_LOOKUP_ATTRIBUTE"
	EnvAttrList        = "LDAP_GROUPS_ATTRIBUTE_LIST"
	EnvUserSearchBase  = "LDAP_GROUPS_USER_SEARCH_BASE_DN"
	EnvGroupSearchBase = "LDAP_GROUPS_GROUP_SEARCH_BASE_DN"
	EnvBindDN          = "LDAP_GROUPS_BIND_DN"
	EnvBindPassword    = "LDAP_GROUPS_BIND_PASSWORD"
	EnvPageSize        = "LDAP_GROUPS_PAGE_SIZE"
	EnvTimeout         = "LDAP_GROUPS_TIMEOUT"
)

// FromEnv builds a Config from LDAP_GROUPS_* environment variables. A .env
// file in the working directory is loaded first when present; real
// environment variables win over .env entries.
func FromEnv() (*Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		ServerURI:       os.Getenv(EnvServerURI),
		BaseDN:          os.Getenv(EnvBaseDN),
		UserLookupAttr:  os.Getenv(EnvUserLookupAttr),
		GroupLookupAttr: os.Getenv(EnvGroupLookupAttr),
		UserSearchBase:  os.Getenv(EnvUserSearchBase),
		GroupSearchBase: os.Getenv(EnvGroupSearchBase),
		BindDN:          os.Getenv(EnvBindDN),
		BindPassword:    os.Getenv(EnvBindPassword),
	}

	if raw := os.Getenv(EnvAttrList); raw != "" {
		for _, attr := range strings.Split(raw, ",") {
			if attr = strings.TrimSpace(attr); attr != "" {
				cfg.AttrList = append(cfg.AttrList, attr)
			}
		}
	}

	if raw := os.Getenv(EnvPageSize); raw != "" {
		pageSize, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid %s %q: %v", ErrImproperlyConfigured, EnvPageSize, raw, err)
		}
		cfg.PageSize = pageSize
	}

	if raw := os.Getenv(EnvTimeout); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid %s %q: %v", ErrImproperlyConfigured, EnvTimeout, raw, err)
		}
		cfg.Timeout = timeout
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}
