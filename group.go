package adgroups

import (
	"context"
	"errors"
	"fmt"

	ldapv3 "github.com/go-ldap/ldap/v3"

	"github.com/isometry/adgroups/ldap"
)

// memberAttribute is the group attribute holding member DNs.
const memberAttribute = "member"

// Group is a handle on one directory group entry, identified by its
// distinguished name. Construction is cheap: the protocol connection is
// established lazily on the first directory operation and reused for all
// subsequent operations on the handle.
//
// Group attributes are cached after the first read; RefreshAttributes
// bypasses the cache and replaces it wholesale. The attribute cache belongs
// exclusively to its handle and is never shared.
type Group struct {
	dn         string
	cfg        *Config
	client     ldap.Client
	ownsClient bool
	attrs      Attributes
}

// New creates a handle for the group at the given distinguished name.
// No directory call is made until the first operation.
func New(dn string, cfg *Config) (*Group, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !validDN(dn) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGroupDN, dn)
	}

	return &Group{dn: dn, cfg: cfg}, nil
}

// NewWithClient creates a handle backed by an existing protocol client.
// The handle does not take ownership of the client; Close is a no-op.
// This is the injection point for fake directory implementations in tests.
func NewWithClient(dn string, cfg *Config, client ldap.Client) (*Group, error) {
	group, err := New(dn, cfg)
	if err != nil {
		return nil, err
	}

	group.client = client
	return group, nil
}

// DN returns the group's distinguished name.
func (g *Group) DN() string {
	return g.dn
}

// String returns a short description of the handle.
func (g *Group) String() string {
	return fmt.Sprintf("Group(%s)", firstRDN(g.dn))
}

// Close releases the handle's connection. Handles created with
// NewWithClient, and handles derived via traversal, do not own their client
// and are not affected. Safe to call multiple times.
func (g *Group) Close() error {
	if !g.ownsClient || g.client == nil {
		return nil
	}

	err := g.client.Close()
	g.client = nil
	g.ownsClient = false
	return err
}

// ensureClient lazily builds the protocol client from the configuration.
func (g *Group) ensureClient(_ context.Context) error {
	if g.client != nil {
		return nil
	}

	client, err := ldap.NewClient(g.cfg.connectionConfig())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServerUnreachable, err)
	}

	g.client = client
	g.ownsClient = true
	return nil
}

// Validate confirms the handle's DN resolves to an existing group or
// organizational unit.
func (g *Group) Validate(ctx context.Context) error {
	_, err := g.searchOwnEntry(ctx)
	return err
}

// GetAttributes returns the group's attribute dictionary, fetching it on
// first use. Subsequent calls are served from the cache. The returned map
// is a copy; mutating it does not touch the cache.
func (g *Group) GetAttributes(ctx context.Context) (Attributes, error) {
	if err := g.ensureAttributes(ctx); err != nil {
		return nil, err
	}
	return g.attrs.clone(), nil
}

// RefreshAttributes bypasses the cache: it always issues a fresh search and
// replaces the cached dictionary as a whole. The returned map is a copy.
func (g *Group) RefreshAttributes(ctx context.Context) (Attributes, error) {
	if err := g.refreshCache(ctx); err != nil {
		return nil, err
	}
	return g.attrs.clone(), nil
}

// ensureAttributes populates the cache on first use.
func (g *Group) ensureAttributes(ctx context.Context) error {
	if g.attrs != nil {
		return nil
	}
	return g.refreshCache(ctx)
}

// refreshCache fetches the group's entry and replaces the whole cache.
func (g *Group) refreshCache(ctx context.Context) error {
	entry, err := g.searchOwnEntry(ctx)
	if err != nil {
		return err
	}

	g.attrs = entryAttributes(entry)
	return nil
}

// GetAttribute returns the first value of the named attribute from the
// cached attribute set, fetching the set on first use. The boolean reports
// whether the attribute is present, distinguishing an absent attribute from
// one present with an empty value.
func (g *Group) GetAttribute(ctx context.Context, name string) (string, bool, error) {
	if err := g.ensureAttributes(ctx); err != nil {
		return "", false, err
	}

	value, ok := g.attrs.Value(name)
	return value, ok, nil
}

// GetAttributeValues returns all values of the named attribute from the
// cached attribute set. The returned slice is a copy.
func (g *Group) GetAttributeValues(ctx context.Context, name string) ([]string, bool, error) {
	if err := g.ensureAttributes(ctx); err != nil {
		return nil, false, err
	}

	values, ok := g.attrs.Values(name)
	return append([]string(nil), values...), ok, nil
}

// searchOwnEntry fetches the group's own entry with a base-scope search.
func (g *Group) searchOwnEntry(ctx context.Context) (*ldapv3.Entry, error) {
	if err := g.ensureClient(ctx); err != nil {
		return nil, err
	}

	result, err := g.client.Search(ctx, &ldap.SearchRequest{
		BaseDN:    g.dn,
		Scope:     ldap.ScopeBaseObject,
		Filter:    groupOrOUFilter,
		TimeLimit: g.cfg.Timeout,
	})
	if err != nil {
		if hasLDAPCode(err, ldapv3.LDAPResultNoSuchObject) {
			return nil, fmt.Errorf("no such group %q: %w", g.dn, ErrGroupDoesNotExist)
		}
		if hasLDAPCode(err, ldapv3.LDAPResultInvalidDNSyntax) {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidGroupDN, g.dn, err)
		}
		return nil, translateProtocolError(err)
	}

	if len(result.Entries) == 0 {
		return nil, fmt.Errorf("no such group %q: %w", g.dn, ErrGroupDoesNotExist)
	}

	return result.Entries[0], nil
}

// GetMemberInfo retrieves the configured attribute projection for every user
// member of this group, transparently paging through server-side result
// limits.
func (g *Group) GetMemberInfo(ctx context.Context) ([]Attributes, error) {
	if err := g.ensureClient(ctx); err != nil {
		return nil, err
	}

	result, err := g.client.SearchWithPaging(ctx, &ldap.SearchRequest{
		BaseDN:     g.cfg.BaseDN,
		Scope:      ldap.ScopeWholeSubtree,
		Filter:     memberFilter(g.dn),
		Attributes: g.cfg.AttrList,
		PageSize:   g.cfg.PageSize,
		TimeLimit:  g.cfg.Timeout,
	})
	if err != nil {
		return nil, translateProtocolError(err)
	}

	memberInfo := make([]Attributes, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if entry.DN == "" {
			continue
		}
		memberInfo = append(memberInfo, entryAttributes(entry))
	}

	return memberInfo, nil
}

// AddMember resolves accountName via the configured user lookup attribute
// and adds the account to this group.
func (g *Group) AddMember(ctx context.Context, accountName string) error {
	userDN, err := g.resolveUserDN(ctx, accountName)
	if err != nil {
		return err
	}

	return g.modifyMembership(ctx, userDN, accountName, true)
}

// RemoveMember resolves accountName via the configured user lookup attribute
// and removes the account from this group.
func (g *Group) RemoveMember(ctx context.Context, accountName string) error {
	userDN, err := g.resolveUserDN(ctx, accountName)
	if err != nil {
		return err
	}

	return g.modifyMembership(ctx, userDN, accountName, false)
}

// AddChild resolves name via the configured group lookup attribute and adds
// the group as a member of this group.
func (g *Group) AddChild(ctx context.Context, name string) error {
	groupDN, err := g.resolveGroupDN(ctx, name)
	if err != nil {
		return err
	}

	return g.modifyMembership(ctx, groupDN, name, true)
}

// RemoveChild resolves name via the configured group lookup attribute and
// removes the group from this group's membership.
func (g *Group) RemoveChild(ctx context.Context, name string) error {
	groupDN, err := g.resolveGroupDN(ctx, name)
	if err != nil {
		return err
	}

	return g.modifyMembership(ctx, groupDN, name, false)
}

// resolveUserDN resolves a user lookup value to a distinguished name.
func (g *Group) resolveUserDN(ctx context.Context, accountName string) (string, error) {
	if err := g.ensureClient(ctx); err != nil {
		return "", err
	}

	result, err := g.client.Search(ctx, &ldap.SearchRequest{
		BaseDN:     g.cfg.UserSearchBase,
		Scope:      ldap.ScopeWholeSubtree,
		Filter:     userFilter(g.cfg.UserLookupAttr, accountName),
		Attributes: []string{"distinguishedName"},
		TimeLimit:  g.cfg.Timeout,
	})
	if err != nil {
		return "", translateProtocolError(err)
	}

	if len(result.Entries) == 0 {
		return "", fmt.Errorf("no account matching %s=%q: %w", g.cfg.UserLookupAttr, accountName, ErrAccountDoesNotExist)
	}

	return result.Entries[0].DN, nil
}

// resolveGroupDN resolves a group lookup value to a distinguished name.
func (g *Group) resolveGroupDN(ctx context.Context, name string) (string, error) {
	if err := g.ensureClient(ctx); err != nil {
		return "", err
	}

	result, err := g.client.Search(ctx, &ldap.SearchRequest{
		BaseDN:     g.cfg.GroupSearchBase,
		Scope:      ldap.ScopeWholeSubtree,
		Filter:     childFilter(g.cfg.GroupLookupAttr, name),
		Attributes: []string{"distinguishedName"},
		TimeLimit:  g.cfg.Timeout,
	})
	if err != nil {
		return "", translateProtocolError(err)
	}

	if len(result.Entries) == 0 {
		return "", fmt.Errorf("no group matching %s=%q: %w", g.cfg.GroupLookupAttr, name, ErrGroupDoesNotExist)
	}

	return result.Entries[0].DN, nil
}

// modifyMembership issues a modify-add or modify-delete of memberDN on this
// group's member attribute, translating protocol errors into their semantic
// kinds.
func (g *Group) modifyMembership(ctx context.Context, memberDN, subject string, add bool) error {
	if err := g.ensureClient(ctx); err != nil {
		return err
	}

	req := &ldap.ModifyRequest{DN: g.dn}
	if add {
		req.AddAttributes = map[string][]string{memberAttribute: {memberDN}}
	} else {
		req.DeleteAttributes = map[string][]string{memberAttribute: {memberDN}}
	}

	if err := g.client.Modify(ctx, req); err != nil {
		return translateModifyError(err, subject, g.dn, add)
	}

	return nil
}

// translateModifyError maps protocol modify failures onto the semantic
// error kinds, preserving the underlying error for diagnostics.
func translateModifyError(err error, subject, groupDN string, add bool) error {
	verb, prep := "adding", "to"
	if !add {
		verb, prep = "removing", "from"
	}

	switch {
	case hasLDAPCode(err, ldapv3.LDAPResultEntryAlreadyExists),
		hasLDAPCode(err, ldapv3.LDAPResultAttributeOrValueExists):
		return fmt.Errorf("%s %q %s group %q: %w: %w", verb, subject, prep, groupDN, ErrEntryAlreadyExists, err)
	case hasLDAPCode(err, ldapv3.LDAPResultInsufficientAccessRights):
		return fmt.Errorf("%s %q %s group %q: %w: %w", verb, subject, prep, groupDN, ErrInsufficientPermissions, err)
	default:
		return fmt.Errorf("%s %q %s group %q: %w: %w", verb, subject, prep, groupDN, ErrModificationFailed, err)
	}
}

// GetChildren returns handles for this group's direct children among group
// and organizational-unit entries.
func (g *Group) GetChildren(ctx context.Context) ([]*Group, error) {
	return g.searchRelated(ctx, ldap.ScopeSingleLevel)
}

// GetDescendants returns handles for all groups and organizational units in
// the subtree below this group, excluding the group itself.
func (g *Group) GetDescendants(ctx context.Context) ([]*Group, error) {
	return g.searchRelated(ctx, ldap.ScopeWholeSubtree)
}

// searchRelated performs a paged search below the group's own DN and wraps
// each result in a handle sharing this handle's connection.
func (g *Group) searchRelated(ctx context.Context, scope ldap.SearchScope) ([]*Group, error) {
	if err := g.ensureClient(ctx); err != nil {
		return nil, err
	}

	result, err := g.client.SearchWithPaging(ctx, &ldap.SearchRequest{
		BaseDN:     g.dn,
		Scope:      scope,
		Filter:     groupOrOUFilter,
		Attributes: []string{"distinguishedName"},
		PageSize:   g.cfg.PageSize,
		TimeLimit:  g.cfg.Timeout,
	})
	if err != nil {
		if hasLDAPCode(err, ldapv3.LDAPResultNoSuchObject) {
			return nil, fmt.Errorf("no such group %q: %w", g.dn, ErrGroupDoesNotExist)
		}
		return nil, translateProtocolError(err)
	}

	var groups []*Group
	for _, entry := range result.Entries {
		if entry.DN == "" || dnEqual(entry.DN, g.dn) {
			continue
		}
		groups = append(groups, g.newRelated(entry.DN))
	}

	return groups, nil
}

// Child returns a handle for the direct child matching name by the
// configured group lookup attribute. Returns ErrGroupDoesNotExist when no
// child matches.
func (g *Group) Child(ctx context.Context, name string) (*Group, error) {
	if err := g.ensureClient(ctx); err != nil {
		return nil, err
	}

	result, err := g.client.Search(ctx, &ldap.SearchRequest{
		BaseDN:     g.dn,
		Scope:      ldap.ScopeSingleLevel,
		Filter:     childFilter(g.cfg.GroupLookupAttr, name),
		Attributes: []string{"distinguishedName"},
		TimeLimit:  g.cfg.Timeout,
	})
	if err != nil {
		return nil, translateProtocolError(err)
	}

	if len(result.Entries) == 0 {
		return nil, fmt.Errorf("no child matching %s=%q under %q: %w", g.cfg.GroupLookupAttr, name, g.dn, ErrGroupDoesNotExist)
	}

	return g.newRelated(result.Entries[0].DN), nil
}

// Parent returns a handle for this group's parent, derived by stripping the
// leading RDN. No directory call is made. At the configured base DN (or a
// single-RDN name) the receiver itself is returned.
func (g *Group) Parent() *Group {
	if g.cfg.BaseDN != "" && dnEqual(g.dn, g.cfg.BaseDN) {
		return g
	}

	parent, ok := parentDN(g.dn)
	if !ok {
		return g
	}

	return g.newRelated(parent)
}

// Ancestor returns the handle generation levels up the tree. Ancestor(0) is
// the receiver, Ancestor(1) the parent, and so on. Traversal stops at the
// configured base DN.
func (g *Group) Ancestor(generation int) *Group {
	ancestor := g
	for i := 0; i < generation; i++ {
		next := ancestor.Parent()
		if next == ancestor {
			break
		}
		ancestor = next
	}
	return ancestor
}

// newRelated creates a handle for a related entry sharing this handle's
// configuration and connection.
func (g *Group) newRelated(dn string) *Group {
	return &Group{dn: dn, cfg: g.cfg, client: g.client}
}

// hasLDAPCode reports whether err carries one of the given LDAP result
// codes anywhere in its wrap chain.
func hasLDAPCode(err error, codes ...uint16) bool {
	var serverErr *ldapv3.Error
	if !errors.As(err, &serverErr) {
		return false
	}
	for _, code := range codes {
		if serverErr.ResultCode == code {
			return true
		}
	}
	return false
}

// translateProtocolError maps connection-level protocol failures onto their
// semantic kinds; other errors pass unchanged.
func translateProtocolError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if hasLDAPCode(err, ldapv3.LDAPResultInvalidCredentials) {
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	var connErr *ldap.ConnectionError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", ErrServerUnreachable, err)
	}

	return err
}
