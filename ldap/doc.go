/*
Package ldap implements the directory-protocol adapter used by adgroups.

The Client interface is deliberately narrow (connect, bind, search,
paged search, modify) so that callers can substitute a fake in-memory
directory in tests. The production implementation dials servers either
from explicit LDAP URLs or via DNS SRV discovery of domain controllers,
maintains a small pool of bound connections, and retries transient
failures with exponential backoff.

Authentication supports simple bind, anonymous bind, and GSSAPI/Kerberos
(credential cache, keytab, or password, in that order of preference).

Errors are wrapped in LDAPError, which carries the failed operation, the
LDAP result code, and a coarse category (connection, authentication,
permission, not_found, conflict, validation, server). The underlying
protocol error stays reachable through errors.As, and the category
predicates (IsNotFoundError, IsConflictError, IsPermissionError) let
callers branch on failure class without decoding result codes.
*/
package ldap
