// Package adgroups provides an object-oriented interface for managing
// Active Directory group entries over LDAP.
//
// A Group is a lightweight handle on one directory entry, created from a
// distinguished name and a Config. Handles read attributes through a
// per-handle cache, enumerate members with transparent result paging, and
// mutate membership with directory errors translated into semantic error
// values (ErrAccountDoesNotExist, ErrEntryAlreadyExists, and friends) that
// callers match with errors.Is.
//
// Traversal methods (Parent, Ancestor, Child, GetChildren, GetDescendants)
// return further handles sharing the originating handle's connection, so a
// tree can be walked without re-binding.
//
// All user-supplied lookup values are escaped before filter interpolation;
// names containing LDAP filter metacharacters are handled verbatim.
package adgroups
