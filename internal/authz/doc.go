// Package authz implements the role-based access control core of the back office.
//
// The model has four entities:
//   - Module: a named, toggleable feature area gating menu visibility
//   - Permission: a (route pattern, HTTP method) capability, optionally
//     scoped to modules
//   - Role: a named bundle of permissions assigned to users
//   - RolePermission: the join row whose existence is the sole
//     authorization fact
//
// # Route matching
//
// Permission routes are patterns with named parameter segments
// ("/tickets/edit/:id"). A request path matches a pattern iff the segment
// counts are equal and every literal segment matches exactly while
// parameter segments match any non-empty value. When several patterns
// match the same path, the most specific one wins: literal segments
// outrank parameter segments, compared left to right. Malformed patterns
// never match anything (fail closed).
//
// # Module visibility
//
// ResolveActiveModules computes which feature areas a role can see in the
// menu. A permission contributes if it is scoped to no module at all
// (unconditional) or to at least one active module; a module key is
// visible iff a contributing permission references it by name. The result
// is a pure function of the current permission set and is recomputed on
// every read rather than cached.
//
// # Role permission reconciliation
//
// Editing a role submits a full desired permission set. DiffPermissions
// partitions it against the current set keyed on (route, method), the
// logical permission identity, into creations, in-place updates and
// deletions, which ApplyRolePermissions executes in one transaction.
//
// # Middleware
//
// RequireAccess is the fiber middleware gating every protected route: it
// resolves the session user's role and checks the request (method, path)
// pair against the role's permissions. AddMenuToLocals exposes the
// resolved module visibility to templates for menu rendering.
package authz
