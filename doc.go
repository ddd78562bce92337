// Package zeen implements the account and social model of a small
// blogging service: users with roles and permission bitmasks, write-only
// bcrypt passwords, signed time-limited tokens for account confirmation,
// password reset and email change, a follow graph and posts.
//
// Accounts:
//   - Accounts validates action tokens and applies their effect. Token
//     checks return (false, nil) for invalid, expired or foreign tokens so
//     callers can render a single "link is invalid" response, and an error
//     only when storage fails.
//   - Register, reset and email change flows are exposed as message
//     handlers (RegisterUserHandler, RequestPasswordResetHandler, ...) that
//     validate their input before touching the database.
//
// Roles and permissions:
//   - Roles are seeded with Roles().InsertRoles, which is idempotent and
//     keeps exactly one default role. Identity.Can checks a Permission
//     bitmask, AnonymousUser never holds any permission.
//
// Graph and posts:
//   - Graph manages directed follow edges. Deleting a user removes every
//     edge that references it.
//   - Blog renders Markdown bodies to sanitized HTML on write and serves
//     the author and timeline listings.
//
// Activity sinks:
//   - ActivitySink receives account, graph and post events. Sinks run best
//     effort, errors are logged and never fail the calling operation.
package zeen
