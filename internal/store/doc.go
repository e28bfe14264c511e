// Package store provides persistent storage for patio using SQLite.
//
// # Data Models
//
//   - User: Human participant with credentials
//   - Bot: Automated participant with an is_active flag
//   - Channel: Shared message stream
//   - Membership: Binds exactly one identity (user XOR bot) to one channel;
//     the membership ID doubles as the mention token
//   - Message: Channel message authored by a membership, optionally replying
//     to another message
//
// The user-or-bot discrimination lives in a single channel_members row with
// nullable foreign keys and a CHECK constraint. Rows are discriminated once
// at load time into Membership.Kind so callers never re-check nullability.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: Requested entity does not exist
//   - ErrDuplicateUser: Email already taken
//   - ErrDuplicateMember: Participant already a member of the channel
//
// Uniqueness conflicts are surfaced as sentinel errors rather than guarded by
// locks; concurrent duplicate inserts resolve by catching the constraint
// violation.
//
// Only DeleteMembership is transactional: it removes a member's messages
// together with the membership row atomically. Every other operation is a
// single independent statement.
package store
