package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID                – primary key identifier of the user.
//  StudentID         – unique campus student identifier used for login.
//  Nickname          – display name shown on listings and comments.
//  PasswordHash      – bcrypt hashed password.
//  IsAdmin           – whether the account may call admin endpoints.
//  ReputationGood    – count of received "good" evaluations.
//  ReputationNeutral – count of received "neutral" evaluations.
//  ReputationBad     – count of received "bad" evaluations.
//  CreatedAt         – timestamp of creation.
//  UpdatedAt         – timestamp of last update.
//
// The three reputation counters only ever grow and are always
// incremented in SQL, never read-modify-written in application code.
type User struct {
    ID                uint64    // users.id
    StudentID         string    // users.student_id
    Nickname          string    // users.nickname
    PasswordHash      string    // users.password_hash
    IsAdmin           bool      // users.is_admin
    ReputationGood    uint32    // users.reputation_good
    ReputationNeutral uint32    // users.reputation_neutral
    ReputationBad     uint32    // users.reputation_bad
    CreatedAt         time.Time // users.created_at
    UpdatedAt         time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}

// ViewEntry is one row of a user's view history: the product the
// user looked at and when they last looked at it.  The table keeps
// at most one row per (user, product) pair; revisiting a product
// refreshes ViewedAt, so ordering by it yields most-recent-first
// without duplicates.
type ViewEntry struct {
    UserID    uint64    // view_history.user_id
    ProductID uint64    // view_history.product_id
    ViewedAt  time.Time // view_history.viewed_at
}
