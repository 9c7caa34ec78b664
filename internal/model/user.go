package model

import "time"

// Staff groups.  A user belongs to at most one group; users without a
// group can log in but hold no capabilities.
const (
    GroupPOSStaff     = "POS Staff"
    GroupSupportStaff = "Support Staff"
    GroupAdmin        = "Admin"
)

// User represents a staff account as stored in the `users` table.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – unique login name, also shown in exports.
//  Email        – optional contact address.
//  PasswordHash – bcrypt hashed password.
//  Group        – staff group name (empty when unassigned).
//  IsActive     – whether the account may log in.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Group        string    // users.group_name
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
