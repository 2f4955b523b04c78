package model

import "time"

// Roles recognized by the application.  The value stored in the
// users.role column and in the JWT "role" claim is always one of
// these constants.
const (
    RoleAdmin        = "ADMIN"
    RoleFleetManager = "FLEET_MANAGER"
    RoleDriver       = "DRIVER"
)

// User represents an application user record as stored in the
// `users` table.  Drivers log odometer readings for the vehicles
// they are linked to; admins and fleet managers maintain the rest
// of the fleet data.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address, also the notification target.
//  PasswordHash – bcrypt hashed password.
//  FullName     – display name shown in the admin UI and emails.
//  Phone        – optional contact phone.
//  Role         – one of ADMIN, FLEET_MANAGER, DRIVER.
//  IsActive     – whether the account is active; inactive users are
//                 never resolved as notification recipients.
//  LastLoginAt  – timestamp of the most recent successful login.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64     `json:"id"`                      // users.id
    Email        string     `json:"email"`                   // users.email
    PasswordHash string     `json:"-"`                       // users.password_hash
    FullName     string     `json:"full_name"`               // users.full_name
    Phone        *string    `json:"phone,omitempty"`         // users.phone (nullable)
    Role         string     `json:"role"`                    // users.role
    IsActive     bool       `json:"is_active"`               // users.is_active
    LastLoginAt  *time.Time `json:"last_login_at,omitempty"` // users.last_login_at (nullable)
    CreatedAt    time.Time  `json:"created_at"`              // users.created_at
    UpdatedAt    time.Time  `json:"updated_at"`              // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
