package model

import "time"

// Roles carried in the identity provider's JWT and mirrored here.
const (
    RoleMember    = "MEMBER"
    RoleOrganizer = "ORGANIZER"
)

// User is a local mirror of an identity-provider account.  Authentication
// happens upstream; this row exists so bookings, subscriptions and waitlist
// entries have something to reference.
//
// Fields:
//  ID          – primary key identifier, matches the JWT subject.
//  Email       – contact address for notification dispatch.
//  DisplayName – name shown on participant lists.
//  Role        – MEMBER or ORGANIZER.
//  Birthday    – optional profile date driving the yearly bonus ticket.
//  CreatedAt   – creation timestamp.
type User struct {
    ID          uint64     // users.id
    Email       string     // users.email
    DisplayName string     // users.display_name
    Role        string     // users.role
    Birthday    *time.Time // users.birthday (nullable)
    CreatedAt   time.Time  // users.created_at
}
