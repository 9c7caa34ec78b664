package model

import "time"

// AuditAction enumerates the lifecycle events recorded for a purchase.
type AuditAction string

const (
    AuditCreate AuditAction = "CREATE"
    AuditUpdate AuditAction = "UPDATE"
    AuditDelete AuditAction = "DELETE"
)

// Valid reports whether a is one of the known actions.
func (a AuditAction) Valid() bool {
    switch a {
    case AuditCreate, AuditUpdate, AuditDelete:
        return true
    }
    return false
}

// PurchaseAuditLog is an append-only entry describing one action on a
// purchase.  Entries are never updated or removed once written, and they
// outlive the purchase they describe.
//
// Fields:
//  ID         – primary key identifier.
//  PurchaseID – purchase the entry refers to.
//  Action     – CREATE, UPDATE or DELETE.
//  Timestamp  – when the action occurred (UTC).
//  UserID     – staff user who performed the action.
//  Changes    – per-field {old,new} diff for UPDATE, full snapshot for DELETE.
//  IPAddress  – client address of the request (nil if unknown).
type PurchaseAuditLog struct {
    ID         uint64         // purchase_audit_logs.id
    PurchaseID uint64         // purchase_audit_logs.purchase_id
    Action     AuditAction    // purchase_audit_logs.action
    Timestamp  time.Time      // purchase_audit_logs.timestamp
    UserID     uint64         // purchase_audit_logs.user_id
    Changes    map[string]any // purchase_audit_logs.changes (JSON, nullable)
    IPAddress  *string        // purchase_audit_logs.ip_address (nullable)
}
