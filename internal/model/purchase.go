package model

import "time"

// Purchase is one completed double-sale order: two tickets for two distinct
// performances, identified by a unique three-word verification code.
//
// Fields:
//  ID               – primary key identifier.
//  Date             – creation timestamp (UTC).
//  Name             – buyer name.
//  Email            – buyer email address.
//  Ticket1          – key of the first performance.
//  Ticket2          – key of the second performance.
//  VerificationCode – unique code such as "happy-tree-button".
//  CreatedBy        – staff user who registered the purchase.
//  ModifiedBy       – staff user who last edited the purchase (nil if never).
//  ModifiedDate     – timestamp of the last edit (nil if never).
type Purchase struct {
    ID               uint64     // purchases.id
    Date             time.Time  // purchases.date
    Name             string     // purchases.name
    Email            string     // purchases.email
    Ticket1          string     // purchases.ticket1_key
    Ticket2          string     // purchases.ticket2_key
    VerificationCode string     // purchases.verification_code
    CreatedBy        uint64     // purchases.created_by
    ModifiedBy       *uint64    // purchases.modified_by (nullable)
    ModifiedDate     *time.Time // purchases.modified_date (nullable)
}

// Tickets returns both performance keys in slot order.
func (p Purchase) Tickets() [2]string {
    return [2]string{p.Ticket1, p.Ticket2}
}

// Holds reports how many of the purchase's ticket slots reference key.
func (p Purchase) Holds(key string) int {
    n := 0
    if p.Ticket1 == key {
        n++
    }
    if p.Ticket2 == key {
        n++
    }
    return n
}

// Snapshot returns the purchase as a flat map, used as the payload of
// DELETE audit entries.
func (p Purchase) Snapshot() map[string]any {
    s := map[string]any{
        "id":                p.ID,
        "date":              p.Date.UTC().Format(time.RFC3339),
        "name":              p.Name,
        "email":             p.Email,
        "ticket1":           p.Ticket1,
        "ticket2":           p.Ticket2,
        "verification_code": p.VerificationCode,
        "created_by":        p.CreatedBy,
    }
    if p.ModifiedBy != nil {
        s["modified_by"] = *p.ModifiedBy
    }
    if p.ModifiedDate != nil {
        s["modified_date"] = p.ModifiedDate.UTC().Format(time.RFC3339)
    }
    return s
}
