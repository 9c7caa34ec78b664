package model

import "time"

// Performance is a single scheduled show with a fixed ticket capacity.  It
// belongs to exactly one association.  The capacity is a business rule and
// not a database constraint: availability is derived from purchases.
//
// Fields:
//  Key         – unique key such as "Wina1104" (primary key).
//  Date        – date and time of the show (UTC).
//  Association – name of the owning association.
//  Name        – display name of the show.
//  PriceCents  – ticket price in cents.
//  MaxTickets  – maximum number of tickets that may be sold.
type Performance struct {
    Key         string    // performances.key
    Date        time.Time // performances.date
    Association string    // performances.association_name
    Name        string    // performances.name
    PriceCents  uint32    // performances.price_cents
    MaxTickets  int       // performances.max_tickets
}

// Selection renders the label used in order form drop-downs, for example
// "11 Apr - Wina - Van je familie moet je het maar hebben".
func (p Performance) Selection() string {
    return p.Date.Format("02 Jan") + " - " + p.Association + " - " + p.Name
}
