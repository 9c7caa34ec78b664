package service

import "github.com/iftf/duoverkoop/internal/model"

// Capabilities is the resolved permission set of a staff member.  The
// request layer computes it once per request from the user's group.
type Capabilities struct {
	CanCreate bool `json:"can_create"`
	CanView   bool `json:"can_view"`
	CanEdit   bool `json:"can_edit"` // edit and delete purchases, manage the catalog
	CanExport bool `json:"can_export"`
}

// CapabilitiesFor maps a group name to its capabilities.  Unknown groups,
// including the empty group, get nothing.
func CapabilitiesFor(group string) Capabilities {
	switch group {
	case model.GroupPOSStaff:
		return Capabilities{CanCreate: true, CanView: true}
	case model.GroupSupportStaff, model.GroupAdmin:
		return Capabilities{CanCreate: true, CanView: true, CanEdit: true, CanExport: true}
	}
	return Capabilities{}
}

// Actor is the authenticated staff member performing an operation.
type Actor struct {
	UserID   uint64
	Username string
	IP       string
	Caps     Capabilities
}

func (a Actor) ipAddress() *string {
	if a.IP == "" {
		return nil
	}
	ip := a.IP
	return &ip
}

// ActorFor builds an Actor for u with capabilities derived from its group.
func ActorFor(u model.User, ip string) Actor {
	return Actor{UserID: u.ID, Username: u.Username, IP: ip, Caps: CapabilitiesFor(u.Group)}
}
