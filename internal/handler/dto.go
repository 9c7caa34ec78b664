package handler

import (
	"time"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/service"
)

// ----- request DTOs -----

// purchaseReq accepts either a full name or first/last name parts, the
// latter as the order form sends them.
type purchaseReq struct {
	Name         string `json:"name"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Performance1 string `json:"performance1" validate:"required"`
	Performance2 string `json:"performance2" validate:"required"`
}

func (r purchaseReq) input() service.PurchaseInput {
	name := r.Name
	if r.FirstName != "" || r.LastName != "" {
		name = service.CapitalizeName(r.FirstName) + " " + service.CapitalizeName(r.LastName)
	}
	return service.PurchaseInput{
		Name:         name,
		Email:        r.Email,
		Performance1: r.Performance1,
		Performance2: r.Performance2,
	}
}

type associationReq struct {
	Name  string  `json:"name" validate:"required"`
	Image *string `json:"image"`
}

type performanceReq struct {
	Key         string    `json:"key" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Association string    `json:"association" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	PriceCents  uint32    `json:"price_cents"`
	MaxTickets  int       `json:"max_tickets" validate:"gte=0"`
}

// ----- response DTOs -----

type purchaseResp struct {
	ID               uint64     `json:"id"`
	Date             time.Time  `json:"date"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Ticket1          string     `json:"ticket1"`
	Ticket2          string     `json:"ticket2"`
	VerificationCode string     `json:"verification_code"`
	CreatedBy        uint64     `json:"created_by"`
	ModifiedBy       *uint64    `json:"modified_by,omitempty"`
	ModifiedDate     *time.Time `json:"modified_date,omitempty"`
}

func toPurchase(p model.Purchase) purchaseResp {
	return purchaseResp{
		ID:               p.ID,
		Date:             p.Date,
		Name:             p.Name,
		Email:            p.Email,
		Ticket1:          p.Ticket1,
		Ticket2:          p.Ticket2,
		VerificationCode: p.VerificationCode,
		CreatedBy:        p.CreatedBy,
		ModifiedBy:       p.ModifiedBy,
		ModifiedDate:     p.ModifiedDate,
	}
}

type performanceResp struct {
	Key         string    `json:"key"`
	Date        time.Time `json:"date"`
	Association string    `json:"association"`
	Name        string    `json:"name"`
	PriceCents  uint32    `json:"price_cents"`
	MaxTickets  int       `json:"max_tickets"`
	TicketsSold *int      `json:"tickets_sold,omitempty"`
	TicketsLeft *int      `json:"tickets_left,omitempty"`
}

func toPerformance(p model.Performance) performanceResp {
	return performanceResp{
		Key:         p.Key,
		Date:        p.Date,
		Association: p.Association,
		Name:        p.Name,
		PriceCents:  p.PriceCents,
		MaxTickets:  p.MaxTickets,
	}
}

type purchaseDetailResp struct {
	Purchase     purchaseResp      `json:"purchase"`
	Performances []performanceResp `json:"performances"`
	TotalCents   uint32            `json:"total_cents"`
}

func toDetail(d *service.PurchaseDetail) purchaseDetailResp {
	out := purchaseDetailResp{Purchase: toPurchase(d.Purchase), TotalCents: d.TotalCents}
	for _, p := range d.Performances {
		out.Performances = append(out.Performances, toPerformance(p))
	}
	return out
}

type auditResp struct {
	ID         uint64         `json:"id"`
	PurchaseID uint64         `json:"purchase_id"`
	Action     string         `json:"action"`
	Timestamp  time.Time      `json:"timestamp"`
	UserID     uint64         `json:"user_id"`
	Changes    map[string]any `json:"changes,omitempty"`
	IPAddress  *string        `json:"ip_address,omitempty"`
}

func toAudit(e model.PurchaseAuditLog) auditResp {
	return auditResp{
		ID:         e.ID,
		PurchaseID: e.PurchaseID,
		Action:     string(e.Action),
		Timestamp:  e.Timestamp,
		UserID:     e.UserID,
		Changes:    e.Changes,
		IPAddress:  e.IPAddress,
	}
}

type associationResp struct {
	Name         string            `json:"name"`
	Image        *string           `json:"image,omitempty"`
	Shows        []string          `json:"shows"`
	Performances []performanceResp `json:"performances"`
}

func toAssociationGroup(g service.AssociationGroup) associationResp {
	out := associationResp{
		Name:         g.Association.Name,
		Image:        g.Association.Image,
		Shows:        g.UniqueNames(),
		Performances: []performanceResp{},
	}
	for _, p := range g.Performances {
		r := toPerformance(p.Performance)
		sold, left := p.TicketsSold, p.TicketsLeft
		r.TicketsSold, r.TicketsLeft = &sold, &left
		out.Performances = append(out.Performances, r)
	}
	return out
}

type userResp struct {
	ID           uint64               `json:"id"`
	Username     string               `json:"username"`
	Email        string               `json:"email,omitempty"`
	Group        string               `json:"group,omitempty"`
	Capabilities service.Capabilities `json:"capabilities"`
}

func toUser(u model.User) userResp {
	return userResp{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Group:        u.Group,
		Capabilities: service.CapabilitiesFor(u.Group),
	}
}
