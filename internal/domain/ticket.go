package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusAccepted TicketStatus = "accepted"
	TicketStatusResolved TicketStatus = "resolved"
	TicketStatusRejected TicketStatus = "rejected"
)

// Valid reports whether the status is a known lifecycle state.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusAccepted, TicketStatusResolved, TicketStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the status ends the normal lifecycle.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusRejected
}

// Department enumerates the supported requesting departments.
type Department string

const (
	DepartmentFiscal     Department = "fiscal"
	DepartmentContabil   Department = "contabil"
	DepartmentFolha      Department = "folha"
	DepartmentSocietario Department = "societario"
)

// Valid reports whether the department belongs to the closed set.
func (d Department) Valid() bool {
	switch d {
	case DepartmentFiscal, DepartmentContabil, DepartmentFolha, DepartmentSocietario:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests. ID and CreatedAt are
// immutable once assigned; AcceptedAt and ResolvedAt are stamped at most
// once, when the corresponding transition happens.
type Ticket struct {
	ID              string
	Owner           string // login of the submitting account; decides the storage shard
	Department      Department
	Title           string
	Description     string
	Status          TicketStatus
	Priority        bool
	IsTask          bool
	Attachments     []string
	AcceptNotes     string
	ResolutionNotes string
	Deadline        *time.Time
	CreatedAt       time.Time
	AcceptedAt      *time.Time
	ResolvedAt      *time.Time
	LastPokeAt      *time.Time
	PokeCount       int
	Version         int64
}

// Clone returns a deep copy so callers can mutate without aliasing
// store-held state.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	dup := *t
	if t.Attachments != nil {
		dup.Attachments = append([]string(nil), t.Attachments...)
	}
	dup.Deadline = copyTime(t.Deadline)
	dup.AcceptedAt = copyTime(t.AcceptedAt)
	dup.ResolvedAt = copyTime(t.ResolvedAt)
	dup.LastPokeAt = copyTime(t.LastPokeAt)
	return &dup
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	dup := *t
	return &dup
}
