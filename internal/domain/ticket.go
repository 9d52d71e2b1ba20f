package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Ticket is a historical customer requirement with the grade proposed for it.
// Every column except ID is nullable; nil fields serialize as JSON null so a stored
// ticket round-trips through the API without loss.
type Ticket struct {
	ID                 int64   `json:"id"`
	TicketID           *string `json:"ticket_id"`
	Timestamp          *string `json:"timestamp"`
	Email              *string `json:"email"`
	RequiredBy         *string `json:"required_by"`
	RequirementType    *string `json:"requirement_type"`
	Division           *string `json:"division"`
	Category           *string `json:"category"`
	RequirementDetails *string `json:"requirement_details"`
	Priority           *string `json:"priority"`
	CustomerName       *string `json:"customer_name"`
	Remark             *string `json:"remark"`
	TicketType         *string `json:"ticket_type"`
	TargetDate         *string `json:"target_date"`
	CompanyName        *string `json:"company_name"`
	TTAssignTo         *string `json:"tt_assign_to"`
	TTAssignedDate     *string `json:"tt_assigned_date"`
	Status             *string `json:"status"`
	ProposedGrade      *string `json:"proposed_grade"`
	ProposedReason     *string `json:"proposed_reason"`
	Notes              *string `json:"notes"`
	CCEmail            *string `json:"cc_email"`
	Zone               *string `json:"zone"`
}

// Document renders the ticket as the text block indexed for similarity search.
func (t *Ticket) Document() string {
	ref := strconv.FormatInt(t.ID, 10)
	if t.TicketID != nil && *t.TicketID != "" {
		ref = *t.TicketID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Ticket %s\n", ref)
	fmt.Fprintf(&b, "Division=%s Category=%s\n", orNone(t.Division), orNone(t.Category))
	fmt.Fprintf(&b, "Details=%s\n", orNone(t.RequirementDetails))
	fmt.Fprintf(&b, "Proposed=%s Reason=%s\n", orNone(t.ProposedGrade), orNone(t.ProposedReason))
	fmt.Fprintf(&b, "Customer=%s Priority=%s\n", orNone(t.CustomerName), orNone(t.Priority))
	return b.String()
}

// Str returns a pointer to s, for building nullable fields.
func Str(s string) *string { return &s }

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orNone(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}
