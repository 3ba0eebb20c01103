package model

import (
	"strings"
	"time"
)

// ReportStatus represents the lifecycle state of a report.
type ReportStatus string

const (
	StatusNew           ReportStatus = "new"
	StatusUnderReview   ReportStatus = "under_review"
	StatusInvestigation ReportStatus = "investigation"
	StatusEscalated     ReportStatus = "escalated"
	StatusResolved      ReportStatus = "resolved"
	StatusClosed        ReportStatus = "closed"
)

// AllStatuses returns every valid report status.
func AllStatuses() []ReportStatus {
	return []ReportStatus{
		StatusNew,
		StatusUnderReview,
		StatusInvestigation,
		StatusEscalated,
		StatusResolved,
		StatusClosed,
	}
}

// ValidStatus reports whether s is a known report status.
func ValidStatus(s ReportStatus) bool {
	for _, v := range AllStatuses() {
		if v == s {
			return true
		}
	}
	return false
}

// Open reports whether the status still requires handling.
func (s ReportStatus) Open() bool {
	return s != StatusResolved && s != StatusClosed
}

// SourceChannel identifies how a report entered the system.
type SourceChannel string

const (
	ChannelWeb SourceChannel = "web"
	ChannelAPI SourceChannel = "api"
	ChannelCLI SourceChannel = "cli"
)

// Submission carries the 4W+1H fields of an incoming report plus optional
// evidence and reporter contact. Contact stays empty for anonymous reports.
type Submission struct {
	What     string        `json:"what"`
	Who      string        `json:"who"`
	When     string        `json:"when"`
	Where    string        `json:"where"`
	How      string        `json:"how"`
	Evidence string        `json:"evidence,omitempty"`
	Contact  string        `json:"contact,omitempty"`
	Channel  SourceChannel `json:"channel,omitempty"`
}

// Fields returns the five narrative fields in canonical order.
func (s Submission) Fields() [5]string {
	return [5]string{s.What, s.Who, s.When, s.Where, s.How}
}

// CombinedText joins the narrative fields for keyword analysis, lowercased.
func (s Submission) CombinedText() string {
	return strings.ToLower(strings.Join([]string{s.What, s.Who, s.When, s.Where, s.How}, " "))
}

// Report is the persisted form of a processed submission.
type Report struct {
	ID             string                `json:"id"`
	Submission     Submission            `json:"submission"`
	Status         ReportStatus          `json:"status"`
	Classification *ClassificationResult `json:"classification,omitempty"`
	Routing        *RoutingDecision      `json:"routing,omitempty"`
	Investigation  *InvestigationPlan    `json:"investigation,omitempty"`
	Compliance     *ComplianceResult     `json:"compliance,omitempty"`
	AssignedTo     string                `json:"assigned_to,omitempty"`
	ResolutionNote string                `json:"resolution_note,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// Overdue reports whether the report is open and past its SLA deadline.
func (r Report) Overdue(now time.Time) bool {
	if r.Routing == nil || !r.Status.Open() {
		return false
	}
	return now.After(r.Routing.SLADeadline)
}

// Message is one entry in the reporter/manager conversation for a report.
type Message struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"report_id"`
	Sender    string    `json:"sender"` // "reporter", "manager" or "system"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Statistics aggregates dashboard counters over the report table.
type Statistics struct {
	Total      int                    `json:"total"`
	ThisMonth  int                    `json:"this_month"`
	Open       int                    `json:"open"`
	ByStatus   map[ReportStatus]int   `json:"by_status"`
	ByCategory map[ViolationType]int  `json:"by_category"`
	BySeverity map[Severity]int       `json:"by_severity"`
}

// TrendPoint is one day in the submission trend series.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
