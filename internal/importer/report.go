package importer

// Detail statuses for processed records.
const (
	StatusInvited        = "invited"
	StatusInvitedNoEmail = "invited_no_email"
	StatusDuplicate      = "duplicate"
	StatusInvitePending  = "invite_pending"
)

type RowError struct {
	Line  int    `json:"line"`
	Email string `json:"email"`
	Error string `json:"error"`
}

type DuplicateRow struct {
	Line  int    `json:"line"`
	Email string `json:"email"`
}

type RowDetail struct {
	Line      int    `json:"line"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Report is the pipeline's sole output. It is purely additive and preserves
// input order; for every run TotalProcessed == Successful + len(Errors) +
// len(Duplicates).
type Report struct {
	TotalProcessed int            `json:"totalProcessed"`
	Successful     int            `json:"successful"`
	Invited        int            `json:"invited"`
	Skipped        int            `json:"skipped"`
	Errors         []RowError     `json:"errors"`
	Duplicates     []DuplicateRow `json:"duplicates"`
	Details        []RowDetail    `json:"details"`
}

func NewReport() *Report {
	return &Report{
		Errors:     []RowError{},
		Duplicates: []DuplicateRow{},
		Details:    []RowDetail{},
	}
}

// AddError records a hard failure (validation or infrastructure) for a row.
// Validation failures never count as skipped or successful.
func (r *Report) AddError(line int, email, message string) {
	if email == "" {
		email = "N/A"
	}
	r.TotalProcessed++
	r.Errors = append(r.Errors, RowError{Line: line, Email: email, Error: message})
}

// AddDuplicate records a skip outcome; status is StatusDuplicate for an
// existing member or StatusInvitePending for an existing pending invitation.
func (r *Report) AddDuplicate(line int, email, firstName, lastName, status string) {
	r.TotalProcessed++
	r.Skipped++
	r.Duplicates = append(r.Duplicates, DuplicateRow{Line: line, Email: email})
	r.Details = append(r.Details, RowDetail{
		Line:      line,
		Email:     email,
		Status:    status,
		FirstName: firstName,
		LastName:  lastName,
	})
}

// AddInvited records an issued invitation. The record counts as successful
// whether or not the notification was delivered; delivery failure only
// downgrades the detail status.
func (r *Report) AddInvited(line int, email, firstName, lastName string, emailSent bool) {
	r.TotalProcessed++
	r.Successful++
	r.Invited++
	status := StatusInvited
	if !emailSent {
		status = StatusInvitedNoEmail
	}
	r.Details = append(r.Details, RowDetail{
		Line:      line,
		Email:     email,
		Status:    status,
		FirstName: firstName,
		LastName:  lastName,
	})
}
