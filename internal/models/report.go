package models

// ReportAuthor is the nested author summary embedded in report payloads.
type ReportAuthor struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Report is a weekly progress report owned by the backend.
type Report struct {
	ID                 int           `json:"id"`
	Title              string        `json:"title"`
	Content            string        `json:"content"`
	WeekNumber         int           `json:"week_number"`
	ProgressPercentage int           `json:"progress_percentage"`
	CreatedAt          string        `json:"created_at,omitempty"`
	UserDetail         *ReportAuthor `json:"user_detail,omitempty"`
}
