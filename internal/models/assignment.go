package models

// Assignment is a transient read copy of a backend assignment.
type Assignment struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	DueDate      string  `json:"due_date"`
	Course       int     `json:"course"`
	CourseDetail *Course `json:"course_detail,omitempty"`
	CreatedAt    string  `json:"created_at,omitempty"`
}
