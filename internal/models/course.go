package models

// LecturerDetail is the nested lecturer summary the backend embeds in
// course payloads.
type LecturerDetail struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Course is a transient read copy of a backend course. Optional fields are
// pointers so an absent value survives a round trip unchanged.
type Course struct {
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	Code           string         `json:"code"`
	Description    string         `json:"description"`
	Lecturer       int            `json:"lecturer"`
	LecturerDetail LecturerDetail `json:"lecturer_detail"`
	DurationWeeks  *int           `json:"duration_weeks,omitempty"`
	StudentsCount  *int           `json:"students_count,omitempty"`
	IsEnrolled     *bool          `json:"is_enrolled,omitempty"`
	CreatedAt      string         `json:"created_at,omitempty"`
}

// CourseFilter captures the query params the backend understands.
type CourseFilter struct {
	Enrolled bool
	Search   string
}

// Enrollment links a student to a course.
type Enrollment struct {
	ID            int          `json:"id"`
	Student       int          `json:"student"`
	Course        int          `json:"course"`
	StudentDetail *UserProfile `json:"student_detail,omitempty"`
	CreatedAt     string       `json:"created_at,omitempty"`
}

// Material is a per-course learning resource.
type Material struct {
	ID        int    `json:"id"`
	Course    int    `json:"course"`
	Title     string `json:"title"`
	FileURL   string `json:"file_url"`
	CreatedAt string `json:"created_at,omitempty"`
}
