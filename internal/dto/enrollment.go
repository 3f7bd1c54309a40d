package dto

// EnrollStudentRequest is the admin/lecturer enrollment path payload.
type EnrollStudentRequest struct {
	Course  int `json:"course" validate:"required"`
	Student int `json:"student"`
}
