package registrations

// RegisterRequest is the POST /register body
type RegisterRequest struct {
	Name        string   `json:"name" validate:"required"`
	Email       string   `json:"email" validate:"required"`
	Departments []string `json:"departments" validate:"required,min=1"`
}
