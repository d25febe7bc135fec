package dto

// SignupRequest registers a new account.
type SignupRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FirstName   string `json:"first_name" validate:"omitempty,max=100"`
	LastName    string `json:"last_name" validate:"omitempty,max=100"`
	CompanyName string `json:"company_name" validate:"omitempty,max=150"`
}

// UpdateUserRequest changes profile fields; nil fields are left untouched.
type UpdateUserRequest struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=64"`
	Email       *string `json:"email" validate:"omitempty,email"`
	FirstName   *string `json:"first_name" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,max=100"`
	CompanyName *string `json:"company_name" validate:"omitempty,max=150"`
}

// AvailabilityResponse answers username and email availability probes.
type AvailabilityResponse struct {
	Available bool `json:"available"`
}
