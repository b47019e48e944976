package dto

import "github.com/travelwallet/travelwallet/internal/service"

// RegisterRequest represents the request body for POST /api/v1/register.
type RegisterRequest struct {
	UserName string `json:"userName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
	Profile  string `json:"profile" validate:"max=2048"`
}

// Input converts the request to a service.RegisterInput.
func (r *RegisterRequest) Input() service.RegisterInput {
	return service.RegisterInput{
		UserName: r.UserName,
		Email:    r.Email,
		Password: r.Password,
		Profile:  r.Profile,
	}
}

// LoginRequest represents the request body for POST /api/v1/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
