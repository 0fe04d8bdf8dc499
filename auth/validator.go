package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// LoginRequest is the body of POST /api/auth/login. Identifier is the
// teacher's email or the student's username depending on role.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
	Role       string `json:"role" validate:"required,oneof=teacher student"`
}

func ValidateLogin(req LoginRequest) error {
	return validate.Struct(req)
}
