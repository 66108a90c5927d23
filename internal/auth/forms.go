package auth

import (
	"errors"
	"strings"

	"github.com/evcraddock/bienesraices/internal/form"
)

// RegisterForm is the sign-up form as submitted.
type RegisterForm struct {
	Name     string `validate:"required"`
	Email    string `validate:"email"`
	Password string `validate:"min=6"`
	Repeat   string `validate:"eqfield=Password"`
}

var registerMessages = form.Messages{
	"Name":     "El Nombre es Obligatorio",
	"Email":    "Eso no es una dirección de correo válido",
	"Password": "La contraseña debe tener al menos 6 caracteres",
	"Repeat":   "Las contraseñas no coinciden",
}

// RegisterFormFromValues reads the sign-up form fields.
func RegisterFormFromValues(get func(string) string) RegisterForm {
	return RegisterForm{
		Name:     strings.TrimSpace(get("nombre")),
		Email:    normalizeEmail(get("email")),
		Password: get("password"),
		Repeat:   get("repetir_password"),
	}
}

// Validate returns *form.Errors describing every invalid field.
func (f RegisterForm) Validate() error {
	return form.Validate(f, registerMessages)
}

// LoginForm is the password sign-in form.
type LoginForm struct {
	Email    string `validate:"email"`
	Password string `validate:"required"`
}

var loginMessages = form.Messages{
	"Email":    "El Correo es Obligatorio",
	"Password": "La contraseña es Obligatoria",
}

// LoginFormFromValues reads the sign-in form fields.
func LoginFormFromValues(get func(string) string) LoginForm {
	return LoginForm{
		Email:    normalizeEmail(get("email")),
		Password: get("password"),
	}
}

// Validate returns *form.Errors for missing fields.
func (f LoginForm) Validate() error {
	return form.Validate(f, loginMessages)
}

// LoginMessage is the sign-in error shown for an Authenticate failure.
func LoginMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return "El Correo no existe", true
	case errors.Is(err, ErrNotConfirmed):
		return "Tu cuenta no esta confirmada", true
	case errors.Is(err, ErrWrongPassword):
		return "La contraseña no es correcta", true
	}
	return "", false
}
