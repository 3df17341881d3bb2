package auth

import "errors"

var ErrMissingFields = errors.New("name, email and password are required")

var ErrInvalidEmail = errors.New("invalid email address")

var ErrPasswordTooShort = errors.New("password must be at least 6 characters")

var ErrEmailTaken = errors.New("email is already registered")

var ErrInvalidCredentials = errors.New("invalid email or password")

var ErrInvalidSession = errors.New("invalid or expired session")
