package user

import "errors"

var (
	ErrInvalidToken          = errors.New("invalid token")
	ErrManagerAccessRequired = errors.New("manager access required")
	ErrCompanyIDRequired     = errors.New("company ID is required")
)
