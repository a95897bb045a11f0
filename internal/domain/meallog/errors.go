package meallog

import "errors"

// Domain errors for meal logging

var (
	ErrMenuEmpty       = errors.New("menu has no composition lines")
	ErrMealLogNotFound = errors.New("meal log not found")
	ErrAlreadyConsumed = errors.New("meal log is already confirmed")
	ErrInvalidUser     = errors.New("meal log requires a user")
)
