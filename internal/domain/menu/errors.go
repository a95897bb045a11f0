package menu

import "errors"

// Domain errors for catalog lookups

var (
	ErrMenuNotFound       = errors.New("menu not found")
	ErrIngredientNotFound = errors.New("ingredient not found")
)
