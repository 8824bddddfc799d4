package handlers

import (
	"errors"

	"chronoshop/internal/services"
)

func errorsIsValidation(err error) bool {
	return errors.Is(err, services.ErrValidation)
}
