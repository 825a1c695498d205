package services

import (
	"campus-assistant/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type AskRequest struct {
	Session string `validate:"required,uuid4"`
	Content string
}

// validateAsk reports a malformed session id as an unknown session.
func validateAsk(req AskRequest, maxContentLength int) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrSessionNotFound, err)
	}
	if maxContentLength > 0 {
		if err := validate.Var(req.Content, fmt.Sprintf("max=%d", maxContentLength)); err != nil {
			return fmt.Errorf("%w: content longer than %d characters", errors.ErrInvalidInput, maxContentLength)
		}
	}
	return nil
}

func validateSession(session string) error {
	if err := validate.Var(session, "required,uuid4"); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrSessionNotFound, err)
	}
	return nil
}
