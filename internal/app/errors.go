package app

import (
	"errors"
	"fmt"
	"net/http"

	"folio/internal/content"
	"folio/internal/media"
	"folio/internal/search"
	"folio/internal/store"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func validationError(message string, details any) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, details)
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	switch {
	case errors.As(err, &domainErr):
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	case errors.Is(err, store.ErrNotFound), errors.Is(err, search.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, store.ErrTitleRequired):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", store.ErrTitleRequired.Error(), nil
	case errors.Is(err, store.ErrInvalidCategory):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", store.ErrInvalidCategory.Error(), map[string]any{"allowed": store.Categories}
	case errors.Is(err, content.ErrContentRule):
		return http.StatusUnprocessableEntity, "INVALID_CONTENT", "Content does not fit the document schema", nil
	case errors.Is(err, media.ErrEmpty):
		return http.StatusBadRequest, "NO_FILE", media.ErrEmpty.Error(), nil
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", media.ErrTooLarge.Error(), nil
	case errors.Is(err, media.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE", media.ErrUnsupportedType.Error(), nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
