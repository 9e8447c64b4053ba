package dto

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func requireField(value, field string) []ValidationError {
	if strings.TrimSpace(value) == "" {
		return []ValidationError{{Field: field, Message: "is required"}}
	}
	return nil
}

func validateAbsolutePath(value, field string) []ValidationError {
	var errs []ValidationError
	if value != "" && !filepath.IsAbs(value) {
		errs = append(errs, ValidationError{Field: field, Message: "must be an absolute path"})
	}
	return errs
}

func validateURL(value, field string) []ValidationError {
	var errs []ValidationError
	if value != "" {
		if _, err := url.ParseRequestURI(value); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: "invalid URL format"})
		}
	}
	return errs
}
