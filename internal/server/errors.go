// Package server provides the HTTP API of the SEO content machine.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/seo-content-machine/internal/db"
	"github.com/jonathan/seo-content-machine/internal/fetch"
	"github.com/jonathan/seo-content-machine/internal/project"
	"github.com/jonathan/seo-content-machine/internal/sitemap"
	"github.com/jonathan/seo-content-machine/internal/strategist"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnavailable indicates a backend the request needs is not configured
type ErrUnavailable struct {
	Service string
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("%s is not configured", e.Service)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation   *ErrValidation
		invalid      validator.ValidationErrors
		notFound     *ErrNotFound
		unavailable  *ErrUnavailable
		projectErr   *project.Error
		fetchErr     *fetch.Error
		sitemapError *sitemap.Error
	)

	switch {
	case errors.As(err, &validation), errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.Is(err, db.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &projectErr):
		// Project errors without a cause reject the input itself.
		if projectErr.Cause == nil {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	case errors.Is(err, strategist.ErrEmptyContent):
		return http.StatusUnprocessableEntity
	case errors.As(err, &fetchErr), errors.As(err, &sitemapError):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
