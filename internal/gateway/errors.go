package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"

	"github.com/naka-gawa/github-profile/internal/domain"
)

// classifyRESTError tags err with a domain sentinel based on the HTTP status
// go-github attaches to its ErrorResponse.
func classifyRESTError(err error) error {
	var errResp *github.ErrorResponse
	if !errors.As(err, &errResp) || errResp.Response == nil {
		return err
	}
	switch errResp.Response.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", domain.ErrBadCredentials, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return err
}

// classifyGraphQLError does the same for githubv4, which only reports the
// HTTP status inside the error text. Transport failures never carry a
// status, so they are left untouched.
func classifyGraphQLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "status code: 401"):
		return fmt.Errorf("%w: %w", domain.ErrBadCredentials, err)
	case strings.Contains(msg, "Could not resolve to a User"):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return err
}
