package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"interviewassistant/api"
)

// APIError is a non-2xx answer from the interview service.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("interview service %s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// IsRetryCeiling reports whether err means the session may not be continued any more.
func IsRetryCeiling(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Status == http.StatusConflict {
		return true
	}
	return apiErr.Status == http.StatusForbidden && strings.Contains(strings.ToLower(apiErr.Body), api.ReasonRetryCeiling)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
