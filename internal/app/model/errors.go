package model

import "fmt"

// APIError is an explicit error payload returned by the catalog.
type APIError struct {
	Code   string
	Detail string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return e.Detail
	}
	return fmt.Sprintf("error #%s: %s", e.Code, e.Detail)
}
