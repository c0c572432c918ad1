// Package handlers defines HTTP-layer error codes used by the JSON API.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Every JSON error carries an HTTP status and one of these,
// or middleware.CodeRateLimited / middleware.CodeInternal.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "resource not found"
//	}
package handlers

const (
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeListFailed = "list_failed"
)
