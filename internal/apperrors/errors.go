// Package apperrors defines the failure kinds shared across the analysis pipeline.
package apperrors

import "errors"

// Failure kinds. Components wrap these with fmt.Errorf("...: %w", ...) so callers
// can classify with errors.Is.
var (
	// ErrNoData means no tabular, analytics or document input was supplied.
	ErrNoData = errors.New("no data provided for analysis")
	// ErrUpstream means the model endpoint answered with a non-success status.
	ErrUpstream = errors.New("model endpoint error")
	// ErrMalformedResponse means the endpoint succeeded but returned no text content.
	ErrMalformedResponse = errors.New("no text response from model")
	// ErrNoJSONFound means the model text contains no balanced JSON object.
	ErrNoJSONFound = errors.New("no JSON object found in model response")
	// ErrInvalidJSON means a JSON-looking span was found but does not parse.
	ErrInvalidJSON = errors.New("invalid JSON in model response")
	// ErrSchemaViolation means the parsed object does not match the result shape.
	ErrSchemaViolation = errors.New("model response does not match the result schema")
)

// Kind returns a short stable label for err, used in metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.Is(err, ErrUpstream):
		return "upstream_error"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrNoJSONFound):
		return "no_json_found"
	case errors.Is(err, ErrInvalidJSON):
		return "invalid_json"
	case errors.Is(err, ErrSchemaViolation):
		return "schema_violation"
	default:
		return "internal"
	}
}

// IsParseFailure reports whether err is one of the response parsing kinds.
func IsParseFailure(err error) bool {
	return errors.Is(err, ErrNoJSONFound) || errors.Is(err, ErrInvalidJSON) || errors.Is(err, ErrSchemaViolation)
}
