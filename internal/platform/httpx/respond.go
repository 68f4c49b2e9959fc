// Package httpx implements the response envelope shared by every endpoint:
// a domain statusCode carried alongside the HTTP status, plus message and
// optional data/errors payloads.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Domain status codes. The numeric value is HTTP status * 10, which leaves
// room for variants sharing an HTTP status.
const (
	CodeOK           = 2000
	CodeCreated      = 2010
	CodeBadRequest   = 4000
	CodeUnauthorized = 4010
	CodeForbidden    = 4030
	CodeNotFound     = 4040
	CodeConflict     = 4090
	CodeLocked       = 4230
)

// Envelope is the wire format for every JSON response.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	Errors     any    `json:"errors,omitempty"`
}

func write(w http.ResponseWriter, httpStatus int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(env)
}

// OK sends a 200 / 2000 response.
func OK(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusOK, Envelope{StatusCode: CodeOK, Message: message, Data: data})
}

// Created sends a 201 / 2010 response.
func Created(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusCreated, Envelope{StatusCode: CodeCreated, Message: message, Data: data})
}

// BadRequest sends a 400 / 4000 response with field or guard errors.
func BadRequest(w http.ResponseWriter, message string, errs any) {
	write(w, http.StatusBadRequest, Envelope{StatusCode: CodeBadRequest, Message: message, Errors: errs})
}

// Unauthorized sends a 401 / 4010 response.
func Unauthorized(w http.ResponseWriter, message string) {
	write(w, http.StatusUnauthorized, Envelope{StatusCode: CodeUnauthorized, Message: message})
}

// Forbidden sends a 403 / 4030 response.
func Forbidden(w http.ResponseWriter, message string) {
	write(w, http.StatusForbidden, Envelope{StatusCode: CodeForbidden, Message: message})
}

// NotFound sends a 404 / 4040 response.
func NotFound(w http.ResponseWriter, message string) {
	write(w, http.StatusNotFound, Envelope{StatusCode: CodeNotFound, Message: message})
}

// Conflict sends a 409 / 4090 response.
func Conflict(w http.ResponseWriter, message string) {
	write(w, http.StatusConflict, Envelope{StatusCode: CodeConflict, Message: message})
}

// Locked sends a 423 / 4230 response.
func Locked(w http.ResponseWriter, message string) {
	write(w, http.StatusLocked, Envelope{StatusCode: CodeLocked, Message: message})
}

// DecodeJSON decodes the request body into target, rejecting unknown fields.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
