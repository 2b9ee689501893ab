package handler

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every JSON response: data on success, error otherwise.
type Envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   Envelope
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

type JSONOption func(*jsonResponse)

func WithStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

// JSON responds with {"data": v}, 200 unless overridden.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: Envelope{Data: v}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Created responds with {"data": v} and 201.
func Created(v any) Response {
	return JSON(v, WithStatus(http.StatusCreated))
}

// errorResponse defers to the wrapped ErrorHandler so every failure is
// classified and logged in one place.
type errorResponse struct {
	err error
}

func (e errorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	info := Classify(e.err)
	return jsonResponse{status: info.Status, body: Envelope{Error: &info.Detail}}.Render(w, r)
}

// Error returns a response for err. Inside Wrap it is routed through the
// configured ErrorHandler.
func Error(err error) Response {
	return errorResponse{err: err}
}
