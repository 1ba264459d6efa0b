// Package errors defines the error taxonomy surfaced by endpoint calls.
// Every failure delivered to a callback is, or wraps, an *AppError whose
// Code identifies the failure class.
package errors
