package models

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedLanguage matches any UnsupportedLanguageError
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrParse matches any ParseError
	ErrParse = errors.New("parse error")
	// ErrResourceLimit matches any ResourceLimitError
	ErrResourceLimit = errors.New("resource limit exceeded")
	// ErrNotFound is returned for unknown analysis ids
	ErrNotFound = errors.New("analysis not found")
)

// UnsupportedLanguageError is returned when no grammar is registered for a language tag.
// It is fatal for the whole request.
type UnsupportedLanguageError struct {
	Language Language
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language: %q", string(e.Language))
}

func (e *UnsupportedLanguageError) Is(target error) bool {
	return target == ErrUnsupportedLanguage
}

// ParseError reports the first syntax error of a file. It only degrades the structural score.
type ParseError struct {
	Language Language
	Line     int
	Column   int
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parse error at %d:%d: %s", e.Language, e.Line, e.Column, e.Message)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ResourceLimitError is returned when an input exceeds a configured cap
type ResourceLimitError struct {
	Resource string
	Limit    int64
	Actual   int64
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("resource limit exceeded: %s is %d, limit %d", e.Resource, e.Actual, e.Limit)
}

func (e *ResourceLimitError) Is(target error) bool {
	return target == ErrResourceLimit
}
