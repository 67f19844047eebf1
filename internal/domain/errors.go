package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidState  = errors.New("operation not allowed in current state")
	ErrInvalidQuote  = errors.New("quote violates increment or crossing rule")
	ErrAlreadyTraded = errors.New("bet already traded")
	ErrNoQuote       = errors.New("no quote available on required side")
)
