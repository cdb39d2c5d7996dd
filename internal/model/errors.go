package model

import "errors"

// ErrInvalidInput marks structural input problems (no questions, missing evidence set).
// Item-level problems are filtered, not reported.
var ErrInvalidInput = errors.New("invalid input")
