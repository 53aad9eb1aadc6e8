package entities

import "errors"

// Sentinel causes carried by not-found AppErrors, for errors.Is checks
var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrQuestionNotFound = errors.New("question not found")
)
