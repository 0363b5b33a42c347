package services

import "errors"

var (
	// ErrInvalidPrefix is returned when a prefix is empty or longer than MaxPrefixLength
	ErrInvalidPrefix   = errors.New("prefix must be between 1 and 8 characters")
	ErrInvalidImageURL = errors.New("invalid image url")

	ErrDiaryExists   = errors.New("a diary with that name already exists")
	ErrDiaryNotFound = errors.New("diary not found")
	ErrInvalidStatus = errors.New("invalid diary status")
	ErrInvalidName   = errors.New("name must not be empty")

	// ErrUnknownControlMessage means the reacted message is not a diary control message
	ErrUnknownControlMessage = errors.New("message is not a diary control message")
	// ErrUnrecognizedEmoji means the reaction is not one of the four status emoji
	ErrUnrecognizedEmoji = errors.New("emoji does not map to a diary status")

	// ErrReconciliationUnavailable means live guild state could not be read
	ErrReconciliationUnavailable = errors.New("guild role state unavailable")

	ErrFAQExists       = errors.New("an faq with that name already exists")
	ErrFAQNotFound     = errors.New("faq not found")
	ErrFAQReservedName = errors.New("faq name is reserved")
	ErrNotFAQOwner     = errors.New("only the owner or an administrator can change this faq")
)
