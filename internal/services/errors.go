// Package services contains the business logic layer: identity resolution,
// quota accounting, conversation management, the chat orchestration flow,
// and reading tracking. This file defines the sentinel errors shared across
// services and mapped to HTTP statuses by the handlers.
package services

import "errors"

var (
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrConversationNotFound indicates the conversation is missing or not
	// owned by the requesting user.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrRecordNotFound indicates a tracking record is missing or not owned
	// by the requesting user.
	ErrRecordNotFound = errors.New("record not found")

	// ErrEmptyMessage indicates the message text was empty or whitespace.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong indicates the message text exceeds the configured
	// maximum length.
	ErrMessageTooLong = errors.New("message too long")

	// ErrEmptyTitle indicates a conversation title was empty or whitespace.
	ErrEmptyTitle = errors.New("title is empty")

	// ErrQuotaExceeded indicates the user has consumed their message quota.
	ErrQuotaExceeded = errors.New("message quota exceeded")

	// ErrCompletionFailed indicates the upstream model call failed; nothing
	// was persisted and no quota was consumed.
	ErrCompletionFailed = errors.New("completion failed")

	// ErrInvalidInput indicates a request payload failed validation.
	ErrInvalidInput = errors.New("invalid input")
)
