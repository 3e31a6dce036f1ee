package intake

import "errors"

// Intake failure taxonomy. User-facing rejections are mapped to ephemeral
// interaction responses by the command layer; the rest are operator-visible
// only.
var (
	// ErrConfigMissing indicates the guild has not run setup.
	ErrConfigMissing = errors.New("applications are not set up for this guild")

	// ErrPanelClosed indicates the guild's panel gate is closed to new starts.
	ErrPanelClosed = errors.New("applications are closed")

	// ErrSessionActive indicates the user already has a live session.
	ErrSessionActive = errors.New("an application session is already in progress")

	// ErrDeliveryFailed indicates the user could not be reached over DM.
	ErrDeliveryFailed = errors.New("direct message delivery failed")

	// ErrAnswerTimeout indicates the user did not reply within the deadline.
	ErrAnswerTimeout = errors.New("no answer received before the deadline")

	// ErrWaitConflict indicates a second concurrent wait for the same
	// recipient. This is a programming error, not a user-facing condition.
	ErrWaitConflict = errors.New("a reply wait is already outstanding for this recipient")

	// ErrNoQuestions indicates the question set is empty.
	ErrNoQuestions = errors.New("no application questions are configured")
)
