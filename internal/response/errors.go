package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrNotOnRoster        ErrCode = "NOT_ON_ROSTER"
	ErrAlreadyRegistered  ErrCode = "ALREADY_REGISTERED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"
	ErrNotSessionOwner   ErrCode = "NOT_SESSION_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Viva-specific ─────────────────────────────────────────────────
	ErrNotScheduled       ErrCode = "NOT_SCHEDULED"
	ErrWindowClosed       ErrCode = "WINDOW_CLOSED"
	ErrWindowNotStarted   ErrCode = "WINDOW_NOT_STARTED"
	ErrWindowExpired      ErrCode = "WINDOW_EXPIRED"
	ErrAlreadyAttempted   ErrCode = "ALREADY_ATTEMPTED"
	ErrAlreadyFinalized   ErrCode = "ALREADY_FINALIZED"
	ErrNotInProgress      ErrCode = "NOT_IN_PROGRESS"
	ErrQuestionOutOfRange ErrCode = "QUESTION_OUT_OF_RANGE"
	ErrScheduleExists     ErrCode = "SCHEDULE_EXISTS"
	ErrScheduleInUse      ErrCode = "SCHEDULE_IN_USE"
	ErrInvalidWindow      ErrCode = "INVALID_WINDOW"
	ErrRosterUnavailable  ErrCode = "ROSTER_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Registration number/email or password is incorrect."
	case ErrSessionActive:
		return "You are already logged in on another device. Contact your teacher to reset."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."
	case ErrNotOnRoster:
		return "Registration number not found on the class roster."
	case ErrAlreadyRegistered:
		return "An account already exists for this registration number."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrTeacherAccessOnly:
		return "This resource is restricted to teachers."
	case ErrNotSessionOwner:
		return "This viva session belongs to another student."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "The submitted data is invalid."
	case ErrInvalidID:
		return "The provided ID is invalid."
	case ErrInvalidPayload:
		return "The request payload could not be parsed."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The request conflicts with the current state."

	// ─── Viva-specific ─────────────────────────────────────────────────
	case ErrNotScheduled:
		return "No viva has been scheduled for this experiment."
	case ErrWindowClosed:
		return "The viva window is closed."
	case ErrWindowNotStarted:
		return "The viva window has not opened yet. Come back at the scheduled start time."
	case ErrWindowExpired:
		return "The viva window has expired."
	case ErrAlreadyAttempted:
		return "You have already attempted the viva for this experiment."
	case ErrAlreadyFinalized:
		return "This viva session has already been finalized."
	case ErrNotInProgress:
		return "This viva session is not in progress."
	case ErrQuestionOutOfRange:
		return "The question number is outside this paper."
	case ErrScheduleExists:
		return "This experiment already has a schedule. Delete it before re-scheduling."
	case ErrScheduleInUse:
		return "Students have already attempted under this schedule; it cannot be deleted."
	case ErrInvalidWindow:
		return "The schedule window is invalid."
	case ErrRosterUnavailable:
		return "The roster spreadsheet is not configured."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please slow down."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal error occurred. Please try again later."

	default:
		return "An unknown error occurred."
	}
}
