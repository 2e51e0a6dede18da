package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_ALREADY_REGISTERED"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Exam lifecycle ────────────────────────────────────────────────
	ErrExamNotLive      ErrCode = "EXAM_NOT_LIVE"
	ErrExamNotStarted   ErrCode = "EXAM_NOT_STARTED"
	ErrAlreadyStarted   ErrCode = "ATTEMPT_ALREADY_STARTED"
	ErrAlreadyCompleted ErrCode = "ATTEMPT_ALREADY_COMPLETED"
	ErrAttemptNotActive ErrCode = "ATTEMPT_NOT_ACTIVE"
	ErrTimeExpired      ErrCode = "TIME_EXPIRED"
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"
	ErrExamLocked       ErrCode = "EXAM_LOCKED"
	ErrAlreadyAssigned  ErrCode = "STUDENT_ALREADY_ASSIGNED"
	ErrResultNotReady   ErrCode = "RESULT_NOT_READY"

	// ─── External services ─────────────────────────────────────────────
	ErrJudgeUnavailable   ErrCode = "JUDGE_UNAVAILABLE"
	ErrProctorUnavailable ErrCode = "PROCTOR_UNAVAILABLE"

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
		return "Incorrect email or password."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrSessionActive:
		return "You are already signed in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Exam lifecycle ────────────────────────────────────────────────
	case ErrExamNotLive:
		return "This exam has not been published yet."
	case ErrExamNotStarted:
		return "You have not started this exam."
	case ErrAlreadyStarted:
		return "You have already started this exam."
	case ErrAlreadyCompleted:
		return "You have already completed this exam."
	case ErrAttemptNotActive:
		return "This exam attempt is no longer active."
	case ErrTimeExpired:
		return "The time for this exam has expired."
	case ErrNoQuestions:
		return "This exam has no questions."
	case ErrExamLocked:
		return "This exam can no longer be edited because students have started it."
	case ErrAlreadyAssigned:
		return "One or more students are already assigned to this exam."
	case ErrResultNotReady:
		return "The result is not available until the exam is completed."

	// ─── External services ─────────────────────────────────────────────
	case ErrJudgeUnavailable:
		return "The code execution service is currently unavailable."
	case ErrProctorUnavailable:
		return "The proctoring service is currently unavailable."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
