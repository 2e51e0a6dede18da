package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AutosaveRequest is sent by the client to save a single answer.
type AutosaveRequest struct {
	Action            Action  `json:"action"`
	QuestionID        int64   `json:"question_id"`
	SelectedOptionIDs []int64 `json:"selected_option_ids,omitempty"`
	BoolAnswer        *bool   `json:"bool_answer,omitempty"`
}

// SubmitRequest is sent by the client to finish and grade the attempt.
// Coding answers come from recorded judge verdicts, so the payload only
// carries choice and boolean answers.
type SubmitRequest struct {
	Action  Action   `json:"action"`
	Answers []Answer `json:"answers,omitempty"`
}

// Answer mirrors model.AnswerInput on the wire.
type Answer struct {
	QuestionID        int64   `json:"question_id"`
	SelectedOptionIDs []int64 `json:"selected_option_ids,omitempty"`
	BoolAnswer        *bool   `json:"bool_answer,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventSuccess Event = "success"
	EventGraded  Event = "graded"
	EventPong    Event = "pong"
	EventExpired Event = "expired"
)

type AutosaveResponse struct {
	Event  Event  `json:"event"`
	QID    int64  `json:"question_id"`
	Status string `json:"status"`
}

type GradedResponse struct {
	Event         Event `json:"event"`
	ObtainedMarks int   `json:"obtained_marks"`
	TotalMarks    int   `json:"total_marks"`
	Passed        bool  `json:"passed"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

// PongResponse carries the server-computed remaining time so clients
// can resync their countdown on every ping.
type PongResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int64 `json:"remaining_seconds"`
}
