package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/priyankaksolves/student-exam-app/internal/config"
	"github.com/priyankaksolves/student-exam-app/internal/middleware"
	"github.com/priyankaksolves/student-exam-app/internal/model"
	"github.com/priyankaksolves/student-exam-app/internal/service"
	ws "github.com/priyankaksolves/student-exam-app/internal/websocket"
	"github.com/priyankaksolves/student-exam-app/internal/worker"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a live attempt: autosaves answers to Redis, keeps
// the countdown in sync, and accepts the final submit.
type WSHandler struct {
	rdb            *redis.Client
	attemptService *service.AttemptService
	cache          service.StateCache
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, attemptService *service.AttemptService, cache service.StateCache, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:            rdb,
		attemptService: attemptService,
		cache:          cache,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/student/attempts/:assignment_id/stream
// Upgrades to WebSocket for real-time autosave, clock sync, and submit.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	assignmentID, err := strconv.ParseInt(c.Param("assignment_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment ID"})
		return
	}

	// The attempt must be running before the stream opens.
	state, err := h.attemptService.State(c.Request.Context(), claims.UserID, assignmentID)
	if err != nil || state.Status != model.AttemptInProgress {
		c.JSON(http.StatusConflict, gin.H{"error": "attempt is not in progress"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int64("student_id", claims.UserID).
		Int64("assignment_id", assignmentID).
		Logger()

	wsLog.Info().Msg("Student connected")

	for {
		var raw json.RawMessage
		if err := ws.ReadJSON(conn, &raw); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		// Peek at the action before parsing the full payload.
		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			ws.WriteError(conn, "invalid message")
			continue
		}

		switch envelope.Action {
		case ws.ActionAutosave:
			var msg ws.AutosaveRequest
			if err := json.Unmarshal(raw, &msg); err != nil {
				ws.WriteError(conn, "invalid autosave payload")
				continue
			}
			h.handleAutosave(conn, wsLog, assignmentID, &msg)
		case ws.ActionPing:
			h.handlePing(conn, wsLog, claims.UserID, assignmentID)
		case ws.ActionSubmit:
			var msg ws.SubmitRequest
			if err := json.Unmarshal(raw, &msg); err != nil {
				ws.WriteError(conn, "invalid submit payload")
				continue
			}
			if h.handleSubmit(conn, wsLog, claims.UserID, assignmentID, &msg) {
				return
			}
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(envelope.Action))
		}
	}
}

// handleAutosave saves a single answer to Redis and queues it for
// database persistence.
func (h *WSHandler) handleAutosave(conn *websocket.Conn, wsLog zerolog.Logger, assignmentID int64, msg *ws.AutosaveRequest) {
	ctx := context.Background()

	if msg.QuestionID <= 0 {
		ws.WriteError(conn, "question_id is required")
		return
	}

	raw, err := json.Marshal(ws.Answer{
		QuestionID:        msg.QuestionID,
		SelectedOptionIDs: msg.SelectedOptionIDs,
		BoolAnswer:        msg.BoolAnswer,
	})
	if err != nil {
		ws.WriteError(conn, "invalid answer payload")
		return
	}

	qid := strconv.FormatInt(msg.QuestionID, 10)
	if err := h.cache.SaveAnswer(ctx, assignmentID, qid, string(raw)); err != nil {
		wsLog.Error().Err(err).Msg("Autosave Redis error")
		ws.WriteError(conn, "save failed")
		return
	}

	queued, _ := json.Marshal(worker.AnswerPayload{
		AssignmentID:      assignmentID,
		QuestionID:        msg.QuestionID,
		SelectedOptionIDs: msg.SelectedOptionIDs,
		BoolAnswer:        msg.BoolAnswer,
	})
	h.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, queued)

	ws.WriteTyped(conn, ws.AutosaveResponse{Event: ws.EventSuccess, QID: msg.QuestionID, Status: "saved"})
}

// handlePing resyncs the client countdown from the server clock.
func (h *WSHandler) handlePing(conn *websocket.Conn, wsLog zerolog.Logger, studentID, assignmentID int64) {
	state, err := h.attemptService.State(context.Background(), studentID, assignmentID)
	if err != nil {
		wsLog.Error().Err(err).Msg("State error on ping")
		ws.WriteError(conn, "state unavailable")
		return
	}
	if state.Status != model.AttemptInProgress {
		ws.WriteTyped(conn, ws.ErrorResponse{Event: ws.EventExpired, Error: "attempt is no longer active"})
		return
	}
	ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong, RemainingSeconds: state.RemainingSeconds})
}

// handleSubmit grades and completes the attempt. Returns true when the
// stream should close.
func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, studentID, assignmentID int64, msg *ws.SubmitRequest) bool {
	// Answers in the payload win over autosaved ones. An empty payload
	// falls back to the autosaved and judged answers recorded
	// server-side.
	inputs := make([]model.AnswerInput, 0, len(msg.Answers))
	for _, a := range msg.Answers {
		inputs = append(inputs, model.AnswerInput{
			QuestionID:        a.QuestionID,
			SelectedOptionIDs: a.SelectedOptionIDs,
			BoolAnswer:        a.BoolAnswer,
		})
	}
	if len(inputs) == 0 {
		inputs = nil
	}

	result, err := h.attemptService.Submit(context.Background(), studentID, assignmentID, inputs)
	if err != nil {
		if errors.Is(err, service.ErrNotStarted) || errors.Is(err, service.ErrAttemptNotActive) {
			ws.WriteTyped(conn, ws.ErrorResponse{Event: ws.EventExpired, Error: "attempt is no longer active"})
			return true
		}
		wsLog.Error().Err(err).Msg("Submit error")
		ws.WriteError(conn, "submit failed")
		return false
	}

	wsLog.Info().
		Int("obtained", result.ObtainedMarks).
		Int("total", result.TotalMarks).
		Bool("passed", result.Passed).
		Msg("Attempt submitted and graded")

	ws.WriteTyped(conn, ws.GradedResponse{
		Event:         ws.EventGraded,
		ObtainedMarks: result.ObtainedMarks,
		TotalMarks:    result.TotalMarks,
		Passed:        result.Passed,
	})
	return true
}
