package tasks

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"nextstep-backend/internal/logging"
)

// PlanSigner attaches and checks an integrity token on the round-tripped plan.
type PlanSigner interface {
	Enabled() bool
	Required() bool
	Sign(p Plan) (string, error)
	Verify(token string, p Plan) error
}

type suggestRequest struct {
	TaskText string `json:"task_text"`
	TaskType string `json:"task_type"`
}

type feedbackRequest struct {
	Feedback    string `json:"feedback"`
	CurrentStep string `json:"current_step"`
	Plan
	PlanToken string `json:"plan_token"`
}

type suggestionResponse struct {
	Subtask         string `json:"subtask"`
	Size            Size   `json:"size"`
	OriginalSubtask *string `json:"original_subtask,omitempty"`
	*Plan
	Completed  *bool  `json:"completed,omitempty"`
	BrokenDown bool   `json:"broken_down,omitempty"`
	PlanToken  string `json:"plan_token,omitempty"`
}

// SuggestHandler serves POST /api/suggest.
func SuggestHandler(engine *Engine, signer PlanSigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context(), nil)

		var body suggestRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if body.TaskText == "" {
			writeError(w, http.StatusBadRequest, "No task provided")
			return
		}

		s, err := engine.GetAdaptiveSubtask(r.Context(), body.TaskText, body.TaskType)
		if err != nil {
			log.Error("suggest failed", zap.String("task_type", taskTypeOrDefault(body.TaskType)), zap.Error(err))
			writeEngineError(w, err)
			return
		}

		resp, err := toResponse(s, signer)
		if err != nil {
			log.Error("sign plan failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// FeedbackHandler serves POST /api/feedback.
func FeedbackHandler(engine *Engine, signer PlanSigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context(), nil)

		var body feedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if signer != nil && signer.Enabled() {
			switch {
			case body.PlanToken != "":
				if err := signer.Verify(body.PlanToken, body.Plan); err != nil {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
			case signer.Required():
				writeError(w, http.StatusBadRequest, "plan_token is required")
				return
			}
		}

		log.Debug("feedback",
			zap.String("feedback", body.Feedback),
			zap.Int("current_index", body.CurrentIndex),
			zap.Int("steps", len(body.AllSteps)),
		)

		s, err := engine.HandleFeedback(r.Context(), FeedbackRequest{
			Feedback:    Feedback(body.Feedback),
			CurrentStep: body.CurrentStep,
			Plan:        body.Plan,
		})
		if err != nil {
			log.Error("feedback failed", zap.String("feedback", body.Feedback), zap.Error(err))
			writeEngineError(w, err)
			return
		}

		resp, err := toResponse(s, signer)
		if err != nil {
			log.Error("sign plan failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		completed := s.Completed
		resp.Completed = &completed

		writeJSON(w, http.StatusOK, resp)
	}
}

func toResponse(s Suggestion, signer PlanSigner) (suggestionResponse, error) {
	resp := suggestionResponse{
		Subtask:    s.Subtask,
		Size:       s.Size,
		Plan:       s.Plan,
		BrokenDown: s.BrokenDown,
	}
	if !s.Completed {
		original := s.OriginalSubtask
		resp.OriginalSubtask = &original
	}

	if s.Plan != nil && signer != nil && signer.Enabled() {
		token, err := signer.Sign(*s.Plan)
		if err != nil {
			return suggestionResponse{}, err
		}
		resp.PlanToken = token
	}

	return resp, nil
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidFeedback):
		writeError(w, http.StatusBadRequest, "Invalid feedback")
	case errors.Is(err, ErrInvalidPlan):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCannotBreakDown):
		writeError(w, http.StatusInternalServerError, "Could not break down further")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
