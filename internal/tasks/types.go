package tasks

import "errors"

type Size string

const (
	SizeSmall    Size = "small"
	SizeMedium   Size = "medium"
	SizeComplete Size = "complete"
)

type Feedback string

const (
	FeedbackDone    Feedback = "done"
	FeedbackTooHard Feedback = "too_hard"
)

const DefaultTaskType = "general"

const completedMessage = "🎉 Congratulations! You've completed all the steps for this task!"

var (
	ErrInvalidFeedback = errors.New("invalid feedback")
	ErrInvalidPlan     = errors.New("invalid plan state")
	ErrCannotBreakDown = errors.New("could not break down further")
)

// Plan is the whole plan state. The server keeps none of it between
// requests: the client sends it back on every feedback call.
type Plan struct {
	AllSteps     []string `json:"all_steps"`
	CurrentIndex int      `json:"current_index"`
	OriginalTask string   `json:"original_task"`
	TaskType     string   `json:"task_type"`
}

// Suggestion is one phrased next step. Plan is nil on the terminal
// "complete" answer.
type Suggestion struct {
	Subtask         string
	Size            Size
	OriginalSubtask string
	Plan            *Plan
	Completed       bool
	BrokenDown      bool
}

type FeedbackRequest struct {
	Feedback    Feedback
	CurrentStep string
	Plan        Plan
}

func taskTypeOrDefault(t string) string {
	if t == "" {
		return DefaultTaskType
	}
	return t
}
