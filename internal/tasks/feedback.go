package tasks

import (
	"context"
	"fmt"

	"nextstep-backend/internal/analytics"
)

const tinierStepsPrefix = "Break this into even tinier steps: "

// HandleFeedback moves the client's plan forward ("done") or replaces the
// current step with a finer breakdown ("too_hard").
func (e *Engine) HandleFeedback(ctx context.Context, req FeedbackRequest) (Suggestion, error) {
	plan := req.Plan
	plan.TaskType = taskTypeOrDefault(plan.TaskType)

	if req.Feedback != FeedbackDone && req.Feedback != FeedbackTooHard {
		return Suggestion{}, fmt.Errorf("%w: %q", ErrInvalidFeedback, req.Feedback)
	}
	if plan.CurrentIndex < 0 {
		return Suggestion{}, fmt.Errorf("%w: current_index %d", ErrInvalidPlan, plan.CurrentIndex)
	}

	if req.Feedback == FeedbackDone {
		return e.advance(ctx, plan)
	}
	return e.breakDown(ctx, plan, req.CurrentStep)
}

func (e *Engine) advance(ctx context.Context, plan Plan) (Suggestion, error) {
	e.record(ctx, plan.TaskType, "completed", analytics.OutcomeSuccess)

	next := plan.CurrentIndex + 1
	if next >= len(plan.AllSteps) {
		return Suggestion{
			Subtask:   completedMessage,
			Size:      SizeComplete,
			Completed: true,
		}, nil
	}

	step := plan.AllSteps[next]
	size := e.DecideSubtaskSize(ctx, plan.TaskType)
	phrased, err := e.gateway.PhraseSubtask(ctx, step, string(size))
	if err != nil {
		return Suggestion{}, err
	}

	plan.CurrentIndex = next
	return Suggestion{
		Subtask:         phrased,
		Size:            size,
		OriginalSubtask: step,
		Plan:            &plan,
	}, nil
}

func (e *Engine) breakDown(ctx context.Context, plan Plan, current string) (Suggestion, error) {
	if current == "" && plan.CurrentIndex < len(plan.AllSteps) {
		current = plan.AllSteps[plan.CurrentIndex]
	}
	if current == "" {
		return Suggestion{}, fmt.Errorf("%w: current_step is required", ErrInvalidPlan)
	}

	// one record per too_hard event, however many micro-steps come back
	e.record(ctx, plan.TaskType, string(SizeSmall), analytics.OutcomeStruggled)

	micro, err := e.gateway.DecomposeTask(ctx, tinierStepsPrefix+current)
	if err != nil {
		return Suggestion{}, err
	}
	if len(micro) == 0 {
		return Suggestion{}, ErrCannotBreakDown
	}

	phrased, err := e.gateway.PhraseSubtask(ctx, micro[0], string(SizeSmall))
	if err != nil {
		return Suggestion{}, err
	}

	rest := plan.AllSteps[min(plan.CurrentIndex+1, len(plan.AllSteps)):]
	steps := make([]string, 0, len(micro)+len(rest))
	steps = append(steps, micro...)
	steps = append(steps, rest...)

	return Suggestion{
		Subtask:         phrased,
		Size:            SizeSmall,
		OriginalSubtask: micro[0],
		Plan: &Plan{
			AllSteps:     steps,
			CurrentIndex: 0,
			OriginalTask: plan.OriginalTask,
			TaskType:     plan.TaskType,
		},
		BrokenDown: true,
	}, nil
}
