package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nextstep-backend/internal/analytics"
)

// Gateway is the language-model side of the engine.
type Gateway interface {
	DecomposeTask(ctx context.Context, taskText string) ([]string, error)
	PhraseSubtask(ctx context.Context, subtask, size string) (string, error)
}

type InteractionLog interface {
	Log(ctx context.Context, taskType, size, outcome string) error
}

// SizeAdjuster may change the time-of-day decision, e.g. from interaction
// history. None are registered by default.
type SizeAdjuster func(ctx context.Context, taskType string, proposed Size) Size

type Engine struct {
	gateway   Gateway
	log       InteractionLog
	logger    *zap.Logger
	now       func() time.Time
	adjusters []SizeAdjuster
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithSizeAdjuster(a SizeAdjuster) Option {
	return func(e *Engine) { e.adjusters = append(e.adjusters, a) }
}

func NewEngine(gw Gateway, log InteractionLog, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{gateway: gw, log: log, logger: logger, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// DecideSubtaskSize: evenings and nights (17:00–04:59 local) get small steps.
func (e *Engine) DecideSubtaskSize(ctx context.Context, taskType string) Size {
	size := sizeForHour(e.now().Hour())
	for _, adjust := range e.adjusters {
		size = adjust(ctx, taskType, size)
	}
	return size
}

func sizeForHour(h int) Size {
	if h >= 17 || h < 5 {
		return SizeSmall
	}
	return SizeMedium
}

// GetAdaptiveSubtask decomposes taskText, phrases the first step and returns
// it together with the plan it came from. Gateway errors are returned as is.
func (e *Engine) GetAdaptiveSubtask(ctx context.Context, taskText, taskType string) (Suggestion, error) {
	taskType = taskTypeOrDefault(taskType)
	size := e.DecideSubtaskSize(ctx, taskType)

	steps, err := e.gateway.DecomposeTask(ctx, taskText)
	if err != nil {
		return Suggestion{}, err
	}
	if len(steps) == 0 {
		steps = []string{taskText}
	}

	raw := steps[0]
	phrased, err := e.gateway.PhraseSubtask(ctx, raw, string(size))
	if err != nil {
		return Suggestion{}, err
	}

	e.record(ctx, taskType, string(size), analytics.OutcomeSuggested)

	return Suggestion{
		Subtask:         phrased,
		Size:            size,
		OriginalSubtask: raw,
		Plan: &Plan{
			AllSteps:     steps,
			CurrentIndex: 0,
			OriginalTask: taskText,
			TaskType:     taskType,
		},
	}, nil
}

// record is best-effort: a failed write is only visible in the server log.
func (e *Engine) record(ctx context.Context, taskType, size, outcome string) {
	if e.log == nil {
		return
	}
	if err := e.log.Log(ctx, taskType, size, outcome); err != nil {
		e.logger.Warn("interaction log write failed",
			zap.String("task_type", taskType),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
	}
}
