package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextstep-backend/internal/analytics"
)

type fakeGateway struct {
	mu sync.Mutex

	decompose  func(text string) ([]string, error)
	phraseErr  error
	decomposed []string
	phrased    []string
}

func (f *fakeGateway) DecomposeTask(_ context.Context, text string) ([]string, error) {
	f.mu.Lock()
	f.decomposed = append(f.decomposed, text)
	f.mu.Unlock()
	if f.decompose == nil {
		return nil, nil
	}
	return f.decompose(text)
}

func (f *fakeGateway) PhraseSubtask(_ context.Context, subtask, size string) (string, error) {
	f.mu.Lock()
	f.phrased = append(f.phrased, subtask+"|"+size)
	f.mu.Unlock()
	if f.phraseErr != nil {
		return "", f.phraseErr
	}
	return fmt.Sprintf("(%s) %s", size, strings.ToUpper(subtask)), nil
}

type logEntry struct {
	TaskType, Size, Outcome string
}

type fakeLog struct {
	mu      sync.Mutex
	entries []logEntry
	err     error
}

func (f *fakeLog) Log(_ context.Context, taskType, size, outcome string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, logEntry{taskType, size, outcome})
	return f.err
}

func clockAt(hour int) Option {
	return WithClock(func() time.Time {
		return time.Date(2026, 10, 16, hour, 0, 0, 0, time.Local)
	})
}

func steps(s ...string) func(string) ([]string, error) {
	return func(string) ([]string, error) { return s, nil }
}

func TestDecideSubtaskSize(t *testing.T) {
	for h := 0; h < 24; h++ {
		e := NewEngine(&fakeGateway{}, nil, nil, clockAt(h))
		want := SizeMedium
		if h >= 17 || h < 5 {
			want = SizeSmall
		}
		assert.Equal(t, want, e.DecideSubtaskSize(context.Background(), "general"), "hour %d", h)
	}
}

func TestDecideSubtaskSizeAdjuster(t *testing.T) {
	var seen string
	e := NewEngine(&fakeGateway{}, nil, nil, clockAt(10), WithSizeAdjuster(func(_ context.Context, taskType string, proposed Size) Size {
		seen = taskType
		assert.Equal(t, SizeMedium, proposed)
		return SizeSmall
	}))

	assert.Equal(t, SizeSmall, e.DecideSubtaskSize(context.Background(), "study"))
	assert.Equal(t, "study", seen)
}

func TestGetAdaptiveSubtaskEvening(t *testing.T) {
	gw := &fakeGateway{decompose: steps("open garage", "sort tools", "sweep")}
	lg := &fakeLog{}
	e := NewEngine(gw, lg, nil, clockAt(20))

	s, err := e.GetAdaptiveSubtask(context.Background(), "clean the garage", "chores")
	require.NoError(t, err)

	assert.Equal(t, SizeSmall, s.Size)
	assert.Equal(t, "(small) OPEN GARAGE", s.Subtask)
	assert.Equal(t, "open garage", s.OriginalSubtask)
	require.NotNil(t, s.Plan)
	assert.Equal(t, []string{"open garage", "sort tools", "sweep"}, s.Plan.AllSteps)
	assert.Equal(t, 0, s.Plan.CurrentIndex)
	assert.Equal(t, "clean the garage", s.Plan.OriginalTask)
	assert.Equal(t, "chores", s.Plan.TaskType)

	// one decomposition: the plan is the one the suggestion came from
	assert.Equal(t, []string{"clean the garage"}, gw.decomposed)
	assert.Equal(t, []logEntry{{"chores", "small", analytics.OutcomeSuggested}}, lg.entries)
}

func TestGetAdaptiveSubtaskEmptyDecomposition(t *testing.T) {
	gw := &fakeGateway{decompose: steps()}
	e := NewEngine(gw, &fakeLog{}, nil, clockAt(9))

	s, err := e.GetAdaptiveSubtask(context.Background(), "write the report", "")
	require.NoError(t, err)

	assert.Equal(t, "write the report", s.OriginalSubtask)
	assert.Equal(t, SizeMedium, s.Size)
	assert.Equal(t, []string{"write the report"}, s.Plan.AllSteps)
	assert.Equal(t, DefaultTaskType, s.Plan.TaskType)
}

func TestGetAdaptiveSubtaskPropagatesGatewayErrors(t *testing.T) {
	boom := errors.New("upstream 503")

	lg := &fakeLog{}
	e := NewEngine(&fakeGateway{decompose: func(string) ([]string, error) { return nil, boom }}, lg, nil, clockAt(9))
	_, err := e.GetAdaptiveSubtask(context.Background(), "x", "work")
	assert.ErrorIs(t, err, boom)

	e = NewEngine(&fakeGateway{decompose: steps("a"), phraseErr: boom}, lg, nil, clockAt(9))
	_, err = e.GetAdaptiveSubtask(context.Background(), "x", "work")
	assert.ErrorIs(t, err, boom)

	assert.Empty(t, lg.entries)
}

func TestGetAdaptiveSubtaskLogFailureIsIgnored(t *testing.T) {
	lg := &fakeLog{err: errors.New("disk full")}
	e := NewEngine(&fakeGateway{decompose: steps("a")}, lg, nil, clockAt(9))

	s, err := e.GetAdaptiveSubtask(context.Background(), "x", "work")
	require.NoError(t, err)
	assert.Equal(t, "a", s.OriginalSubtask)
	assert.Len(t, lg.entries, 1)
}
