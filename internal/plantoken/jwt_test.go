package plantoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextstep-backend/internal/tasks"
)

var _ tasks.PlanSigner = (*Signer)(nil)

func testPlan() tasks.Plan {
	return tasks.Plan{
		AllSteps:     []string{"a", "b", "c"},
		CurrentIndex: 1,
		OriginalTask: "clean the garage",
		TaskType:     "chores",
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	s := New("secret", false)
	require.True(t, s.Enabled())

	token, err := s.Sign(testPlan())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, s.Verify(token, testPlan()))
}

func TestVerifyDetectsTampering(t *testing.T) {
	s := New("secret", true)
	token, err := s.Sign(testPlan())
	require.NoError(t, err)

	p := testPlan()
	p.CurrentIndex = 2
	assert.ErrorIs(t, s.Verify(token, p), ErrMismatch)

	p = testPlan()
	p.AllSteps = []string{"a", "b"}
	assert.ErrorIs(t, s.Verify(token, p), ErrMismatch)

	assert.Error(t, New("other", false).Verify(token, testPlan()))
	assert.Error(t, s.Verify("not-a-jwt", testPlan()))
}

func TestVerifyExpired(t *testing.T) {
	s := New("secret", false)
	s.now = func() time.Time { return time.Now().Add(-30 * 24 * time.Hour) }
	token, err := s.Sign(testPlan())
	require.NoError(t, err)

	s.now = time.Now
	assert.Error(t, s.Verify(token, testPlan()))
}

func TestDisabledSigner(t *testing.T) {
	s := New("", true)
	assert.False(t, s.Enabled())
	assert.False(t, s.Required())

	token, err := s.Sign(testPlan())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.NoError(t, s.Verify("anything", testPlan()))
}
