package plantoken

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"nextstep-backend/internal/tasks"
)

var ErrMismatch = errors.New("plan state does not match plan_token")

type planClaims struct {
	AllSteps     []string `json:"all_steps"`
	CurrentIndex int      `json:"current_index"`
	OriginalTask string   `json:"original_task"`
	TaskType     string   `json:"task_type"`
	jwt.RegisteredClaims
}

// Signer signs the plan a client carries between calls. A Signer with an
// empty secret is disabled and signs nothing.
type Signer struct {
	secret   []byte
	required bool
	ttl      time.Duration
	now      func() time.Time
}

func New(secret string, required bool) *Signer {
	return &Signer{
		secret:   []byte(secret),
		required: required && secret != "",
		ttl:      7 * 24 * time.Hour,
		now:      time.Now,
	}
}

func (s *Signer) Enabled() bool  { return len(s.secret) > 0 }
func (s *Signer) Required() bool { return s.required }

func (s *Signer) Sign(p tasks.Plan) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	now := s.now()
	claims := planClaims{
		AllSteps:     p.AllSteps,
		CurrentIndex: p.CurrentIndex,
		OriginalTask: p.OriginalTask,
		TaskType:     p.TaskType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify checks the token signature and that it was issued for exactly p.
func (s *Signer) Verify(token string, p tasks.Plan) error {
	if !s.Enabled() {
		return nil
	}

	var claims planClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("invalid plan_token: %w", err)
	}

	taskType := p.TaskType
	if taskType == "" {
		taskType = tasks.DefaultTaskType
	}
	claimType := claims.TaskType
	if claimType == "" {
		claimType = tasks.DefaultTaskType
	}

	if !slices.Equal(claims.AllSteps, p.AllSteps) ||
		claims.CurrentIndex != p.CurrentIndex ||
		claims.OriginalTask != p.OriginalTask ||
		claimType != taskType {
		return ErrMismatch
	}
	return nil
}
