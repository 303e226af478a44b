package examcfg

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrErgashev/quiz-app/internal/bank"
)

var ErrInvalid = errors.New("invalid config")

const MaxAttemptsCeiling = 10

// Config is the teacher-set exam composition. Attempts copy the values they
// need at start time, so edits never touch in-flight attempts.
type Config struct {
	DurationMinutes       int      `json:"duration_minutes"`
	TotalQuestions        int      `json:"total_questions"`
	PointsPerQuestion     int      `json:"points_per_question"`
	QuestionsPerBank      int      `json:"questions_per_bank"`
	MaxAttemptsPerStudent int      `json:"max_attempts_per_student"`
	BankIDs               []string `json:"bank_ids"`
}

func Default() Config {
	return Config{
		DurationMinutes:       80,
		TotalQuestions:        50,
		PointsPerQuestion:     2,
		QuestionsPerBank:      10,
		MaxAttemptsPerStudent: 1,
		BankIDs:               []string{},
	}
}

// Validate checks the config against the current banks. Constraints are
// checked in a fixed order and the first violation is reported.
func Validate(ctx context.Context, c Config, banks bank.Store) error {
	if c.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration_minutes must be > 0", ErrInvalid)
	}
	if c.TotalQuestions <= 0 {
		return fmt.Errorf("%w: total_questions must be > 0", ErrInvalid)
	}
	if c.PointsPerQuestion <= 0 {
		return fmt.Errorf("%w: points_per_question must be > 0", ErrInvalid)
	}
	if c.QuestionsPerBank <= 0 {
		return fmt.Errorf("%w: questions_per_bank must be > 0", ErrInvalid)
	}
	if c.MaxAttemptsPerStudent <= 0 || c.MaxAttemptsPerStudent > MaxAttemptsCeiling {
		return fmt.Errorf("%w: max_attempts_per_student must be 1..%d", ErrInvalid, MaxAttemptsCeiling)
	}
	seen := map[string]bool{}
	for _, id := range c.BankIDs {
		if seen[id] {
			return fmt.Errorf("%w: bank_ids must be unique", ErrInvalid)
		}
		seen[id] = true
	}
	if len(c.BankIDs)*c.QuestionsPerBank != c.TotalQuestions {
		return fmt.Errorf("%w: len(bank_ids) * questions_per_bank must equal total_questions", ErrInvalid)
	}
	for _, id := range c.BankIDs {
		b, err := banks.Get(ctx, id)
		if err != nil {
			if errors.Is(err, bank.ErrNotFound) {
				return fmt.Errorf("%w: bank not found: %s", ErrInvalid, id)
			}
			return err
		}
		if len(b.Questions) < c.QuestionsPerBank {
			return fmt.Errorf("%w: bank %s has fewer than %d questions", ErrInvalid, id, c.QuestionsPerBank)
		}
	}
	return nil
}
