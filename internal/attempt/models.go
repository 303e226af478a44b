package attempt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrErgashev/quiz-app/internal/bank"
)

var (
	ErrNotFound     = errors.New("attempt not found")
	ErrFinished     = errors.New("attempt already finished")
	ErrTimeExpired  = errors.New("attempt time is over")
	ErrInvalidInput = errors.New("invalid input")

	ErrExamModeDisabled = errors.New("exam mode is off")
	ErrNotEligible      = errors.New("student not found in roster")
	ErrAttemptLimit     = errors.New("attempt limit exceeded")
)

// Key identifies one student's sitting slot. At most one unfinished attempt
// may exist per key.
type Key struct {
	ProgramID       string
	GroupName       string
	StudentFullname string
	ExamDate        string
}

// Attempt is the frozen record of one sitting. Questions and the copied
// config values never change after creation; answers mutate until
// FinishedAt is set, after which the whole record is immutable.
type Attempt struct {
	ID string `json:"attempt_id"`

	University      string `json:"university"`
	ProgramID       string `json:"program_id"`
	ProgramName     string `json:"program_name"`
	GroupName       string `json:"group_name"`
	StudentFullname string `json:"student_fullname"`
	ExamDate        string `json:"exam_date"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	DurationMinutes   int `json:"duration_minutes"`
	TotalQuestions    int `json:"total_questions"`
	PointsPerQuestion int `json:"points_per_question"`

	Questions []bank.Question `json:"questions"`
	Answers   map[int]int     `json:"answers"`

	CorrectCount *int `json:"correct_count"`
	ScorePoints  *int `json:"score_points"`
}

func (a Attempt) Key() Key {
	return Key{
		ProgramID:       a.ProgramID,
		GroupName:       a.GroupName,
		StudentFullname: a.StudentFullname,
		ExamDate:        a.ExamDate,
	}
}

func (a Attempt) Finished() bool { return a.FinishedAt != nil }

func (a Attempt) Deadline() time.Time {
	return a.StartedAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// TestID tags result rows: one logical exam per (exam_date, program).
func (a Attempt) TestID() string {
	return fmt.Sprintf("DAK_%s_%s", a.ExamDate, a.ProgramID)
}

// Result is what Finish returns, same for the winner and every retry.
type Result struct {
	ScorePoints    int `json:"score_points"`
	CorrectCount   int `json:"correct_count"`
	TotalQuestions int `json:"total_questions"`
}

// ParseChosenOption accepts a numeric option index or a single letter A-D
// (case-insensitive, A=0..D=3). JSON numbers arrive as float64.
func ParseChosenOption(v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case float64:
		if x != float64(int(x)) {
			return 0, fmt.Errorf("%w: chosen_option must be an integer", ErrInvalidInput)
		}
		return int(x), nil
	case string:
		s := strings.ToUpper(strings.TrimSpace(x))
		switch s {
		case "A":
			return 0, nil
		case "B":
			return 1, nil
		case "C":
			return 2, nil
		case "D":
			return 3, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%w: chosen_option %q", ErrInvalidInput, x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: chosen_option has unsupported type", ErrInvalidInput)
	}
}
