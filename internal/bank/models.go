package bank

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("bank not found")

type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type Question struct {
	Text    string   `json:"question"`
	Options []Option `json:"options"`
}

// Clone returns a deep copy; attempts freeze their own copies and must never
// alias the stored bank.
func (q Question) Clone() Question {
	out := Question{Text: q.Text, Options: make([]Option, len(q.Options))}
	copy(out.Options, q.Options)
	return out
}

// CorrectIndex returns the index of the single correct option, or -1 when
// none or several are marked.
func (q Question) CorrectIndex() int {
	idx := -1
	for i, o := range q.Options {
		if !o.IsCorrect {
			continue
		}
		if idx >= 0 {
			return -1
		}
		idx = i
	}
	return idx
}

type Bank struct {
	ID          string     `json:"bank_id"`
	SubjectName string     `json:"subject_name"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Summary struct {
	ID             string    `json:"bank_id"`
	SubjectName    string    `json:"subject_name"`
	QuestionsCount int       `json:"questions_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// ValidateQuestions enforces the ingestion invariants: non-empty set, every
// question has text, at least two options, and exactly one option marked
// correct.
func ValidateQuestions(qs []Question) error {
	if len(qs) == 0 {
		return fmt.Errorf("%w: bank has no questions", ErrInvalid)
	}
	for i, q := range qs {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %d has empty text", ErrInvalid, i+1)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least 2 options", ErrInvalid, i+1)
		}
		correct := 0
		for j, o := range q.Options {
			if strings.TrimSpace(o.Text) == "" {
				return fmt.Errorf("%w: question %d option %d has empty text", ErrInvalid, i+1, j+1)
			}
			if o.IsCorrect {
				correct++
			}
		}
		if correct == 0 {
			return fmt.Errorf("%w: question %d has no correct option", ErrInvalid, i+1)
		}
		if correct > 1 {
			return fmt.Errorf("%w: question %d has %d correct options", ErrInvalid, i+1, correct)
		}
	}
	return nil
}

var ErrInvalid = errors.New("invalid bank")
