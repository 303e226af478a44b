package attempt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/MrErgashev/quiz-app/internal/account"
	"github.com/MrErgashev/quiz-app/internal/bank"
	"github.com/MrErgashev/quiz-app/internal/examcfg"
	"github.com/MrErgashev/quiz-app/internal/results"
	"github.com/MrErgashev/quiz-app/internal/roster"
)

// answerGrace is how far past the attempt deadline answer submissions are
// still accepted, covering client clock skew and slow last-second saves.
const answerGrace = 30 * time.Second

// Store persists attempts. Implementations must provide two conditional
// writes: Create keeps at most one unfinished attempt per Key (returning the
// existing one on conflict), and Finish flips unfinished to finished at most
// once (the loser of a race reads back the winner's numbers).
type Store interface {
	Create(ctx context.Context, a Attempt) (Attempt, error)
	Get(ctx context.Context, id string) (Attempt, error)
	SaveAnswer(ctx context.Context, id string, questionIndex, chosenOption int, at time.Time) error
	Finish(ctx context.Context, id string, correctCount, scorePoints int, at time.Time) (Attempt, bool, error)
	CountFinished(ctx context.Context, k Key) (int, error)
}

// Engine drives the attempt lifecycle: NONE -> IN_PROGRESS -> FINISHED.
type Engine struct {
	attempts Store
	banks    bank.Store
	config   examcfg.Store
	roster   roster.Store
	sink     results.Sink

	university string

	now     func() time.Time
	newRand func() *rand.Rand
}

func NewEngine(attempts Store, banks bank.Store, config examcfg.Store, ros roster.Store, sink results.Sink, university string) *Engine {
	return &Engine{
		attempts:   attempts,
		banks:      banks,
		config:     config,
		roster:     ros,
		sink:       sink,
		university: university,
		now:        time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// Start creates an attempt for an authenticated account, or returns the
// account's existing unfinished attempt when a retry races the first call.
func (e *Engine) Start(ctx context.Context, acct account.Account) (string, error) {
	enabled, err := e.config.ExamMode(ctx)
	if err != nil {
		return "", err
	}
	if !enabled {
		return "", ErrExamModeDisabled
	}

	// Roster is re-checked on every start: credentials may outlive a
	// roster edit.
	ros, err := e.roster.Get(ctx)
	if err != nil {
		return "", err
	}
	program, ok := ros.Program(acct.ProgramID)
	if !ok {
		return "", fmt.Errorf("%w: program %s", ErrNotEligible, acct.ProgramID)
	}
	group, ok := program.Group(acct.GroupName)
	if !ok {
		return "", fmt.Errorf("%w: group %s", ErrNotEligible, acct.GroupName)
	}
	if !group.HasStudent(acct.FullName) {
		return "", fmt.Errorf("%w: %s", ErrNotEligible, acct.FullName)
	}

	cfg, err := e.config.Get(ctx)
	if err != nil {
		return "", err
	}

	key := Key{
		ProgramID:       acct.ProgramID,
		GroupName:       acct.GroupName,
		StudentFullname: acct.FullName,
		ExamDate:        group.ExamDate,
	}
	finished, err := e.attempts.CountFinished(ctx, key)
	if err != nil {
		return "", err
	}
	maxAttempts := cfg.MaxAttemptsPerStudent
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if finished >= maxAttempts {
		return "", fmt.Errorf("%w (%d/%d)", ErrAttemptLimit, finished, maxAttempts)
	}

	if len(cfg.BankIDs) == 0 {
		return "", fmt.Errorf("%w: no banks configured", examcfg.ErrInvalid)
	}
	if len(cfg.BankIDs)*cfg.QuestionsPerBank != cfg.TotalQuestions {
		return "", fmt.Errorf("%w: bank/question count mismatch", examcfg.ErrInvalid)
	}

	questions, err := e.assemble(ctx, cfg)
	if err != nil {
		return "", err
	}

	now := e.now().UTC()
	university := ros.University
	if university == "" {
		university = e.university
	}
	created, err := e.attempts.Create(ctx, Attempt{
		ID:                uuid.NewString(),
		University:        university,
		ProgramID:         acct.ProgramID,
		ProgramName:       program.ProgramName,
		GroupName:         acct.GroupName,
		StudentFullname:   acct.FullName,
		ExamDate:          group.ExamDate,
		StartedAt:         now,
		UpdatedAt:         now,
		DurationMinutes:   cfg.DurationMinutes,
		TotalQuestions:    cfg.TotalQuestions,
		PointsPerQuestion: cfg.PointsPerQuestion,
		Questions:         questions,
		Answers:           map[int]int{},
	})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// assemble draws questions_per_bank from each configured bank in order,
// shuffles each clone's options, then shuffles the concatenated list so one
// subject's questions don't arrive contiguously.
func (e *Engine) assemble(ctx context.Context, cfg examcfg.Config) ([]bank.Question, error) {
	rng := e.newRand()
	selected := make([]bank.Question, 0, cfg.TotalQuestions)
	for _, id := range cfg.BankIDs {
		b, err := e.banks.Get(ctx, id)
		if err != nil {
			if errors.Is(err, bank.ErrNotFound) {
				return nil, fmt.Errorf("%w: bank not found: %s", examcfg.ErrInvalid, id)
			}
			return nil, err
		}
		if len(b.Questions) < cfg.QuestionsPerBank {
			return nil, fmt.Errorf("%w: bank %s has too few questions", examcfg.ErrInvalid, id)
		}
		picked := sampleQuestions(rng, b.Questions, cfg.QuestionsPerBank)
		for i := range picked {
			shuffleOptions(rng, &picked[i])
		}
		selected = append(selected, picked...)
	}
	shuffleQuestions(rng, selected)
	return selected, nil
}

// QuestionView is the student projection of a frozen question: option order
// is the attempt's, correctness never leaves the server.
type QuestionView struct {
	Index    int          `json:"index"`
	Question string       `json:"question"`
	Options  []OptionView `json:"options"`
}

type OptionView struct {
	Text string `json:"text"`
}

type View struct {
	AttemptID       string         `json:"attempt_id"`
	University      string         `json:"university"`
	ProgramName     string         `json:"program_name"`
	GroupName       string         `json:"group_name"`
	StudentFullname string         `json:"student_fullname"`
	ExamDate        string         `json:"exam_date"`
	StartedAt       time.Time      `json:"started_at"`
	DurationMinutes int            `json:"duration_minutes"`
	TotalQuestions  int            `json:"total_questions"`
	Answers         map[int]int    `json:"answers"`
	Questions       []QuestionView `json:"questions"`
}

// Questions returns the attempt's frozen list with correctness stripped,
// plus the answers recorded so far, so a reloaded client can resume.
func (e *Engine) Questions(ctx context.Context, attemptID string) (View, error) {
	a, err := e.attempts.Get(ctx, attemptID)
	if err != nil {
		return View{}, err
	}
	qs := make([]QuestionView, len(a.Questions))
	for i, q := range a.Questions {
		opts := make([]OptionView, len(q.Options))
		for j, o := range q.Options {
			opts[j] = OptionView{Text: o.Text}
		}
		qs[i] = QuestionView{Index: i, Question: q.Text, Options: opts}
	}
	answers := a.Answers
	if answers == nil {
		answers = map[int]int{}
	}
	return View{
		AttemptID:       a.ID,
		University:      a.University,
		ProgramName:     a.ProgramName,
		GroupName:       a.GroupName,
		StudentFullname: a.StudentFullname,
		ExamDate:        a.ExamDate,
		StartedAt:       a.StartedAt,
		DurationMinutes: a.DurationMinutes,
		TotalQuestions:  a.TotalQuestions,
		Answers:         answers,
		Questions:       qs,
	}, nil
}

// Answer records (or overwrites) the choice for one question index.
// Submissions are accepted in any order and any number of times; the last
// write per index wins.
func (e *Engine) Answer(ctx context.Context, attemptID string, questionIndex int, chosen interface{}) error {
	a, err := e.attempts.Get(ctx, attemptID)
	if err != nil {
		return err
	}
	if a.Finished() {
		return ErrFinished
	}
	if now := e.now(); now.After(a.Deadline().Add(answerGrace)) {
		return ErrTimeExpired
	}
	if questionIndex < 0 || questionIndex >= len(a.Questions) {
		return fmt.Errorf("%w: question_index out of range", ErrInvalidInput)
	}
	opt, err := ParseChosenOption(chosen)
	if err != nil {
		return err
	}
	if opt < 0 || opt >= len(a.Questions[questionIndex].Options) {
		return fmt.Errorf("%w: chosen_option out of range", ErrInvalidInput)
	}
	return e.attempts.SaveAnswer(ctx, attemptID, questionIndex, opt, e.now().UTC())
}

// Finish transitions the attempt to FINISHED exactly once and returns the
// score. Calling it again (or losing the transition race) returns the
// already-computed result without rescoring.
func (e *Engine) Finish(ctx context.Context, attemptID string) (Result, error) {
	a, err := e.attempts.Get(ctx, attemptID)
	if err != nil {
		return Result{}, err
	}
	if a.Finished() {
		return storedResult(a), nil
	}

	correct := 0
	for i, q := range a.Questions {
		correctIdx := q.CorrectIndex()
		if correctIdx < 0 {
			continue
		}
		if chosen, ok := a.Answers[i]; ok && chosen == correctIdx {
			correct++
		}
	}
	score := correct * a.PointsPerQuestion
	if score < 0 {
		score = 0
	}

	finishedAt := e.now().UTC()
	final, won, err := e.attempts.Finish(ctx, attemptID, correct, score, finishedAt)
	if err != nil {
		return Result{}, err
	}
	if won {
		e.emitResult(ctx, final)
	}
	return storedResult(final), nil
}

func storedResult(a Attempt) Result {
	r := Result{TotalQuestions: len(a.Questions)}
	if a.CorrectCount != nil {
		r.CorrectCount = *a.CorrectCount
	}
	if a.ScorePoints != nil {
		r.ScorePoints = *a.ScorePoints
	}
	return r
}

// emitResult is best-effort: a sink failure is logged and swallowed, the
// attempt row already holds the score.
func (e *Engine) emitResult(ctx context.Context, a Attempt) {
	if e.sink == nil || a.FinishedAt == nil {
		return
	}
	timeSpent := int64(a.FinishedAt.Sub(a.StartedAt) / time.Second)
	if timeSpent < 0 {
		timeSpent = 0
	}
	row := results.Result{
		TestID:           a.TestID(),
		Fullname:         a.StudentFullname,
		Group:            a.GroupName,
		University:       a.University,
		Faculty:          a.ProgramName,
		Correct:          derefInt(a.CorrectCount),
		Total:            len(a.Questions),
		Score:            derefInt(a.ScorePoints),
		StartedAt:        a.StartedAt,
		FinishedAt:       *a.FinishedAt,
		TimeSpentSeconds: timeSpent,
	}
	if err := e.sink.Append(ctx, row); err != nil {
		log.Printf("results sink append failed for attempt %s: %v", a.ID, err)
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

type Status struct {
	AttemptID  string     `json:"attempt_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

func (e *Engine) Status(ctx context.Context, attemptID string) (Status, error) {
	a, err := e.attempts.Get(ctx, attemptID)
	if err != nil {
		return Status{}, err
	}
	return Status{AttemptID: a.ID, StartedAt: a.StartedAt, FinishedAt: a.FinishedAt}, nil
}
