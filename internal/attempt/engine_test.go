package attempt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrErgashev/quiz-app/internal/account"
	"github.com/MrErgashev/quiz-app/internal/bank"
	"github.com/MrErgashev/quiz-app/internal/examcfg"
	"github.com/MrErgashev/quiz-app/internal/results"
	"github.com/MrErgashev/quiz-app/internal/roster"
	"github.com/MrErgashev/quiz-app/internal/storage"
)

type recordingSink struct {
	mu   sync.Mutex
	rows []results.Result
	fail bool
}

func (s *recordingSink) Append(ctx context.Context, r results.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink unavailable")
	}
	s.rows = append(s.rows, r)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type fixture struct {
	engine   *Engine
	attempts Store
	banks    bank.Store
	config   examcfg.Store
	roster   roster.Store
	sink     *recordingSink
}

func makeBank(subject string, n, correctIdx int) bank.Bank {
	b := bank.Bank{ID: subject, SubjectName: subject, CreatedAt: time.Now().UTC()}
	for i := 0; i < n; i++ {
		q := bank.Question{Text: fmt.Sprintf("%s question %d", subject, i+1)}
		for j := 0; j < 4; j++ {
			q.Options = append(q.Options, bank.Option{
				Text:      fmt.Sprintf("%s q%d option %d", subject, i+1, j+1),
				IsCorrect: j == correctIdx,
			})
		}
		b.Questions = append(b.Questions, q)
	}
	return b
}

func defaultRoster() roster.Roster {
	return roster.Roster{
		University: "Oriental Universiteti",
		Programs: []roster.Program{
			{
				ProgramID:   "iqt",
				ProgramName: "Iqtisodiyot",
				Groups: []roster.Group{
					{
						GroupName: "IQT-101",
						ExamDate:  "2026-06-15",
						Students:  []string{"Aliyev Ali", "Valiyev Vali", "Karimova Zuhra"},
					},
				},
			},
		},
	}
}

func student(name string) account.Account {
	return account.Account{
		ID:        "acct-" + name,
		Login:     "IQT-101-001",
		FullName:  name,
		Program:   "Iqtisodiyot",
		ProgramID: "iqt",
		GroupName: "IQT-101",
		ExamDate:  "2026-06-15",
		Active:    true,
	}
}

func newFixture(t *testing.T, cfg examcfg.Config) *fixture {
	t.Helper()
	ctx := context.Background()

	dir, err := storage.NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("storage dir: %v", err)
	}
	f := &fixture{
		attempts: NewFileStore(dir),
		banks:    bank.NewFileStore(dir),
		config:   examcfg.NewFileStore(dir),
		roster:   roster.NewFileStore(dir),
		sink:     &recordingSink{},
	}

	if err := f.banks.Put(ctx, makeBank("b1", 3, 0)); err != nil {
		t.Fatalf("put bank b1: %v", err)
	}
	if err := f.banks.Put(ctx, makeBank("b2", 3, 1)); err != nil {
		t.Fatalf("put bank b2: %v", err)
	}
	if err := f.config.Set(ctx, cfg); err != nil {
		t.Fatalf("set config: %v", err)
	}
	if err := f.config.SetExamMode(ctx, true); err != nil {
		t.Fatalf("set exam mode: %v", err)
	}
	if err := f.roster.Set(ctx, defaultRoster()); err != nil {
		t.Fatalf("set roster: %v", err)
	}

	f.engine = NewEngine(f.attempts, f.banks, f.config, f.roster, f.sink, "Oriental Universiteti")
	return f
}

func scenarioConfig() examcfg.Config {
	return examcfg.Config{
		DurationMinutes:       10,
		TotalQuestions:        4,
		PointsPerQuestion:     2,
		QuestionsPerBank:      2,
		MaxAttemptsPerStudent: 1,
		BankIDs:               []string{"b1", "b2"},
	}
}

func TestStartSamplesExactCounts(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	id, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	a, err := f.attempts.Get(ctx, id)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if len(a.Questions) != 4 {
		t.Fatalf("got %d questions, want 4", len(a.Questions))
	}

	// exactly questions_per_bank per bank, no duplicates
	perBank := map[string]int{}
	seen := map[string]bool{}
	for _, q := range a.Questions {
		if seen[q.Text] {
			t.Fatalf("duplicate question sampled: %q", q.Text)
		}
		seen[q.Text] = true
		switch {
		case len(q.Text) >= 2 && q.Text[:2] == "b1":
			perBank["b1"]++
		case len(q.Text) >= 2 && q.Text[:2] == "b2":
			perBank["b2"]++
		default:
			t.Fatalf("question from unknown bank: %q", q.Text)
		}
	}
	if perBank["b1"] != 2 || perBank["b2"] != 2 {
		t.Fatalf("per-bank counts = %v, want 2 each", perBank)
	}
}

func TestStartDoesNotMutateBank(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	if _, err := f.engine.Start(ctx, student("Aliyev Ali")); err != nil {
		t.Fatalf("start: %v", err)
	}
	b, err := f.banks.Get(ctx, "b1")
	if err != nil {
		t.Fatalf("get bank: %v", err)
	}
	for i, q := range b.Questions {
		if q.CorrectIndex() != 0 {
			t.Fatalf("bank b1 question %d mutated: correct index %d", i, q.CorrectIndex())
		}
	}
}

func TestOptionShuffleVaries(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()
	cfg, _ := f.config.Get(ctx)

	// Statistical: across many assemblies the correct option should not be
	// stuck at one position.
	positions := map[int]int{}
	for i := 0; i < 60; i++ {
		qs, err := f.engine.assemble(ctx, cfg)
		if err != nil {
			t.Fatalf("assemble: %v", err)
		}
		for _, q := range qs {
			positions[q.CorrectIndex()]++
		}
	}
	if len(positions) < 2 {
		t.Fatalf("correct option position never varied: %v", positions)
	}
}

func TestQuestionsViewStripsCorrectness(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	id, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	view, err := f.engine.Questions(ctx, id)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(view.Questions) != 4 {
		t.Fatalf("view has %d questions, want 4", len(view.Questions))
	}
	for i, q := range view.Questions {
		if q.Index != i {
			t.Fatalf("question %d has index %d", i, q.Index)
		}
		for _, o := range q.Options {
			if o.Text == "" {
				t.Fatal("empty option text in view")
			}
		}
	}
	if view.DurationMinutes != 10 {
		t.Fatalf("duration %d, want 10", view.DurationMinutes)
	}
}

func TestQuestionsUnknownAttempt(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	if _, err := f.engine.Questions(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// answerAll submits the correct choice for every question.
func answerAll(t *testing.T, f *fixture, id string) {
	t.Helper()
	ctx := context.Background()
	a, err := f.attempts.Get(ctx, id)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	for i, q := range a.Questions {
		if err := f.engine.Answer(ctx, id, i, q.CorrectIndex()); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}
}

func TestScenarioAAllCorrect(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	id, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answerAll(t, f, id)

	res, err := f.engine.Finish(ctx, id)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	want := Result{ScorePoints: 8, CorrectCount: 4, TotalQuestions: 4}
	if res != want {
		t.Fatalf("result = %+v, want %+v", res, want)
	}
	if f.sink.count() != 1 {
		t.Fatalf("sink rows = %d, want 1", f.sink.count())
	}
	row := f.sink.rows[0]
	if row.TestID != "DAK_2026-06-15_iqt" || row.Score != 8 || row.Correct != 4 {
		t.Fatalf("sink row = %+v", row)
	}
}

func TestScenarioBNoAnswers(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	id, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := f.engine.Finish(ctx, id)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	want := Result{ScorePoints: 0, CorrectCount: 0, TotalQuestions: 4}
	if res != want {
		t.Fatalf("result = %+v, want %+v", res, want)
	}
}

func TestScenarioCDoubleStartReturnsSameAttempt(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	id1, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	id2, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("second start created a new attempt: %s vs %s", id1, id2)
	}
}

func TestScenarioDLetterOption(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	id, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.engine.Answer(ctx, id, 0, "B"); err != nil {
		t.Fatalf("answer with letter: %v", err)
	}
	a, _ := f.attempts.Get(ctx, id)
	if a.Answers[0] != 1 {
		t.Fatalf("answers[0] = %d, want 1", a.Answers[0])
	}
	if err := f.engine.Answer(ctx, id, 1, "c"); err != nil {
		t.Fatalf("answer with lowercase letter: %v", err)
	}
	a, _ = f.attempts.Get(ctx, id)
	if a.Answers[1] != 2 {
		t.Fatalf("answers[1] = %d, want 2", a.Answers[1])
	}
}

func TestAnswerOverwriteLastWins(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	id, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	a, _ := f.attempts.Get(ctx, id)
	correct := a.Questions[0].CorrectIndex()
	wrong := (correct + 1) % len(a.Questions[0].Options)

	if err := f.engine.Answer(ctx, id, 0, wrong); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	if err := f.engine.Answer(ctx, id, 0, correct); err != nil {
		t.Fatalf("second answer: %v", err)
	}

	res, err := f.engine.Finish(ctx, id)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if res.CorrectCount != 1 {
		t.Fatalf("correct count = %d, want 1 (latest answer must win)", res.CorrectCount)
	}
}

func TestAnswerValidation(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	id, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	cases := []struct {
		name   string
		index  int
		chosen interface{}
	}{
		{"negative index", -1, 0},
		{"index past end", 4, 0},
		{"option past end", 0, 99},
		{"negative option", 0, -1},
		{"letter past options", 0, "Z"},
		{"garbage string", 0, "maybe"},
		{"fractional number", 0, 1.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := f.engine.Answer(ctx, id, tc.index, tc.chosen); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestAnswerAfterFinishConflicts(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	id, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.engine.Finish(ctx, id); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := f.engine.Answer(ctx, id, 0, 0); !errors.Is(err, ErrFinished) {
		t.Fatalf("err = %v, want ErrFinished", err)
	}
}

func TestAnswerAfterDeadlineRejected(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	id, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	a, _ := f.attempts.Get(ctx, id)

	f.engine.now = func() time.Time {
		return a.StartedAt.Add(10*time.Minute + answerGrace + time.Second)
	}
	if err := f.engine.Answer(ctx, id, 0, 0); !errors.Is(err, ErrTimeExpired) {
		t.Fatalf("err = %v, want ErrTimeExpired", err)
	}
	// Finish is still accepted after the deadline (auto-submit path).
	if _, err := f.engine.Finish(ctx, id); err != nil {
		t.Fatalf("finish after deadline: %v", err)
	}
}

func TestFinishIdempotent(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	id, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answerAll(t, f, id)

	first, err := f.engine.Finish(ctx, id)
	if err != nil {
		t.Fatalf("first finish: %v", err)
	}
	second, err := f.engine.Finish(ctx, id)
	if err != nil {
		t.Fatalf("second finish: %v", err)
	}
	if first != second {
		t.Fatalf("finish not idempotent: %+v vs %+v", first, second)
	}
	if f.sink.count() != 1 {
		t.Fatalf("sink rows = %d, want exactly 1", f.sink.count())
	}
}

func TestFinishConcurrentSingleScoring(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	id, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answerAll(t, f, id)

	const n = 8
	resCh := make(chan Result, n)
	errCh := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := f.engine.Finish(ctx, id)
			if err != nil {
				errCh <- err
				return
			}
			resCh <- r
		}()
	}
	wg.Wait()
	close(resCh)
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent finish: %v", err)
	}
	want := Result{ScorePoints: 8, CorrectCount: 4, TotalQuestions: 4}
	for r := range resCh {
		if r != want {
			t.Fatalf("result = %+v, want %+v", r, want)
		}
	}
	if f.sink.count() != 1 {
		t.Fatalf("sink rows = %d, want exactly 1", f.sink.count())
	}
}

func TestSinkFailureDoesNotFailFinish(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	f.sink.fail = true
	ctx := context.Background()

	id, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := f.engine.Finish(ctx, id)
	if err != nil {
		t.Fatalf("finish must not fail on sink error: %v", err)
	}
	if res.TotalQuestions != 4 {
		t.Fatalf("result = %+v", res)
	}
}

func TestAttemptLimit(t *testing.T) {
	cfg := scenarioConfig()
	cfg.MaxAttemptsPerStudent = 2
	f := newFixture(t, cfg)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		id, err := f.engine.Start(ctx, student("Aliyev Ali"))
		if err != nil {
			t.Fatalf("start %d: %v", i+1, err)
		}
		if _, err := f.engine.Finish(ctx, id); err != nil {
			t.Fatalf("finish %d: %v", i+1, err)
		}
	}
	if _, err := f.engine.Start(ctx, student("Aliyev Ali")); !errors.Is(err, ErrAttemptLimit) {
		t.Fatalf("err = %v, want ErrAttemptLimit", err)
	}
}

func TestStartGates(t *testing.T) {
	ctx := context.Background()

	t.Run("exam mode off", func(t *testing.T) {
		f := newFixture(t, scenarioConfig())
		if err := f.config.SetExamMode(ctx, false); err != nil {
			t.Fatal(err)
		}
		if _, err := f.engine.Start(ctx, student("Aliyev Ali")); !errors.Is(err, ErrExamModeDisabled) {
			t.Fatalf("err = %v, want ErrExamModeDisabled", err)
		}
	})

	t.Run("student removed from roster", func(t *testing.T) {
		f := newFixture(t, scenarioConfig())
		if _, err := f.engine.Start(ctx, student("Somebody Else")); !errors.Is(err, ErrNotEligible) {
			t.Fatalf("err = %v, want ErrNotEligible", err)
		}
	})

	t.Run("unknown program", func(t *testing.T) {
		f := newFixture(t, scenarioConfig())
		acct := student("Aliyev Ali")
		acct.ProgramID = "ghost"
		if _, err := f.engine.Start(ctx, acct); !errors.Is(err, ErrNotEligible) {
			t.Fatalf("err = %v, want ErrNotEligible", err)
		}
	})

	t.Run("inconsistent config", func(t *testing.T) {
		f := newFixture(t, scenarioConfig())
		broken := scenarioConfig()
		broken.TotalQuestions = 7
		if err := f.config.Set(ctx, broken); err != nil {
			t.Fatal(err)
		}
		if _, err := f.engine.Start(ctx, student("Aliyev Ali")); !errors.Is(err, examcfg.ErrInvalid) {
			t.Fatalf("err = %v, want examcfg.ErrInvalid", err)
		}
	})
}

func TestConfigSnapshotImmuneToEdits(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	id, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	changed := scenarioConfig()
	changed.PointsPerQuestion = 100
	changed.DurationMinutes = 1
	if err := f.config.Set(ctx, changed); err != nil {
		t.Fatal(err)
	}

	answerAll(t, f, id)
	res, err := f.engine.Finish(ctx, id)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if res.ScorePoints != 8 {
		t.Fatalf("score = %d, want 8 (points copied at start)", res.ScorePoints)
	}
}

func TestParseChosenOption(t *testing.T) {
	cases := []struct {
		in      interface{}
		want    int
		wantErr bool
	}{
		{0, 0, false},
		{3, 3, false},
		{float64(2), 2, false},
		{"A", 0, false},
		{"b", 1, false},
		{" C ", 2, false},
		{"D", 3, false},
		{"2", 2, false},
		{2.5, 0, true},
		{"E", 0, true},
		{nil, 0, true},
		{true, 0, true},
	}
	for _, tc := range cases {
		got, err := ParseChosenOption(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseChosenOption(%v): want error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseChosenOption(%v): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseChosenOption(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(t, scenarioConfig())
	ctx := context.Background()

	id, err := f.engine.Start(ctx, student("Aliyev Ali"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	st, err := f.engine.Status(ctx, id)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.FinishedAt != nil {
		t.Fatal("fresh attempt reports finished")
	}
	if _, err := f.engine.Finish(ctx, id); err != nil {
		t.Fatal(err)
	}
	st, err = f.engine.Status(ctx, id)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.FinishedAt == nil {
		t.Fatal("finished attempt reports unfinished")
	}
}
