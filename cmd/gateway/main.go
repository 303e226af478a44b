package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/MrErgashev/quiz-app/internal/account"
	api "github.com/MrErgashev/quiz-app/internal/api/http"
	"github.com/MrErgashev/quiz-app/internal/attempt"
	"github.com/MrErgashev/quiz-app/internal/auth"
	"github.com/MrErgashev/quiz-app/internal/bank"
	"github.com/MrErgashev/quiz-app/internal/config"
	"github.com/MrErgashev/quiz-app/internal/db"
	"github.com/MrErgashev/quiz-app/internal/examcfg"
	"github.com/MrErgashev/quiz-app/internal/results"
	"github.com/MrErgashev/quiz-app/internal/roster"
	"github.com/MrErgashev/quiz-app/internal/session"
	"github.com/MrErgashev/quiz-app/internal/storage"
)

type stores struct {
	banks    bank.Store
	examCfg  examcfg.Store
	roster   roster.Store
	accounts account.Store
	sessions session.Store
	attempts attempt.Store
	sink     results.Sink
}

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping failed: %v", err)
		}
		st.sessions = session.NewRedisStore(rdb)
	}

	engine := attempt.NewEngine(st.attempts, st.banks, st.examCfg, st.roster, st.sink, cfg.University)
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(pr chi.Router) {
		// Student auth
		pr.Post("/auth/login", api.LoginHandler(st.accounts, st.sessions, cfg.CookieSecure))
		pr.Post("/auth/logout", api.LogoutHandler(st.sessions, cfg.CookieSecure))
		pr.With(auth.RequireStudent(st.sessions, st.accounts, cfg.CookieSecure)).
			Get("/auth/me", api.MeHandler())
		pr.Post("/auth/teacher/login", api.TeacherLoginHandler(authSvc, cfg.AdminUser, cfg.AdminPassHash))

		// Public reads
		pr.Get("/exam-mode", api.GetExamModeHandler(st.examCfg))
		pr.Get("/config/public", api.PublicConfigHandler(st.examCfg))
		pr.Get("/roster/programs", api.ListProgramsHandler(st.roster))
		pr.Get("/roster/groups", api.ListGroupsHandler(st.roster))
		pr.Get("/roster/students", api.ListStudentsHandler(st.roster))

		// Attempt lifecycle
		pr.With(auth.RequireStudent(st.sessions, st.accounts, cfg.CookieSecure)).
			Post("/attempt/start", api.StartAttemptHandler(engine))
		pr.Get("/attempt/{attemptID}/questions", api.AttemptQuestionsHandler(engine))
		pr.Post("/attempt/{attemptID}/answer", api.SubmitAnswerHandler(engine))
		pr.Post("/attempt/{attemptID}/finish", api.FinishAttemptHandler(engine))
		pr.Get("/attempt/{attemptID}/status", api.AttemptStatusHandler(engine))

		// Teacher surface
		pr.Group(func(tr chi.Router) {
			tr.Use(auth.RequireTeacher(authSvc))
			tr.Post("/teacher/banks", api.UploadBankHandler(st.banks))
			tr.Get("/teacher/banks", api.ListBanksHandler(st.banks))
			tr.Delete("/teacher/banks/{bankID}", api.DeleteBankHandler(st.banks, st.examCfg))
			tr.Get("/teacher/config", api.GetConfigHandler(st.examCfg))
			tr.Post("/teacher/config", api.SetConfigHandler(st.examCfg, st.banks))
			tr.Post("/teacher/exam-mode", api.SetExamModeHandler(st.examCfg))
			tr.Get("/teacher/roster", api.GetRosterHandler(st.roster))
			tr.Post("/teacher/roster", api.SetRosterHandler(st.roster))
			tr.Post("/teacher/credentials/generate", api.GenerateCredentialsHandler(st.accounts, st.roster, cfg.University))
			tr.Get("/teacher/credentials", api.ListCredentialsHandler(st.accounts))
			tr.Get("/teacher/credentials/groups", api.CredentialGroupsHandler(st.roster))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (storage=%s)", cfg.HTTPAddr, cfg.StorageDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.StorageDriver == "file" {
		dir, err := storage.NewDir(cfg.DataDir)
		if err != nil {
			return stores{}, err
		}
		return stores{
			banks:    bank.NewFileStore(dir),
			examCfg:  examcfg.NewFileStore(dir),
			roster:   roster.NewFileStore(dir),
			accounts: account.NewFileStore(dir),
			sessions: session.NewFileStore(dir),
			attempts: attempt.NewFileStore(dir),
			sink:     results.NewFileSink(dir),
		}, nil
	}

	dbh, err := db.Open(ctx, db.Driver(cfg.StorageDriver), cfg.DBDSN)
	if err != nil {
		return stores{}, err
	}
	return stores{
		banks:    bank.NewSQLStore(dbh),
		examCfg:  examcfg.NewSQLStore(dbh),
		roster:   roster.NewSQLStore(dbh),
		accounts: account.NewSQLStore(dbh),
		sessions: session.NewSQLStore(dbh),
		attempts: attempt.NewSQLStore(dbh),
		sink:     results.NewSQLSink(dbh),
	}, nil
}
