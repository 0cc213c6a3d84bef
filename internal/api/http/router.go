package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/virtlab-edu/virtlab/internal/attempt"
	"github.com/virtlab-edu/virtlab/internal/auth"
	"github.com/virtlab-edu/virtlab/internal/content"
	"github.com/virtlab-edu/virtlab/internal/enrollment"
	"github.com/virtlab-edu/virtlab/internal/rbac"
	"github.com/virtlab-edu/virtlab/internal/stats"
	"github.com/virtlab-edu/virtlab/internal/visibility"
)

type Deps struct {
	Auth     *auth.Service
	Catalog  content.Store
	Resolver *visibility.Resolver
	Engine   *attempt.Engine
	Stats    *stats.Service
	Dir      enrollment.Directory
}

// Mount wires the protected API (JWT -> identity in context -> RBAC) onto r.
func Mount(r chi.Router, d Deps) {
	r.Post("/auth/login", auth.LoginHandler(d.Auth))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.Require("content:view")).
			Get("/content", ListContentHandler(d.Catalog, d.Resolver))
		pr.With(rbac.Require("content:view")).
			Get("/content/{contentID}", GetContentHandler(d.Catalog, d.Resolver))
		pr.With(rbac.Require("content:create")).
			Post("/content", CreateContentHandler(d.Catalog))
		pr.With(rbac.Require("content:transition")).
			Post("/content/{contentID}/status", TransitionContentHandler(d.Catalog))

		pr.With(rbac.Require("attempt:start")).
			Post("/quizzes/{quizID}/attempts", StartAttemptHandler(d.Engine))
		pr.With(rbac.Require("attempt:submit")).
			Post("/quizzes/{quizID}/attempts/{attemptID}/submit", SubmitAttemptHandler(d.Engine))
		pr.With(rbac.RequireAny("attempt:submit", "attempt:abandon")).
			Post("/quizzes/{quizID}/attempts/{attemptID}/abandon", AbandonAttemptHandler(d.Engine))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", ListAttemptsHandler(d.Engine))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", GetAttemptHandler(d.Engine))

		pr.With(rbac.RequireAny("stats:view-own", "stats:view-all")).
			Get("/quizzes/{quizID}/stats", QuizStatsHandler(d.Stats, d.Catalog, d.Resolver))
		pr.With(rbac.RequireAny("stats:view-own", "stats:view-all")).
			Get("/classes/{classID}/stats", ClassStatsHandler(d.Stats, d.Dir))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })
}
