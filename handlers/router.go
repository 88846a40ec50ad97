package handlers

import (
	"context"

	"precisionpulse/config"
	"precisionpulse/controller"
	"precisionpulse/middleware"
	"precisionpulse/models"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RouterDeps is everything NewRouter wires together.
type RouterDeps struct {
	Config   *config.Config
	Services *controller.Services
	Files    FileOpener
	Ping     func(ctx context.Context) error
	Logger   *zap.Logger
}

func NewRouter(d RouterDeps) chi.Router {
	log := d.Logger.Named("http")
	svc := d.Services

	authHandler := NewAuthHandler(d.Config, svc.Users, svc.Policy, log)
	actions := NewActionHandler(svc, log)
	exports := NewExportHandler(svc.Export, svc.Backup, log)
	files := NewFileHandler(d.Files, log)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.RequestLogger(log))
	router.Use(chimiddleware.Recoverer)

	// Public routes
	router.Get("/healthz", Health(d.Ping))
	router.Get("/files/{bucket}/*", files.Download)

	router.Route("/api", func(api chi.Router) {
		api.Post("/login", authHandler.Login)

		// Protected routes
		api.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(svc.Users))
			r.Use(middleware.RequirePasswordChange)

			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
			r.Post("/change-password", authHandler.ChangePassword)
			r.Get("/scope", authHandler.Scope)

			r.Route("/containers", func(r chi.Router) {
				r.Post("/quote", actions.QuoteContainer)
				NewRecordHandler[models.Container, controller.ContainerInput](svc.Containers, log).Mount(r)
			})
			r.Route("/workforce", func(r chi.Router) {
				NewRecordHandler[models.WorkforcePerson, controller.WorkforceInput](svc.Workforce, log).Mount(r)
			})
			r.Route("/candidates", func(r chi.Router) {
				NewRecordHandler[models.Candidate, controller.CandidateInput](svc.Candidates, log).Mount(r)
				r.Post("/{id}/stage", actions.MoveCandidateStage)
			})
			r.Route("/injury-reports", func(r chi.Router) {
				NewRecordHandler[models.InjuryReport, controller.InjuryReportInput](svc.InjuryReports, log).Mount(r)
				r.Post("/{id}/submit", actions.SubmitInjuryReport)
				r.Post("/{id}/close", actions.CloseInjuryReport)
				r.Get("/{id}/files", actions.ListInjuryFiles)
				r.Post("/{id}/files", actions.UploadInjuryFile)
			})
			r.Route("/checklists", func(r chi.Router) {
				NewRecordHandler[models.StartupChecklist, controller.ChecklistInput](svc.Checklists, log).Mount(r)
				r.Post("/{id}/complete", actions.CompleteChecklist)
			})
			r.Route("/terminations", func(r chi.Router) {
				NewRecordHandler[models.TerminationRecord, controller.TerminationInput](svc.Terminations, log).Mount(r)
			})
			r.Route("/damage-reports", func(r chi.Router) {
				NewRecordHandler[models.DamageReport, controller.DamageReportInput](svc.DamageReports, log).Mount(r)
			})
			r.Route("/chat", func(r chi.Router) {
				r.Get("/", actions.ListChat)
				r.Post("/", actions.PostChat)
				r.Post("/{id}/pin", actions.TogglePin)
				r.Delete("/{id}", actions.DeleteChat)
			})

			r.Get("/export/containers", exports.ExportContainers)

			// Super Admin only routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleSuperAdmin))
				r.Get("/users", authHandler.ListUsers)
				r.Post("/users", authHandler.CreateUser)
				r.Patch("/users/{id}", authHandler.UpdateUser)
				r.Get("/backup", exports.Backup)
				r.Post("/backup", exports.Restore)
			})
		})
	})

	return router
}
