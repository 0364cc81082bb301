package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"falcon-hq/api/handlers"
	"falcon-hq/core/ratelimit"
	"falcon-hq/core/rbac"
)

func (s *Server) registerRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.realIPMiddleware)
	s.router.Use(s.gatekeeperMiddleware)
	s.router.Use(s.securityHeadersMiddleware)
	// Catch-all ceiling; routes with their own class add a tighter window
	// on top of it.
	s.router.Use(s.rateLimitMiddleware(ratelimit.Default))

	authHandler := handlers.NewAuthHandler(s.cfg, s.sessions, s.policy, s.logger)
	adminHandler := handlers.NewAdminHandler(s.bans, s.activity, s.banCache, s.logger)
	accountsHandler := handlers.NewAccountsHandler(s.users)
	agentsHandler := handlers.NewAgentsHandler(s.agents)
	operationsHandler := handlers.NewOperationsHandler(s.operations)
	intelHandler := handlers.NewIntelHandler(s.intel)
	newsHandler := handlers.NewNewsHandler(s.news)
	albumsHandler := handlers.NewAlbumsHandler(s.albums)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(s.rateLimitMiddleware(ratelimit.APIWrite)).Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/verify-otp", authHandler.VerifyOTP)
			r.With(s.withSession).Post("/logout", authHandler.Logout)
			r.With(s.withSession).Get("/me", authHandler.Me)
			r.With(s.withSession).Post("/change-password", authHandler.ChangePassword)
		})

		// Anonymous presence pings from the public site; only counted.
		r.With(s.rateLimitMiddleware(ratelimit.Beacon)).Post("/beacon", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.withSession)
			r.With(s.requirePermission(rbac.PermBansManage)).Get("/bans", adminHandler.ListBans)
			r.With(s.requirePermission(rbac.PermBansManage)).Post("/bans", adminHandler.CreateBan)
			r.With(s.requirePermission(rbac.PermBansManage)).Delete("/bans/{ip}", adminHandler.DeleteBan)
			r.With(s.requirePermission(rbac.PermActivityView)).Get("/login-activity", adminHandler.ListLoginActivity)
			r.With(s.requirePermission(rbac.PermActivityView)).Get("/login-activity/stats", adminHandler.LoginActivityStats)
			r.With(s.requirePermission(rbac.PermAccountsManage)).Get("/users", accountsHandler.List)
			r.With(s.requirePermission(rbac.PermAccountsManage)).Put("/users/{id}/role", accountsHandler.SetRole)
			r.With(s.requirePermission(rbac.PermAccountsManage)).Put("/users/{id}/agent", accountsHandler.LinkAgent)
		})

		s.crudRoutes(r, "/agents", crudHandlers{
			list: agentsHandler.List, get: agentsHandler.Get,
			create: agentsHandler.Create, update: agentsHandler.Update, del: agentsHandler.Delete,
			view: rbac.PermAgentsView, edit: rbac.PermAgentsManage,
		})
		s.crudRoutes(r, "/operations", crudHandlers{
			list: operationsHandler.List, get: operationsHandler.Get,
			create: operationsHandler.Create, update: operationsHandler.Update, del: operationsHandler.Delete,
			view: rbac.PermOperationsView, edit: rbac.PermOperationsEdit,
		})
		s.crudRoutes(r, "/intel", crudHandlers{
			list: intelHandler.List, get: intelHandler.Get,
			create: intelHandler.Create, update: intelHandler.Update, del: intelHandler.Delete,
			view: rbac.PermIntelView, edit: rbac.PermIntelEdit,
		})
		s.crudRoutes(r, "/news", crudHandlers{
			list: newsHandler.List, get: newsHandler.Get,
			create: newsHandler.Create, update: newsHandler.Update, del: newsHandler.Delete,
			view: rbac.PermNewsView, edit: rbac.PermNewsEdit,
		})
		s.crudRoutes(r, "/albums", crudHandlers{
			list: albumsHandler.List, get: albumsHandler.Get,
			create: albumsHandler.Create, update: albumsHandler.Update, del: albumsHandler.Delete,
			view: rbac.PermAlbumsView, edit: rbac.PermAlbumsEdit,
			// Album writes carry media, so they get the upload budget
			// instead of the generic write one.
			writeClass: ratelimit.Upload,
		})
	})
}

type crudHandlers struct {
	list, get, create, update, del http.HandlerFunc
	view, edit                     rbac.Permission
	writeClass                     ratelimit.Config
}

// crudRoutes mounts one directory resource: reads behind the view
// permission and the api_read class, writes behind edit and api_write
// unless the resource names its own write class.
func (s *Server) crudRoutes(r chi.Router, pattern string, h crudHandlers) {
	writeClass := h.writeClass
	if writeClass.Name == "" {
		writeClass = ratelimit.APIWrite
	}
	r.Route(pattern, func(r chi.Router) {
		r.Use(s.withSession)
		read := r.With(s.requirePermission(h.view), s.rateLimitMiddleware(ratelimit.APIRead))
		read.Get("/", h.list)
		read.Get("/{id}", h.get)
		write := r.With(s.requirePermission(h.edit), s.rateLimitMiddleware(writeClass))
		write.Post("/", h.create)
		write.Put("/{id}", h.update)
		write.Delete("/{id}", h.del)
	})
}
