package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/trame/internal/trame/service"
	"github.com/aussiebroadwan/trame/internal/trame/store"
	"github.com/aussiebroadwan/trame/pkg/httpx"
	"github.com/aussiebroadwan/trame/pkg/slogx"

	_ "github.com/aussiebroadwan/trame/api/trame" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store             store.Store
	CredentialService *service.CredentialService
	SessionService    *service.SessionService
	NoteService       *service.NoteService
}

func NewRouter(
	buildVersion string,
	allowedOrigin string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}
	if allowedOrigin != "" {
		r.middlewares = append(r.middlewares, httpx.CORSMiddleware(allowedOrigin))
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerNote()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Trame Note Service API
//	@version		0.1.0
//	@description	Single-tenant note keeping service: one account, one note, edits
//	@description	coalesced server-side before they are persisted.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/trame
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Opaque session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /signup - strict rate limit by IP (one-time registration endpoint)
	signupHandler := &SignupHandler{
		CredentialService: r.CredentialService,
		SessionService:    r.SessionService,
	}
	r.Mux.Handle("POST /api/signup",
		httpx.Chain(signupHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /login - strict rate limit by IP (authentication attempts)
	loginHandler := &LoginHandler{
		CredentialService: r.CredentialService,
		SessionService:    r.SessionService,
	}
	r.Mux.Handle("POST /api/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /logout - authenticated, lenient limit
	logoutHandler := &LogoutHandler{
		SessionService: r.SessionService,
		NoteService:    r.NoteService,
	}
	r.Mux.Handle("POST /api/logout",
		httpx.Chain(logoutHandler,
			httpx.AuthnMiddleware(r.SessionService),
			httpx.RateLimitByAccount(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerNote() {
	h := &NoteHandler{NoteService: r.NoteService}

	securedGet := httpx.Chain(http.HandlerFunc(h.HandleGet),
		httpx.AuthnMiddleware(r.SessionService),
		httpx.RateLimitByAccount(httpx.LenientLimit),
	)

	securedPut := httpx.Chain(http.HandlerFunc(h.HandlePut),
		httpx.AuthnMiddleware(r.SessionService),
		httpx.RateLimitByAccount(httpx.LenientLimit),
	)

	chunksHandler := &ChunksHandler{NoteService: r.NoteService}
	securedChunks := httpx.Chain(chunksHandler,
		httpx.AuthnMiddleware(r.SessionService),
		httpx.RateLimitByAccount(httpx.LenientLimit),
	)

	r.Mux.Handle("GET /api/note", securedGet)
	r.Mux.Handle("PUT /api/note", securedPut)
	r.Mux.Handle("GET /api/note/chunks", securedChunks)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /api/health",
		httpx.Chain(HealthHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
