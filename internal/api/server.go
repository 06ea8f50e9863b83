package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/auth"
	"github.com/JakeFAU/bible-atlas-api/internal/clock"
	"github.com/JakeFAU/bible-atlas-api/internal/metrics"
	"github.com/JakeFAU/bible-atlas-api/internal/progress/sinks"
	"github.com/JakeFAU/bible-atlas-api/internal/service"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const progressPrefix = "/place/progress/"

// Services are the handlers' collaborators.
type Services struct {
	Auth         *service.AuthService
	Place        *service.PlaceService
	Scrape       *service.ScrapeService
	Proposal     *service.ProposalService
	Location     *service.LocationService
	Notification *service.NotificationService
	Report       *service.ReportService
	PlaceReport  *service.PlaceReportService
	PlaceType    *service.PlaceTypeService
	User         *service.UserService
}

// Subscriber opens per-user progress streams.
type Subscriber interface {
	Subscribe(userID int64) (<-chan sinks.Update, func())
}

// Options tunes the middleware stack.
type Options struct {
	CORSOrigins       []string
	RequestTimeout    time.Duration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// Heartbeat is the idle interval after which progress streams send a
	// comment line to keep proxies from closing them.
	Heartbeat time.Duration
}

// Server wires HTTP handlers to the service layer.
type Server struct {
	router   chi.Router
	svc      Services
	authn    *auth.Middleware
	progress Subscriber
	clock    clock.Clock
	validate *validator.Validate
	opts     Options
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	svc Services,
	tokens *auth.Tokens,
	progress Subscriber,
	clk clock.Clock,
	opts Options,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 15 * time.Second
	}
	s := &Server{
		svc:      svc,
		progress: progress,
		clock:    clk,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		opts:     opts,
		logger:   logger.Named("api"),
	}
	s.authn = auth.NewMiddleware(tokens, s.fail, logger)

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))
	r.Use(metrics.Middleware)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if opts.RateLimitRequests > 0 && opts.RateLimitWindow > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimitRequests, opts.RateLimitWindow))
	}
	if opts.RequestTimeout > 0 {
		r.Use(timeoutMiddleware(opts.RequestTimeout, func(r *http.Request) bool {
			return strings.HasPrefix(r.URL.Path, progressPrefix)
		}))
	}
	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Password sign-up and login carry a Basic header, and the public
	// location reads ignore credentials, so they skip AttachUser.
	attach := s.authn.AttachUser
	user := s.authn.RequireUser
	super := s.authn.MinimumRole(store.RoleSuper)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.Group(func(r chi.Router) {
			r.Use(attach)
			r.Post("/token/access", s.refreshToken)
			r.Post("/kakao", s.kakaoLogin)
			r.Post("/google", s.googleLogin)
			r.Post("/apple", s.appleLogin)
			r.With(user).Delete("/withdraw", s.withdraw)
		})
	})

	r.Route("/place", func(r chi.Router) {
		r.Use(attach)
		r.With(super).Post("/", s.createPlace)
		r.Get("/", s.listPlaces)
		r.Get("/rep-points", s.repPoints)
		r.Get("/prefix-count", s.prefixCounts)
		r.Get("/bible-count", s.bibleCounts)
		r.Get("/bible-verse", s.bibleVerse)
		r.With(user).Get("/me/ids", s.myCollectionIDs)
		r.Group(func(r chi.Router) {
			r.Use(super)
			r.Post("/scrap", s.scrape)
			r.Get("/scrap/jobs", s.listScrapeJobs)
			r.Get("/scrap/jobs/{jobId}", s.getScrapeJob)
			r.Post("/push", s.push)
		})
		r.Get("/progress/{userId}", s.streamProgress)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getPlace)
			r.Get("/geojson", s.placeGeoJSON)
			r.With(super).Patch("/", s.updatePlace)
			r.With(super).Delete("/", s.deletePlace)
			r.With(user).Post("/like", s.likePlace)
			r.With(user).Post("/save", s.savePlace)
			r.With(user).Put("/memo", s.upsertMemo)
			r.With(user).Delete("/memo", s.deleteMemo)
		})
	})

	r.Route("/proposal", func(r chi.Router) {
		r.Use(attach)
		r.Use(user)
		r.Post("/", s.createProposal)
		r.Get("/", s.listProposals)
		r.Get("/{id}", s.getProposal)
		r.Patch("/{id}", s.updateProposal)
		r.Delete("/{id}", s.deleteProposal)
		r.Post("/{id}/agreement", s.toggleAgreement)
		r.Post("/{id}/report", s.reportProposal)
	})

	r.Route("/location", func(r chi.Router) {
		r.Get("/", s.listLocations)
		r.Get("/within", s.locationsWithin)
		r.Get("/{id}", s.getLocation)
		r.Group(func(r chi.Router) {
			r.Use(attach, user)
			r.Post("/{id}/like", s.likeLocation)
			r.Post("/{id}/save", s.saveLocation)
			r.Post("/{id}/report", s.reportLocation)
		})
	})

	r.Route("/admin-location", func(r chi.Router) {
		r.Use(attach)
		r.Use(super)
		r.Post("/", s.createLocation)
		r.Patch("/{id}", s.updateLocation)
		r.Delete("/{id}", s.deleteLocation)
		r.Post("/proposals/{id}/apply", s.applyProposal)
	})

	r.Route("/notification", func(r chi.Router) {
		r.Use(attach)
		r.Use(user)
		r.With(super).Post("/", s.createNotification)
		r.Get("/", s.listNotifications)
		r.Get("/{id}", s.getNotification)
		r.Delete("/{id}", s.deleteNotification)
	})

	r.Route("/report", func(r chi.Router) {
		r.Use(attach)
		r.Post("/", s.createReport)
		r.Group(func(r chi.Router) {
			r.Use(super)
			r.Get("/", s.listReports)
			r.Get("/{id}", s.getReport)
			r.Patch("/{id}", s.updateReport)
			r.Delete("/{id}", s.deleteReport)
		})
	})

	r.Route("/place-report", func(r chi.Router) {
		r.Use(attach)
		r.Post("/", s.createPlaceReport)
		r.Group(func(r chi.Router) {
			r.Use(super)
			r.Get("/", s.listPlaceReports)
			r.Get("/{id}", s.getPlaceReport)
			r.Patch("/{id}", s.updatePlaceReport)
			r.Delete("/{id}", s.deletePlaceReport)
		})
	})

	r.Route("/place-type", func(r chi.Router) {
		r.Use(attach)
		r.Get("/", s.listPlaceTypes)
		r.Get("/{id}", s.getPlaceType)
		r.Group(func(r chi.Router) {
			r.Use(super)
			r.Post("/", s.createPlaceType)
			r.Patch("/{id}", s.updatePlaceType)
			r.Delete("/{id}", s.deletePlaceType)
		})
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(attach)
		r.Use(user)
		r.Get("/me", s.me)
		r.Get("/me/places", s.myPlaces)
		r.With(super).Get("/", s.listUsers)
		r.With(super).Get("/{id}", s.getUser)
		r.With(super).Delete("/{id}", s.deleteUser)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.clock.Now().Format(time.RFC3339),
	})
}
