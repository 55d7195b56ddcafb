package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/cleanloop/platform/internal/auth"
	"github.com/cleanloop/platform/internal/complaint"
	"github.com/cleanloop/platform/internal/config"
	"github.com/cleanloop/platform/internal/events"
	httpmiddleware "github.com/cleanloop/platform/internal/http/middleware"
	"github.com/cleanloop/platform/internal/metrics"
	"github.com/cleanloop/platform/internal/notify"
	"github.com/cleanloop/platform/internal/payment"
	"github.com/cleanloop/platform/internal/pickup"
	"github.com/cleanloop/platform/internal/repo"
	"github.com/cleanloop/platform/internal/service"
	"github.com/cleanloop/platform/internal/storage"
	"github.com/cleanloop/platform/internal/subscription"
)

type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	users         *service.UserService
	pickups       *pickup.Service
	complaints    *complaint.Service
	subscriptions *subscription.Service
	payments      *payment.Service
	notifications *notify.Service
	streamer      *notify.Streamer
	events        *events.Repository
	metrics       *metrics.Repository
	storage       storage.Uploader
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter wires repositories, services and routes. The returned dispatcher
// is already started; callers stop it on shutdown.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *service.AuthService) (http.Handler, *notify.Dispatcher, error) {
	repository := repo.New(pool)

	eventRepo := events.NewRepository(pool)
	recorder := events.NewRecorder(pool, eventRepo)

	notifyRepo := notify.NewRepository(pool)
	publisher := notify.NewRedisPublisher(redisClient)
	notifyService := notify.NewService(notifyRepo, publisher)

	dispatcherLogger := log.With().Str("component", "dispatcher").Logger()
	dispatcher := notify.NewDispatcher(eventRepo, notifyRepo, publisher, cfg.Dispatcher, dispatcherLogger)
	dispatcher.Start(context.Background())

	streamerLogger := log.With().Str("component", "stream").Logger()

	var uploader storage.Uploader = storage.NoopUploader{}
	switch cfg.Storage.Provider {
	case "", "noop":
		// keeps the default uploader
	case "s3", "r2", "cloudflare-r2":
		s3Cfg := storage.S3Config{
			Endpoint:     cfg.Storage.S3Endpoint,
			Region:       cfg.Storage.S3Region,
			Bucket:       cfg.Storage.S3Bucket,
			AccessKey:    cfg.Storage.S3AccessKey,
			SecretKey:    cfg.Storage.S3SecretKey,
			PublicDomain: cfg.Storage.S3PublicURL,
		}
		s3Uploader, err := storage.NewS3Uploader(s3Cfg)
		if err != nil {
			return nil, nil, err
		}
		uploader = s3Uploader
	default:
		return nil, nil, errors.New("unknown STORAGE_PROVIDER")
	}

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		users:         service.NewUserService(repository),
		pickups:       pickup.NewService(pickup.NewRepository(pool), recorder),
		complaints:    complaint.NewService(complaint.NewRepository(pool), recorder),
		subscriptions: subscription.NewService(subscription.NewRepository(pool), notifyService),
		payments:      payment.NewService(payment.NewRepository(pool), notifyService),
		notifications: notifyService,
		streamer:      notify.NewStreamer(redisClient, streamerLogger),
		events:        eventRepo,
		metrics:       metrics.NewRepository(pool),
		storage:       uploader,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/healthz", h.Health)
		public.Get("/readyz", h.Ready)

		public.Route("/auth", func(a chi.Router) {
			a.Post("/register", h.Register)
			a.Post("/login", h.Login)
			a.Post("/refresh", h.Refresh)
			a.Post("/logout", h.Logout)
			a.Post("/password-reset/request", h.PasswordResetRequest)
			a.Post("/password-reset/confirm", h.PasswordResetConfirm)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(authService.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/me", h.Me)
		private.Patch("/me", h.UpdateMe)
		private.Get("/me/activity", h.MyActivity)

		private.Route("/notifications", func(n chi.Router) {
			n.Get("/", h.ListNotifications)
			n.Get("/unread-count", h.UnreadCount)
			n.Post("/{id}/read", h.MarkNotificationRead)
			n.Post("/read-all", h.MarkAllNotificationsRead)
			n.Get("/stream", h.StreamNotifications)
		})

		private.Route("/resident", func(res chi.Router) {
			res.Use(httpmiddleware.RequireRole(auth.RoleResident))

			res.Route("/pickups", func(p chi.Router) {
				p.With(httpmiddleware.RequireCapability(auth.CapRequestPickup)).Post("/", h.CreatePickup)
				p.Get("/", h.ListMyPickups)
				p.Get("/{id}", h.GetMyPickup)
				p.Get("/{id}/history", h.PickupHistory)
			})

			res.Route("/complaints", func(c chi.Router) {
				c.With(httpmiddleware.RequireCapability(auth.CapFileComplaint)).Post("/", h.CreateComplaint)
				c.Get("/", h.ListMyComplaints)
				c.Get("/{id}", h.GetMyComplaint)
			})

			res.Route("/subscriptions", func(s chi.Router) {
				s.Post("/", h.CreateSubscription)
				s.Get("/", h.ListMySubscriptions)
				s.Get("/active", h.ActiveSubscription)
				s.Post("/{id}/cancel", h.CancelMySubscription)
			})

			res.Route("/payments", func(p chi.Router) {
				p.Post("/", h.CreatePayment)
				p.Get("/", h.ListMyPayments)
			})
		})

		private.Route("/collector", func(col chi.Router) {
			col.Use(httpmiddleware.RequireRole(auth.RoleCollector))

			col.Route("/pickups", func(p chi.Router) {
				p.Get("/", h.ListAssignedPickups)
				p.With(httpmiddleware.RequireCapability(auth.CapUpdatePickup)).
					Patch("/{id}/status", h.UpdateAssignedPickupStatus)
			})
		})

		private.Route("/admin", func(adm chi.Router) {
			adm.Use(httpmiddleware.RequireRole(auth.RoleAdmin))

			adm.Route("/pickups", func(p chi.Router) {
				p.Get("/", h.AdminListPickups)
				p.Get("/{id}/history", h.PickupHistory)
				p.With(httpmiddleware.RequireCapability(auth.CapAssignPickup)).
					Post("/{id}/assign", h.AssignPickup)
				p.With(httpmiddleware.RequireCapability(auth.CapUpdatePickup)).
					Patch("/{id}/status", h.AdminUpdatePickupStatus)
			})

			adm.Route("/complaints", func(c chi.Router) {
				c.Get("/", h.AdminListComplaints)
				c.With(httpmiddleware.RequireCapability(auth.CapResolveComplaint)).
					Patch("/{id}", h.AdminUpdateComplaint)
			})

			adm.Route("/users", func(u chi.Router) {
				u.Use(httpmiddleware.RequireCapability(auth.CapManageUsers))
				u.Get("/", h.AdminListUsers)
				u.Get("/{id}", h.AdminGetUser)
				u.Post("/{id}/activate", h.AdminActivateUser)
				u.Post("/{id}/deactivate", h.AdminDeactivateUser)
			})

			adm.Route("/subscriptions", func(s chi.Router) {
				s.Patch("/{id}/status", h.AdminUpdateSubscriptionStatus)
			})

			adm.Route("/metrics", func(m chi.Router) {
				m.Use(httpmiddleware.RequireCapability(auth.CapViewMetrics))
				m.Get("/overview", h.MetricsOverview)
				m.Get("/", h.ListMetrics)
				m.Post("/", h.RecordMetric)
			})
		})
	})

	return r, dispatcher, nil
}

// Health answers liveness probes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready answers readiness probes, checking Postgres and Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "NOT_READY", "database unavailable", nil)
		return
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "NOT_READY", "redis unavailable", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) subjectUUID(r *http.Request) (uuid.UUID, error) {
	subject := httpmiddleware.GetSubject(r.Context())
	return uuid.Parse(subject)
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

func uuidParse(raw string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(raw))
}

// queryLimit reads ?limit= with a default, capping at 200.
func queryLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > 200 {
		return 200
	}
	return n
}
