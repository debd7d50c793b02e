package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/medsyncsaude/api/internal/alerta"
	"github.com/medsyncsaude/api/internal/chat"
	"github.com/medsyncsaude/api/internal/clinica"
	"github.com/medsyncsaude/api/internal/config"
	"github.com/medsyncsaude/api/internal/equipe"
	"github.com/medsyncsaude/api/internal/escala"
	httpmiddleware "github.com/medsyncsaude/api/internal/http/middleware"
	"github.com/medsyncsaude/api/internal/organizacao"
	"github.com/medsyncsaude/api/internal/secret"
	"github.com/medsyncsaude/api/internal/service"
	"github.com/medsyncsaude/api/internal/smtp"
	"github.com/medsyncsaude/api/internal/storage"
)

// Handler agrega dependências dos handlers HTTP.
type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	orgs          *organizacao.Service
	clinicas      *clinica.Service
	equipes       *equipe.Service
	escalas       *escala.Service
	chat          *chat.Service
	smtp          *smtp.Service
	alerta        *alerta.Service
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// NewRouter monta serviços e devolve roteador configurado.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *service.AuthService) (http.Handler, error) {
	cipher, err := secret.NewCipher(cfg.SMTPSecretKey)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}

	var store storage.Storage = storage.NoopStorage{}
	switch cfg.Storage.Provider {
	case "", "noop":
		// mantém storage padrão
	case "s3", "r2", "cloudflare-r2":
		store, err = storage.NewS3Storage(storage.S3Config{
			Endpoint:     cfg.Storage.S3Endpoint,
			Region:       cfg.Storage.S3Region,
			Bucket:       cfg.Storage.S3Bucket,
			AccessKey:    cfg.Storage.S3AccessKey,
			SecretKey:    cfg.Storage.S3SecretKey,
			PublicDomain: cfg.Storage.S3PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
	default:
		return nil, fmt.Errorf("storage: provedor %s não suportado", cfg.Storage.Provider)
	}

	orgService := organizacao.NewService(organizacao.NewRepository(pool))
	clinicaService := clinica.NewService(clinica.NewRepository(pool))
	equipeService := equipe.NewService(equipe.NewRepository(pool))

	escalaRepo := escala.NewRepository(pool)
	escalaService := escala.NewService(escalaRepo)

	smtpRepo := smtp.NewRepository(pool)
	smtpService := smtp.NewService(smtpRepo, cipher, smtp.NewGomailSender())

	chatService := chat.NewService(chat.NewRepository(pool), orgService, store)

	alertaLogger := log.With().Str("component", "alerta").Logger()
	var notifiers alerta.MultiNotifier
	if webhook := alerta.NewWebhookNotifier(cfg.Alerta.WebhookURL); webhook != nil {
		notifiers = append(notifiers, webhook)
	}
	notifiers = append(notifiers, alerta.NewEmailNotifier(smtpRepo, cipher))
	alertaService := alerta.NewService(escalaRepo, cfg.Alerta, alertaLogger, notifiers)
	alertaService.Start(context.Background())

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		orgs:          orgService,
		clinicas:      clinicaService,
		equipes:       equipeService,
		escalas:       escalaService,
		chat:          chatService,
		smtp:          smtpService,
		alerta:        alertaService,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:    cfg.DevCookies,
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Metrics)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)
		public.Handle("/metrics", promhttp.Handler())

		public.Route("/api/auth", func(auth chi.Router) {
			auth.Post("/login", h.Login)
			auth.Post("/register", h.Register)
			auth.Post("/refresh", h.Refresh)
			auth.Post("/logout", h.Logout)
		})
	})

	r.Route("/api", func(private chi.Router) {
		private.Use(httpmiddleware.Auth(authService.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/me", h.Me)
		private.Patch("/me", h.UpdateMe)

		private.Route("/organizations", func(o chi.Router) {
			o.Get("/", h.ListOrganizacoes)
			o.Post("/", h.CreateOrganizacao)
			o.Get("/{id}", h.GetOrganizacao)
			o.Patch("/{id}", h.UpdateOrganizacao)
			o.Post("/{id}/members", h.AddMembro)
			o.Delete("/{id}/members/{userID}", h.RemoveMembro)
		})

		private.Route("/clinics", func(c chi.Router) {
			c.Get("/", h.ListClinicas)
			c.Post("/", h.CreateClinica)
			c.Get("/{id}", h.GetClinica)
			c.Patch("/{id}", h.UpdateClinica)
			c.Delete("/{id}", h.DeleteClinica)
			c.Get("/{id}/sectors", h.ListSetores)
			c.Post("/{id}/sectors", h.CreateSetor)
			c.Delete("/{id}/sectors/{sectorID}", h.DeleteSetor)
		})

		private.Route("/staff", func(s chi.Router) {
			s.Get("/", h.ListProfissionais)
			s.Post("/", h.CreateProfissional)
			s.Get("/specialties", h.ListEspecialidades)
			s.Get("/{id}", h.GetProfissional)
			s.Patch("/{id}", h.UpdateProfissional)
			s.Post("/{id}/link", h.VincularProfissional)
			s.Delete("/{id}/link", h.DesvincularProfissional)
		})

		private.Route("/shifts", func(s chi.Router) {
			s.Get("/", h.ListPlantoes)
			s.Get("/grouped", h.ListPlantoesAgrupados)
			s.Post("/", h.CreatePlantao)
			s.Patch("/{id}", h.UpdatePlantao)
			s.Patch("/{id}/status", h.UpdatePlantaoStatus)
			s.Delete("/{id}", h.DeletePlantao)
		})

		private.Route("/recurring-schedules", func(s chi.Router) {
			s.Get("/", h.ListEscalasFixas)
			s.Post("/", h.CreateEscalaFixa)
			s.Delete("/{id}", h.DeleteEscalaFixa)
			s.Post("/{id}/generate", h.GerarPlantoes)
		})

		private.Route("/chat/attachments", func(c chi.Router) {
			c.Post("/", h.UploadAnexo)
			c.Get("/", h.ListAnexos)
			c.Get("/pending", h.ListAnexosPendentes)
			c.Post("/{id}/approve", h.AprovarAnexo)
			c.Post("/{id}/reject", h.RejeitarAnexo)
			c.Get("/{id}/download", h.DownloadAnexo)
		})

		private.Route("/smtp-settings", func(s chi.Router) {
			s.Get("/", h.GetSMTPSettings)
			s.Post("/", h.CreateSMTPSettings)
			s.Patch("/", h.UpdateSMTPSettings)
			s.Post("/test-connection", h.TestSMTPConnection)
		})
	})

	return r, nil
}
