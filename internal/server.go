package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/keepfit/keepfit/internal/aiparse"
	"github.com/keepfit/keepfit/internal/config"
	"github.com/keepfit/keepfit/internal/db"
	"github.com/keepfit/keepfit/internal/export"
	"github.com/keepfit/keepfit/internal/middleware"
	"github.com/keepfit/keepfit/internal/profile"
	"github.com/keepfit/keepfit/internal/recommend"
	"github.com/keepfit/keepfit/internal/telemetry/metrics"
	metricsmiddleware "github.com/keepfit/keepfit/internal/telemetry/metrics/middleware"
	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training/calendar"
	"github.com/keepfit/keepfit/internal/training/diary"
	"github.com/keepfit/keepfit/internal/training/plans"
	"github.com/keepfit/keepfit/internal/training/progress"
	"github.com/keepfit/keepfit/internal/training/schedules"
	"github.com/keepfit/keepfit/internal/training/workouts"
	"github.com/keepfit/keepfit/internal/usersession"
	"github.com/keepfit/keepfit/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient    *redis.Client
	sessionService *usersession.Service

	textParser *aiparse.Parser

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	RedisPassword           string
	OpenAIAPIKey            string
	VersionInfo             string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("keepfit", "backend", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0) // set to 1 when serving starts

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	if params.HoneycombTracingEnabled {
		rdb.AddHook(redisotel.NewTracingHook())
	}

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "keepfit-backend")
	if err != nil {
		return nil, err
	}

	openaiConfig := openai.DefaultConfig(params.OpenAIAPIKey)
	openaiConfig.HTTPClient = &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	textParser := aiparse.NewParser(
		openai.NewClientWithConfig(openaiConfig),
		params.Config.OpenAIModel,
		params.Config.ParseCacheSizeBytes,
	)

	s := &Server{
		config:      params.Config,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		redisClient:    rdb,
		sessionService: usersession.NewService(usersession.DefaultTTL, rdb),

		textParser: textParser,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	return s, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
	}).Methods("GET", "OPTIONS").Name("root")
	r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	plansRepo := plans.NewRepo(s.dbPool)
	schedulesRepo := schedules.NewRepo(s.dbPool)
	workoutsRepo := workouts.NewRepo(s.dbPool)
	progressRepo := progress.NewRepo(s.dbPool)
	diaryRepo := diary.NewRepo(s.dbPool)
	profileRepo := profile.NewRepo(s.dbPool)

	progressTracker := progress.NewTracker(progressRepo)

	plansHandler := plans.NewHandler(
		plansRepo,
		recommend.NewService(profileRepo),
		s.metricsManager,
	)
	plansHandler.SetupRoutes(r)

	schedulesHandler := schedules.NewHandler(
		schedulesRepo,
		schedules.NewSwapper(schedulesRepo),
		s.metricsManager,
	)
	schedulesHandler.SetupRoutes(r)

	workoutsService := workouts.NewService(
		workoutsRepo,
		schedulesRepo,
		plansRepo,
		progressTracker,
		diaryRepo,
	)
	workoutsHandler := workouts.NewHandler(
		workoutsService,
		workoutsRepo,
		plansRepo,
		schedules.NewResolver(schedulesRepo),
		s.metricsManager,
	)
	workoutsHandler.SetupRoutes(r)

	progressHandler := progress.NewHandler(progressRepo, progressTracker, plansRepo)
	progressHandler.SetupRoutes(r)

	diaryHandler := diary.NewHandler(diaryRepo, progressTracker, plansRepo, s.metricsManager)
	diaryHandler.SetupRoutes(r)

	calendarHandler := calendar.NewHandler(
		calendar.NewAggregator(workoutsRepo, diaryRepo, schedulesRepo),
		plansRepo,
	)
	calendarHandler.SetupRoutes(r)

	profileHandler := profile.NewHandler(profileRepo)
	profileHandler.SetupRoutes(r)

	exportHandler := export.NewHandler(
		export.NewExporter(workoutsRepo, diaryRepo),
		s.config.ExportCsvPath,
	)
	exportHandler.SetupRoutes(r)

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	aiparseHandler := aiparse.NewHandler(s.textParser, s.metricsManager)
	aiparseHandler.SetupRoutes(r, reqRateLimiter, s.config.ParseRateLimitAllowedPerMin)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.sessionService)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", metricsmiddleware.
		New(s.promRegistry, nil).
		WrapHandler("/metrics", promhttp.HandlerFor(
			s.promRegistry,
			promhttp.HandlerOpts{}),
		))
	metricsAddr := net.JoinHostPort(
		s.config.PrometheusMetricsHost,
		strconv.Itoa(s.config.PrometheusMetricsPort),
	)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
