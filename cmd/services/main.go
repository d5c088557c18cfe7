package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/gin-gonic/gin"
	"github.com/hamidoujand/roster/internal/auth"
	"github.com/hamidoujand/roster/internal/debug"
	healthHandlers "github.com/hamidoujand/roster/internal/domains/health/handler"
	"github.com/hamidoujand/roster/internal/domains/user/bus"
	userHandlers "github.com/hamidoujand/roster/internal/domains/user/handler"
	"github.com/hamidoujand/roster/internal/domains/user/store/userdb"
	"github.com/hamidoujand/roster/internal/metrics"
	"github.com/hamidoujand/roster/internal/mid"
	"github.com/hamidoujand/roster/internal/sqldb"
	"github.com/hamidoujand/roster/pkg/keystore"
	"github.com/hamidoujand/roster/pkg/logger"
	"github.com/hamidoujand/roster/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

var build = "development"

func main() {
	traceIDFn := func(ctx context.Context) string {
		return telemetry.GetTraceID(ctx)
	}

	//os.Interrupt maps to the platform interrupt, SIGTERM comes from orchestrators.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := logger.EnvironmentDev
	if build != "development" {
		env = logger.EnvironmentProd
	}

	log := logger.New(os.Stdout, logger.LevelDebug, env, "roster", traceIDFn)

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "main failed to execute run", "err", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, log logger.Logger) error {
	log.Info(ctx, "run", "build", build, "GOMAXPROCS", runtime.GOMAXPROCS(0))

	//configuration
	cfg := struct {
		Web struct {
			ReadTimeout       time.Duration `conf:"default:10s"`
			ReadHeaderTimeout time.Duration `conf:"default:5s"`
			WriteTimeout      time.Duration `conf:"default:30s"`
			IdleTimeout       time.Duration `conf:"default:120s"`
			ShutdownTimeout   time.Duration `conf:"default:20s"`
			APIHost           string        `conf:"default:0.0.0.0:8000"`
			DebugHost         string        `conf:"default:0.0.0.0:3000"`
			HealthHost        string        `conf:"default:0.0.0.0:9000"`
			CORSOrigins       []string      `conf:"default:*"`
		}

		DB struct {
			User     string `conf:"default:postgres"`
			Password string `conf:"default:postgres,mask"`
			//the app and db running in the same namespace, no need for cross namespace service discovery.
			Host        string `conf:"default:database:5432"`
			Name        string `conf:"default:postgres"`
			Schema      string
			MaxIdleConn int  `conf:"default:2"`
			MaxOpenConn int  `conf:"default:0"`
			DisableTLS  bool `conf:"default:true"`
		}

		Auth struct {
			KeysFolder  string        `conf:"default:/etc/rsa-keys"`
			ActiveKID   string        `conf:"default:f7b7936a-1ca3-4015-811b-ec31b61e3071"`
			Issuer      string        `conf:"default:roster"`
			TokenMaxAge time.Duration `conf:"default:1h"`
		}

		Tempo struct {
			//empty disables tracing, "stdout" prints the spans.
			Host        string  `conf:"default:tempo:4317"`
			ServiceName string  `conf:"default:roster-service"`
			Probability float64 `conf:"default:0.5"`
		}
	}{}

	const prefix = "ROSTER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing conf: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("conf to string: %w", err)
	}

	log.Info(ctx, "app configuration", "cfg", out)

	//==========================================================================
	// Metrics init
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := metrics.New(reg)
	expvar.NewString("build").Set(build)

	//==========================================================================
	// Debug server
	debugServer := http.Server{
		Addr:              cfg.Web.DebugHost,
		Handler:           debug.Register(reg),
		ReadHeaderTimeout: cfg.Web.ReadHeaderTimeout,
		ErrorLog:          logger.NewStdLogger(log, logger.LevelError),
	}

	go func() {
		log.Info(ctx, "debug server starting", "host", cfg.Web.DebugHost)
		if err := debugServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "debug server failed", "host", cfg.Web.DebugHost, "err", err.Error())
		}
	}()

	//==========================================================================
	// Database init
	db, err := sqldb.Open(sqldb.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		Schema:       cfg.DB.Schema,
		MaxIdleConns: cfg.DB.MaxIdleConn,
		MaxOpenConns: cfg.DB.MaxOpenConn,
		DisableTLS:   cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("failed to open connection to database: %w", err)
	}

	defer db.Close()

	log.Info(ctx, "database initialized", "host", cfg.DB.Host)

	//==========================================================================
	// Trace init
	cleanup, err := telemetry.SetupOTelSDK(telemetry.Config{
		ServiceName: cfg.Tempo.ServiceName,
		Host:        cfg.Tempo.Host,
		Build:       build,
		Probability: cfg.Tempo.Probability,
		ExcludedRoutes: map[string]struct{}{
			"/v1/liveness":  {},
			"/v1/readiness": {},
		},
	})
	if err != nil {
		return fmt.Errorf("setupOTelSDK: %w", err)
	}

	defer func() {
		//ctx is already canceled at this point.
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cleanup(flushCtx)
	}()

	tracer := otel.Tracer(cfg.Tempo.ServiceName)

	log.Info(ctx, "tracer initialized", "host", cfg.Tempo.Host, "probability", cfg.Tempo.Probability)

	//==========================================================================
	// Auth init
	ks := keystore.New()

	count, err := ks.LoadFromFileSystem(os.DirFS(cfg.Auth.KeysFolder))
	if err != nil {
		return fmt.Errorf("loadFromFileSystem: %w", err)
	}

	if err := ks.SetActiveKID(cfg.Auth.ActiveKID); err != nil {
		return fmt.Errorf("setActiveKID: %w", err)
	}

	a := auth.New(ks, cfg.Auth.Issuer)

	log.Info(ctx, "auth initialized", "keys", count, "activeKID", ks.ActiveKID())

	//==========================================================================
	// Domains init
	usrBus := bus.New(userdb.NewStore(db, tracer), tracer)

	//==========================================================================
	// API router
	if build != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	api := gin.New()
	api.HandleMethodNotAllowed = true

	//order matters, panics must be recovered before errors are written.
	api.Use(
		mid.Telemetry(tracer),
		mid.Logger(log),
		mid.CORS(cfg.Web.CORSOrigins),
		mid.Metrics(m),
		mid.Errors(log),
		mid.Panic(log),
	)

	userHandlers.Routes(userHandlers.Conf{
		UserBus:     usrBus,
		Tracer:      tracer,
		Log:         log,
		Auth:        a,
		KID:         ks.ActiveKID(),
		TokenMaxAge: cfg.Auth.TokenMaxAge,
	}).MountAt(api, "/v1/users")

	//==========================================================================
	// Health router
	health := gin.New()
	health.Use(mid.Errors(log), mid.Panic(log))

	healthHandlers.Routes(healthHandlers.Conf{
		DB:    db,
		Log:   log,
		Build: build,
	}).MountAt(health, "/v1")

	healthServer := http.Server{
		Addr:              cfg.Web.HealthHost,
		Handler:           otelhttp.NewHandler(health, "health"),
		ReadHeaderTimeout: cfg.Web.ReadHeaderTimeout,
		ErrorLog:          logger.NewStdLogger(log, logger.LevelError),
	}

	go func() {
		log.Info(ctx, "health server starting", "host", cfg.Web.HealthHost)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "health server failed", "host", cfg.Web.HealthHost, "err", err.Error())
		}
	}()

	//==========================================================================
	// API server
	server := http.Server{
		Addr:              cfg.Web.APIHost,
		Handler:           api,
		ReadTimeout:       cfg.Web.ReadTimeout,
		ReadHeaderTimeout: cfg.Web.ReadHeaderTimeout,
		WriteTimeout:      cfg.Web.WriteTimeout,
		IdleTimeout:       cfg.Web.IdleTimeout,
		ErrorLog:          logger.NewStdLogger(log, logger.LevelError),
		BaseContext:       baseContext(ctx),
	}

	serverErrs := make(chan error, 1)

	go func() {
		log.Info(ctx, "API server starting", "host", cfg.Web.APIHost, "origins", strings.Join(cfg.Web.CORSOrigins, ","))
		serverErrs <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrs:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		log.Info(ctx, "shutdown started")
		defer log.Info(ctx, "shutdown completed")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		healthServer.Shutdown(shutdownCtx)
		debugServer.Shutdown(shutdownCtx)

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("failed to gracefully shutdown the server: %w", err)
		}
	}

	return nil
}

// baseContext keeps the values of ctx for every request but not its
// cancellation, in-flight requests drain during shutdown.
func baseContext(ctx context.Context) func(net.Listener) context.Context {
	base := context.WithoutCancel(ctx)
	return func(net.Listener) context.Context {
		return base
	}
}
