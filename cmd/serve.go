package cmd

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/controller"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/cookie"
	authgrpc "github.com/vibast-solutions/ms-go-onlearn-auth/app/grpc"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/mail"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/maintenance"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/media"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/policy"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/repository"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/service"
	"github.com/vibast-solutions/ms-go-onlearn-auth/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"google.golang.org/grpc"
)

const (
	shutdownTimeout     = 15 * time.Second
	healthCheckInterval = 15 * time.Second
	bodyLimit           = "6M"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start the HTTP (Echo) API, the gRPC health endpoint and the expired session purge job.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type app struct {
	cfg        *config.Config
	db         *sql.DB
	redis      *redis.Client
	purger     *maintenance.Purger
	health     *authgrpc.HealthChecker
	httpServer *echo.Echo
	grpcServer *grpc.Server
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err = configureLogging(cfg.Log); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialise service")
	}

	errCh := make(chan error, 2)
	go func() { errCh <- a.startHTTP() }()
	go func() { errCh <- a.startGRPC() }()
	go a.health.Run(ctx, healthCheckInterval)

	select {
	case <-ctx.Done():
		logrus.Info("Shutdown signal received")
	case err = <-errCh:
		logrus.WithError(err).Error("Server stopped unexpectedly")
	}

	if err = a.shutdown(); err != nil {
		logrus.WithError(err).Error("Shutdown finished with errors")
		return
	}
	logrus.Info("Shutdown complete")
}

func newApp(ctx context.Context, cfg *config.Config) (a *app, err error) {
	a = &app{cfg: cfg}
	defer func() {
		if err != nil {
			err = multierr.Append(err, a.closeStores())
			if a.purger != nil {
				<-a.purger.Stop().Done()
			}
		}
	}()

	if a.db, err = openDatabase(ctx, cfg.DSN()); err != nil {
		return a, err
	}
	if a.redis, err = openRedis(ctx, cfg.Redis); err != nil {
		return a, err
	}

	mailer, err := newMailer(cfg)
	if err != nil {
		return a, err
	}

	userRepo := repository.NewUserRepository(a.db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(a.db)
	internalAPIKeyRepo := repository.NewInternalAPIKeyRepository(a.db)
	otpRepo := repository.NewOTPRepository(a.redis, cfg.Tokens.OTPTTL)

	tokens := service.NewTokenIssuer(cfg.JWT, cfg.Tokens)
	otpIssuer := service.NewOTPIssuer(otpRepo, mailer, cfg.Tokens.OTPTTL)
	userAuthService := service.NewUserAuthService(a.db, userRepo, refreshTokenRepo, otpIssuer, tokens, mailer, cfg)
	internalAuthService := service.NewInternalAuthService(internalAPIKeyRepo)

	var userService service.UserService
	if cfg.Media.Enabled {
		mediaClient, mediaErr := media.NewClient(ctx, cfg.Media)
		if mediaErr != nil {
			return a, mediaErr
		}
		userService = service.NewUserService(userRepo, mediaClient)
	} else {
		logrus.Info("Avatar uploads disabled")
		userService = service.NewUserService(userRepo, nil)
	}

	a.purger = maintenance.NewPurger(refreshTokenRepo, cfg.Purge.Schedule)
	if err = a.purger.Start(); err != nil {
		return a, err
	}

	a.health = authgrpc.NewHealthChecker(map[string]authgrpc.Pinger{
		"mysql": authgrpc.PingFunc(a.db.PingContext),
		"redis": authgrpc.PingFunc(func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }),
	})
	if err = a.health.Check(ctx); err != nil {
		return a, err
	}
	a.grpcServer = authgrpc.NewServer(a.health)

	jar := cookie.NewJar(cfg.Cookie)
	a.httpServer = newHTTPServer(cfg, routes{
		userAuth:     controller.NewUserAuthController(userAuthService, jar),
		user:         controller.NewUserController(userService),
		internalAuth: controller.NewInternalAuthController(userAuthService),
		auth:         middleware.NewAuthMiddleware(userAuthService, jar),
		apiKey:       middleware.NewAPIKeyMiddleware(internalAuthService),
	})
	return a, nil
}

func newMailer(cfg *config.Config) (mail.Mailer, error) {
	if !cfg.SMTP.Enabled {
		if cfg.App.IsProduction() {
			return nil, errors.New("SMTP must be enabled in production")
		}
		logrus.Warn("SMTP disabled, emails will be logged")
		return mail.LogMailer{}, nil
	}
	return mail.NewSMTPMailer(mail.SMTPSettings(cfg.SMTP))
}

type routes struct {
	userAuth     *controller.UserAuthController
	user         *controller.UserController
	internalAuth *controller.InternalAuthController
	auth         *middleware.AuthMiddleware
	apiKey       *middleware.APIKeyMiddleware
}

func newHTTPServer(cfg *config.Config, r routes) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = controller.NewHTTPErrorHandler(!cfg.App.IsProduction())
	e.IPExtractor = newIPExtractor(cfg.App.TrustedProxies)

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogHost:      true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.App.CORSAllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, middleware.HeaderAPIKey},
		AllowCredentials: true,
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(middleware.Metrics)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	auth := e.Group("/auth")
	auth.POST("/register", r.userAuth.Register)
	auth.POST("/verify", r.userAuth.VerifyEmail)
	auth.POST("/resend-otp", r.userAuth.ResendOTP)
	auth.POST("/login", r.userAuth.Login)
	auth.GET("/refresh-token", r.userAuth.RefreshToken)
	auth.POST("/reset-password-email", r.userAuth.RequestPasswordReset)
	auth.POST("/verify-reset-password/:token", r.userAuth.ResetPassword)

	getOrPost := []string{http.MethodGet, http.MethodPost}
	auth.Match(getOrPost, "/logout", r.userAuth.Logout, r.auth.RequireAuth)
	auth.Match(getOrPost, "/change-password", r.userAuth.ChangePassword, r.auth.RequireAuth)

	user := e.Group("/user", r.auth.RequireAuth)
	user.GET("/profile", r.user.GetProfile)
	user.PATCH("/profile", r.user.UpdateProfile)
	user.POST("/avatar", r.user.UploadAvatar)

	admin := e.Group("/admin", r.auth.RequireAuth, r.auth.RequireRole(policy.AdminOnly))
	admin.GET("/users", r.user.ListUsers)
	admin.GET("/students", r.user.ListStudents)
	admin.GET("/instructors", r.user.ListInstructors)

	internal := e.Group("/internal", r.apiKey.RequireAPIKey)
	internal.POST("/validate-token", r.internalAuth.ValidateToken)

	return e
}

// newIPExtractor decides which address binds a session to its client.
// Forwarding headers are only honoured when they arrive from a configured
// proxy range; otherwise the socket peer is used.
func newIPExtractor(trustedProxies []string) echo.IPExtractor {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect()
	}

	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			logrus.WithError(err).WithField("cidr", cidr).Warn("Ignoring invalid trusted proxy range")
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func (a *app) startHTTP() error {
	addr := net.JoinHostPort(a.cfg.HTTP.Host, a.cfg.HTTP.Port)
	logrus.WithField("addr", addr).Info("Starting HTTP server")
	if err := a.httpServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *app) startGRPC() error {
	addr := net.JoinHostPort(a.cfg.GRPC.Host, a.cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	logrus.WithField("addr", addr).Info("Starting gRPC server")
	if err = a.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (a *app) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.health.Shutdown()

	var err error
	if shutdownErr := a.httpServer.Shutdown(ctx); shutdownErr != nil {
		err = multierr.Append(err, shutdownErr)
	}
	a.grpcServer.GracefulStop()

	select {
	case <-a.purger.Stop().Done():
	case <-ctx.Done():
		err = multierr.Append(err, errors.New("timed out waiting for session purge to finish"))
	}

	return multierr.Append(err, a.closeStores())
}

func (a *app) closeStores() error {
	var err error
	if a.redis != nil {
		err = multierr.Append(err, a.redis.Close())
	}
	if a.db != nil {
		err = multierr.Append(err, a.db.Close())
	}
	return err
}
