package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"imagine/catalog"
	"imagine/config"
	"imagine/discovery"
	"imagine/game"
	"imagine/internal/ticker"
	"imagine/logger"
	"imagine/migrations"
	"imagine/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

// subjectSource picks the Postgres catalog when a database is configured and
// the built-in subjects otherwise. The returned func releases it.
func subjectSource(ctx context.Context, postgresURL string) (game.SubjectSource, func(), error) {
	if postgresURL == "" {
		log.Info().Msg("POSTGRES_URL not set, using built-in subjects")
		return catalog.NewMemory(catalog.DefaultSubjects()), func() {}, nil
	}

	if err := migrations.Migrate(postgresURL); err != nil {
		return nil, nil, err
	}
	repo, err := storage.NewPostgresRepo(ctx, postgresURL)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("Logger setup failed")
	}

	subjects, release, err := subjectSource(context.Background(), cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Subject catalog unavailable")
	}
	defer release()

	lobby := game.NewLobby(subjects, ticker.Real{},
		game.WithMaxPlayers(cfg.MaxPlayers),
		game.WithPingInterval(cfg.PingInterval),
	)
	lobbyCtx, stopLobby := context.WithCancel(context.Background())
	lobbyStarted := make(chan struct{})
	go lobby.LobbyActor(lobbyCtx, lobbyStarted)
	<-lobbyStarted

	gameHandler := game.NewGameHandler(lobby)
	r := CreateServer(cfg.AllowedOrigins)
	r.GET("/figures", gameHandler.FiguresHandler)
	r.GET("/rooms", gameHandler.RoomsHandler)
	r.GET("/ws", gameHandler.WebsocketHandler)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	if cfg.MDNSEnabled {
		port, err := cfg.Port()
		if err != nil {
			log.Fatal().Err(err).Msg("mDNS needs a numeric port")
		}
		mdnsServer, err := discovery.Advertise(cfg.MDNSInstance, port)
		if err != nil {
			log.Warn().Err(err).Msg("Not advertising over mDNS")
		} else {
			defer mdnsServer.Shutdown()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	log.Info().Str("addr", cfg.ListenAddr).Msg("Server started")
	<-sigCh
	log.Info().Msg("SIGTERM or SIGINT received, closing rooms before shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown incomplete")
	}

	stopLobby()
	<-lobby.Done()
	log.Info().Msg("Shutting down now")
}
