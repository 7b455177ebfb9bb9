package main

import (
	"context"
	"flag"
	"guestlist/bot"
	"guestlist/impl/auth"
	"guestlist/impl/core"
	"guestlist/internal/config"
	"guestlist/internal/database"
	"guestlist/internal/http-server/api"
	"guestlist/internal/http-server/middleware/ratelimit"
	"guestlist/internal/mailer"
	"guestlist/internal/metrics"
	"guestlist/lib/clock"
	"guestlist/lib/logger"
	"guestlist/lib/sl"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, *logPath)
	log.Info("starting guestlist", slog.String("config", *configPath), slog.String("env", conf.Env))

	db, closeDb, err := openStore(conf)
	if err != nil {
		log.Error("store", sl.Err(err))
		os.Exit(1)
	}
	defer closeDb()
	log.With(slog.String("driver", conf.Store.Driver)).Info("guest store ready")

	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		// the bot logs through the base logger so its own failures are not sent back to Telegram
		tgBot, err = bot.NewTgBot(conf.Telegram.ApiKey, log, bot.BotConfig{
			AdminIds:        conf.Telegram.AdminIds,
			SummaryInterval: time.Duration(conf.Telegram.SummaryInterval) * time.Minute,
		})
		if err != nil {
			log.Error("telegram bot", sl.Err(err))
		} else {
			var level slog.Level
			if err = level.UnmarshalText([]byte(conf.Telegram.LogLevel)); err != nil {
				level = slog.LevelError
			}
			log = slog.New(logger.NewTelegramHandler(log.Handler(), tgBot, level))
		}
	}

	handler := core.New(db, log)
	handler.SetAuthService(auth.New(conf.Admin.Password))
	handler.SetNotifier(mailer.New(mailer.Config(conf.Mail), log))
	handler.SetMetrics(metrics.New())
	if loc, err := clock.Location(conf.Location); err != nil {
		log.With(slog.String("location", conf.Location)).Warn("unknown location, using UTC", sl.Err(err))
	} else {
		handler.SetLocation(loc)
	}
	if conf.Admin.Password == "" {
		log.Warn("admin password is not set; admin endpoints will reject all requests")
	}

	if tgBot != nil {
		tgBot.SetCore(handler)
		handler.SetAnnouncer(tgBot)
		go func() {
			if err := tgBot.Start(); err != nil {
				log.Error("telegram bot", sl.Err(err))
			}
		}()
	}

	opts := api.Options{
		StaticDir:   conf.StaticDir,
		TrustProxy:  conf.Listen.TrustProxy,
		CorsOrigins: conf.Listen.CorsOrigins,
	}
	if conf.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Address,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		defer func() { _ = client.Close() }()
		limiter := ratelimit.New(client, "register", conf.Redis.RegisterLimit, time.Minute, log)
		opts.RegisterLimit = limiter.Handler
	}

	server := api.New(conf, log, handler, opts)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server", sl.Err(err))
			stop <- syscall.SIGTERM
		}
	}()

	<-stop
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("server shutdown", sl.Err(err))
	}
	if tgBot != nil {
		tgBot.Stop()
	}
}

func openStore(conf *config.Config) (core.Database, func(), error) {
	switch conf.Store.Driver {
	case config.DriverMySQL:
		db, err := database.NewSQLClient(conf)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case config.DriverMongo:
		db, err := database.NewMongoClient(conf)
		if err != nil {
			return nil, nil, err
		}
		return db, func() {}, nil
	default:
		return database.NewMemory(), func() {}, nil
	}
}
