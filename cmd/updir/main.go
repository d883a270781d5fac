package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ripta/updir/metrics"
	"github.com/ripta/updir/server"
	"github.com/ripta/updir/upload"
)

const shutdownTimeout = 30 * time.Second

func main() {
	opts := parseOptions()
	log := newLogger(opts)

	log.Debug().
		Str("mode", opts.Mode).
		Str("bucket", opts.BucketName).
		Str("region", opts.AWSRegion).
		Str("upload_dir", opts.UploadDir).
		Str("config_file", opts.Config).
		Msg("Parsed options")

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := cfg.NewSink(log.WithContext(ctx))
	if err != nil {
		log.Fatal().Err(err).Msg("Could not initialize upload sink")
	}

	m := metrics.New()
	r := server.NewRouter(log, server.Routes{
		Index:   upload.IndexHandler(upload.DefaultUploadForm),
		Upload:  upload.NewHandler(upload.NewOrchestrator(sink, m), cfg.Options),
		Metrics: m.Handler(),
		Debug:   opts.Debug,
	}, m.Middleware)

	srv := &http.Server{
		Addr:              net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("Could not shut down cleanly")
		}
	}()

	log.Info().Str("sink", sink.Name()).Msgf("Ready to serve requests on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("")
	}
}

func newLogger(o options) zerolog.Logger {
	zerolog.TimestampFieldName = "@timestamp"
	zerolog.MessageFieldName = "message"
	zerolog.LevelFieldName = "level"
	zerolog.ErrorStackFieldName = "@trace"
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if o.Environment == "prod" {
		return zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}
