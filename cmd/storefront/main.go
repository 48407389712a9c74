package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/ec-storefront/internal/activity"
	"github.com/example/ec-storefront/internal/apiclient"
	"github.com/example/ec-storefront/internal/app"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/notify"
	"github.com/example/ec-storefront/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runtime holds everything a command needs; it is built once per process
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	state   *app.State
	history *app.History
	out     io.Writer
	closers []io.Closer
}

// reportNavigation prints the view the session ended on when a command
// moved it, e.g. to login after the backend rejected the token
func (rt *runtime) reportNavigation(w io.Writer) {
	visits := rt.history.Visits()
	if len(visits) == 0 {
		return
	}
	fmt.Fprintf(w, "-> %s\n", visits[len(visits)-1])
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			rt.logger.Warn("failed to close resource", zap.Error(err))
		}
	}
	_ = rt.logger.Sync()
}

func bootstrap(ctx context.Context, out, errOut io.Writer) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Development:       cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	rt := &runtime{cfg: cfg, logger: log, out: out}

	store, storeCloser, err := storage.Open(ctx, storage.OpenOptions{
		Driver:        cfg.Storage.Driver,
		StateFile:     cfg.Storage.StateFile,
		Profile:       cfg.Storage.Profile,
		DatabaseURL:   cfg.Storage.DatabaseURL,
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	rt.closers = append(rt.closers, storeCloser)

	var publisher activity.Publisher = activity.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := activity.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		rt.closers = append(rt.closers, kafkaPublisher)
		publisher = kafkaPublisher
		log.Info("publishing activity events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	rt.history = app.NewHistory(app.ViewHome)
	rt.state = app.New(ctx, app.Options{
		Store:   store,
		BaseURL: cfg.APIBaseURL(),
		Timeout: cfg.API.Timeout,
		Retries: cfg.API.Retries,
		Breaker: apiclient.BreakerSettings{
			MaxFailures: cfg.Breaker.MaxFailures,
			OpenTimeout: cfg.Breaker.OpenTimeout,
		},
		Notifier:  notify.NewWriter(errOut),
		Publisher: publisher,
		Navigator: rt.history,
		Logger:    log,
	})
	return rt, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := &runtime{}
	root := newRootCommand(rt)
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		built, err := bootstrap(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		*rt = *built
		return nil
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		rt.reportNavigation(cmd.ErrOrStderr())
	}

	err := root.ExecuteContext(ctx)
	if rt.logger != nil {
		rt.close()
	}
	if err != nil {
		os.Exit(1)
	}
}
