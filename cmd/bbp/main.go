// Command bbp approximates π with the Bailey–Borwein–Plouffe series, one pool
// task per term.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/creasty/defaults"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/khekrn/futurepool"
)

type config struct {
	Workers     int           `mapstructure:"workers" default:"4"`
	Terms       int           `mapstructure:"terms" default:"101"`
	Timeout     time.Duration `mapstructure:"timeout" default:"0s"`
	Retries     uint          `mapstructure:"retries" default:"3"`
	LogLevel    string        `mapstructure:"log-level" default:"info"`
	LogFormat   string        `mapstructure:"log-format" default:"console"`
	MetricsAddr string        `mapstructure:"metrics-addr"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	var def config
	if err := defaults.Set(&def); err != nil {
		panic(err)
	}

	cmd := &cobra.Command{
		Use:          "bbp",
		Short:        "Approximate pi with the BBP series on a futurepool",
		SilenceUsage: true,
		PersistentPreRunE: cobrautil.CommandStack(
			cobrautil.SyncViperPreRunE("bbp"),
			func(cmd *cobra.Command, _ []string) error {
				return loadConfig(v, cfgFile, cmd.Flags())
			},
		),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg config
			if err := v.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("decoding config: %w", err)
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.Int("workers", def.Workers, "number of pool workers")
	flags.Int("terms", def.Terms, "number of series terms to sum")
	flags.Duration("timeout", def.Timeout, "per-term wait, 0 blocks until ready")
	flags.Uint("retries", def.Retries, "extra waits for a term that timed out")
	flags.String("log-level", def.LogLevel, "log level (debug, info, warn, error)")
	flags.String("log-format", def.LogFormat, "log format (console, json)")
	flags.String("metrics-addr", def.MetricsAddr, "serve Prometheus metrics on this address while running")

	return cmd
}

// loadConfig layers flags over the config file. BBP_* environment variables
// have already been copied into unset flags by SyncViperPreRunE.
func loadConfig(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	if cfgFile == "" {
		return nil
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", cfgFile, err)
	}
	return nil
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	switch format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	zc.Level = lvl
	return zc.Build()
}

func run(ctx context.Context, cfg config, out io.Writer) error {
	if cfg.Terms <= 0 {
		return fmt.Errorf("terms must be positive, got %d", cfg.Terms)
	}

	log, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()
	log = log.With(zap.String("run", uuid.NewString()))
	undo := zap.ReplaceGlobals(log)
	defer undo()

	reg := prometheus.NewRegistry()
	metrics, err := futurepool.NewMetrics(reg, "bbp", "pool")
	if err != nil {
		return err
	}
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, reg, log.Named("http"))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	pool, err := futurepool.NewPoolBuilder().
		WithWorkers(cfg.Workers).
		WithTaskQueue(cfg.Terms).
		WithLogger(log.Named("pool")).
		WithMetrics(metrics).
		Build()
	if err != nil {
		return err
	}

	start := time.Now()
	pi, err := sum(ctx, pool, cfg.Terms, cfg.Timeout, cfg.Retries)
	if err != nil {
		pool.Terminate()
		return err
	}
	if err := pool.Join(); err != nil {
		return err
	}

	log.Info("series summed",
		zap.Int("terms", cfg.Terms),
		zap.Int("workers", cfg.Workers),
		zap.Duration("elapsed", time.Since(start)),
		zap.Float64("error", math.Abs(pi-math.Pi)),
	)
	fmt.Fprintf(out, "PI calculated with %d terms: %s\n",
		cfg.Terms, color.New(color.FgGreen, color.Bold).Sprint(strconv.FormatFloat(pi, 'f', 15, 64)))
	return nil
}

// term returns the k-th summand of the BBP series.
func term(arg any) any {
	k := float64(arg.(int))
	s := 4/(8*k+1) - 2/(8*k+4) - 1/(8*k+5) - 1/(8*k+6)
	return s / math.Pow(16, k)
}

// sum submits one task per term, then collects the futures in order. A term
// that times out is still pending, so it is waited on again up to retries
// more times.
func sum(ctx context.Context, pool futurepool.WorkerPool, terms int, timeout time.Duration, retries uint) (float64, error) {
	futures := make([]*futurepool.Future, 0, terms)
	defer func() {
		for _, f := range futures {
			f.Release()
		}
	}()

	for k := 0; k < terms; k++ {
		f, err := pool.Submit(term, k)
		if err != nil {
			return 0, fmt.Errorf("submitting term %d: %w", k, err)
		}
		futures = append(futures, f)
	}

	var total float64
	for k, f := range futures {
		res, err := backoff.Retry(ctx, func() (any, error) {
			res, err := f.Get(timeout)
			if errors.Is(err, futurepool.ErrTimeout) {
				zap.L().Debug("term timed out", zap.Int("term", k))
				return nil, err
			}
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			return res, nil
		},
			backoff.WithBackOff(backoff.NewExponentialBackOff()),
			backoff.WithMaxTries(retries+1),
		)
		if err != nil {
			return 0, fmt.Errorf("term %d: %w", k, err)
		}
		total += res.(float64)
	}
	return total, nil
}
