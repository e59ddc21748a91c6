package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/respool/pkg/poolconfig"
	"github.com/ajitpratap0/respool/pkg/poollog"
	"github.com/ajitpratap0/respool/pkg/poolmetrics"
)

var version = "0.1.0"

type benchStats struct {
	Duration       time.Duration `json:"duration"`
	Concurrency    int           `json:"concurrency"`
	Acquisitions   int64         `json:"acquisitions"`
	Failures       int64         `json:"failures"`
	AcquiredAtEnd  int64         `json:"acquired_at_end"`
	IdleAtEnd      int           `json:"idle_at_end"`
	LiveAtEnd      int32         `json:"live_at_end"`
	AcquisitionsPS float64       `json:"acquisitions_per_second"`
}

func main() {
	root := &cobra.Command{
		Use:   "poolbench",
		Short: "poolbench - load-drive a respool.Pool and report throughput",
		Long: `poolbench simulates concurrent borrowers hammering a resource pool
with a synthetic allocator and reports acquire/release throughput,
failure counts, and end-of-run pool occupancy.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("poolbench v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	var (
		concurrency   int
		requests      int
		maxLive       int32
		maxPending    int
		holdTime      time.Duration
		allocLatency  time.Duration
		failRate      float64
		ordering      string
		affinity      bool
		configFile    string
		logLevel      string
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a load test against a synthetic pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				viper.SetConfigFile(configFile)
				if err := viper.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read config file %s: %w", configFile, err)
				}
				if v := viper.GetInt("concurrency"); v > 0 {
					concurrency = v
				}
				if v := viper.GetInt("requests"); v > 0 {
					requests = v
				}
			}
			return runBench(benchOptions{
				concurrency:  concurrency,
				requests:     requests,
				maxLive:      maxLive,
				maxPending:   maxPending,
				holdTime:     holdTime,
				allocLatency: allocLatency,
				failRate:     failRate,
				ordering:     ordering,
				affinity:     affinity,
				logLevel:     logLevel,
			})
		},
	}

	runCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU()*4, "Number of concurrent borrower goroutines")
	runCmd.Flags().IntVar(&requests, "requests", 10000, "Total acquire/release cycles to run across all borrowers")
	runCmd.Flags().Int32Var(&maxLive, "max-live", 32, "Maximum live resources (0 = unbounded)")
	runCmd.Flags().IntVar(&maxPending, "max-pending", -1, "Pending queue cap: 0 fail-fast, >0 cap, <0 unbounded")
	runCmd.Flags().DurationVar(&holdTime, "hold-time", time.Millisecond, "Simulated time each borrower holds a resource")
	runCmd.Flags().DurationVar(&allocLatency, "alloc-latency", 2*time.Millisecond, "Simulated allocator latency")
	runCmd.Flags().Float64Var(&failRate, "fail-rate", 0.0, "Fraction of allocations that simulate failure, 0.0-1.0")
	runCmd.Flags().StringVar(&ordering, "ordering", "fifo", "Pending/idle ordering: fifo or lifo")
	runCmd.Flags().BoolVar(&affinity, "affinity", false, "Enable thread-affinity fast-path matching")
	runCmd.Flags().StringVar(&configFile, "config", "", "Optional YAML/JSON config file overriding concurrency/requests")
	runCmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type benchOptions struct {
	concurrency  int
	requests     int
	maxLive      int32
	maxPending   int
	holdTime     time.Duration
	allocLatency time.Duration
	failRate     float64
	ordering     string
	affinity     bool
	logLevel     string
}

type syntheticResource struct {
	id int64
}

func runBench(opts benchOptions) error {
	if err := poollog.Init(poollog.Config{Level: opts.logLevel, Encoding: "console"}); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	log := poollog.With(zap.String("component", "poolbench"))

	var nextID atomic.Int64
	allocator := func(ctx context.Context) (*syntheticResource, error) {
		select {
		case <-time.After(opts.allocLatency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if opts.failRate > 0 && rand.Float64() < opts.failRate {
			return nil, fmt.Errorf("synthetic allocation failure")
		}
		return &syntheticResource{id: nextID.Add(1)}, nil
	}

	builder := poolconfig.NewBuilder[*syntheticResource](allocator).
		WithMetrics(poolmetrics.NewPrometheusRecorder("poolbench")).
		WithMaxPending(opts.maxPending)

	if opts.maxLive > 0 {
		builder.WithBoundedStrategy(opts.maxLive)
	} else {
		builder.WithUnboundedStrategy()
	}
	if opts.ordering == "lifo" {
		builder.WithLIFO()
	}
	if opts.affinity {
		builder.WithThreadAffinity()
	}

	pool, err := builder.Build()
	if err != nil {
		return fmt.Errorf("pool construction failed: %w", err)
	}
	defer pool.Dispose(context.Background())

	log.Info("starting load test",
		zap.Int("concurrency", opts.concurrency),
		zap.Int("requests", opts.requests),
		zap.Int32("max_live", opts.maxLive))

	var acquisitions, failures int64
	var counterMu sync.Mutex
	remaining := int64(opts.requests)

	g, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < opts.concurrency; w++ {
		g.Go(func() error {
			for {
				if atomic.AddInt64(&remaining, -1) < 0 {
					return nil
				}
				ref, err := pool.Acquire(ctx).Await(ctx)
				if err != nil {
					counterMu.Lock()
					failures++
					counterMu.Unlock()
					continue
				}
				atomic.AddInt64(&acquisitions, 1)
				time.Sleep(opts.holdTime)
				_ = ref.Release(ctx)
			}
		})
	}

	start := time.Now()
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Warn("load test worker returned an error", zap.Error(err))
	}
	duration := time.Since(start)

	stats := benchStats{
		Duration:       duration,
		Concurrency:    opts.concurrency,
		Acquisitions:   acquisitions,
		Failures:       failures,
		AcquiredAtEnd:  pool.Acquired(),
		IdleAtEnd:      pool.Idle(),
		LiveAtEnd:      pool.Live(),
		AcquisitionsPS: float64(acquisitions) / duration.Seconds(),
	}

	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
