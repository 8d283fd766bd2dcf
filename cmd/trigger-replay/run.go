package main

import (
	"context"
	"io"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/RuiFG/streaming/combine"
	"github.com/RuiFG/streaming/config"
	"github.com/RuiFG/streaming/driver"
	"github.com/RuiFG/streaming/element"
	"github.com/RuiFG/streaming/log"
	"github.com/RuiFG/streaming/metrics"
	"github.com/RuiFG/streaming/runner"
	"github.com/RuiFG/streaming/sink/kafka"
	"github.com/RuiFG/streaming/store"
	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/uber-go/tally/v4"
	"go.uber.org/multierr"
)

type runFlags struct {
	config  string
	profile string
	format  string
}

func init() {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a replay script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}
	cmd.Flags().StringVarP(&flags.config, "config", "c", "replay.yml", "replay config file")
	cmd.Flags().StringVar(&flags.profile, "profile", "", "profile the replay: cpu or mem")
	cmd.Flags().StringVar(&flags.format, "format", "", "pane output format: table or json, overrides sink.format")
	Command.AddCommand(cmd)
}

func run(ctx context.Context, out io.Writer, flags *runFlags) (err error) {
	application, err := config.Load(flags.config)
	if err != nil {
		return err
	}
	if flags.format != "" {
		application.Sink.Format = flags.format
	}
	logOptions, err := application.Log.Options()
	if err != nil {
		return err
	}
	log.Setup(logOptions)
	defer func() { _ = log.Global().Sync() }()

	switch flags.profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	default:
		return errors.Errorf("unknown profile mode %q", flags.profile)
	}

	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:   "replay",
		Reporter: metrics.NewLogReporter(log.Global().Named("metrics")),
	}, time.Second)
	defer func() { err = multierr.Append(err, closer.Close()) }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch application.Combine {
	case "sum":
		return replay(ctx, out, application, combine.Sum[float64](), scope)
	case "min":
		return replay(ctx, out, application, combine.Min[float64](), scope)
	case "max":
		return replay(ctx, out, application, combine.Max[float64](), scope)
	case "count":
		return replay(ctx, out, application, combine.MapOutput(combine.Count[float64](), func(n int64) float64 {
			return float64(n)
		}), scope)
	default:
		return errors.Errorf("unknown combine %q", application.Combine)
	}
}

func replay[A any](ctx context.Context, out io.Writer, application *config.Application,
	combineFn combine.Fn[float64, A, float64], scope tally.Scope) (err error) {
	windowFn, err := application.Window.Build()
	if err != nil {
		return err
	}
	driverOptions, err := application.DriverOptions()
	if err != nil {
		return err
	}
	stream, err := application.Stream()
	if err != nil {
		return err
	}
	nutsOptions, persistent, err := application.Store.NutsOptions()
	if err != nil {
		return err
	}

	buffer := &element.Buffer[string, float64]{}
	var sink element.Collector[string, float64] = buffer
	if application.Sink.Kind == "kafka" {
		kafkaSink, kafkaErr := kafka.New[string, float64](kafka.Config{
			Addresses: application.Sink.Addresses,
			Topic:     application.Sink.Topic,
		})
		if kafkaErr != nil {
			return kafkaErr
		}
		defer func() { err = multierr.Append(err, kafkaSink.Close()) }()
		sink = element.CollectorFn[string, float64](func(o element.Output[string, float64]) error {
			if err := kafkaSink.Emit(o); err != nil {
				return err
			}
			return buffer.Emit(o)
		})
	}

	m := metrics.New(scope)
	logger := log.Global()
	r, err := runner.New[string, float64, A, float64](func(shard int) (*driver.Driver[string, float64, A, float64], error) {
		options := append([]driver.WithOptions{
			driver.WithMetrics(m),
			driver.WithLogger(logger.Named("driver-" + strconv.Itoa(shard))),
		}, driverOptions...)
		if persistent {
			shardOptions := nutsOptions
			shardOptions.Dir = filepath.Join(nutsOptions.Dir, "shard-"+strconv.Itoa(shard))
			s, err := store.OpenNuts[string, A](logger.Named("store"), shardOptions, nil)
			if err != nil {
				return nil, err
			}
			options = append(options, driver.WithStore(s))
			d, err := driver.New[string, float64, A, float64](windowFn, combineFn, sink, options...)
			if err != nil {
				return nil, multierr.Append(err, s.Close())
			}
			return d, nil
		}
		return driver.New[string, float64, A, float64](windowFn, combineFn, sink, options...)
	}, runner.WithShards(application.Shards), runner.WithLogger(logger.Named("runner")))
	if err != nil {
		return err
	}
	if err = r.Start(ctx); err != nil {
		return multierr.Append(err, r.Stop())
	}
	runErr := stream.Run(r)
	if err = multierr.Combine(runErr, r.Stop()); err != nil {
		return err
	}
	return printPanes(out, application.Sink.Format, buffer.Outputs())
}

func printPanes(out io.Writer, format string, outputs []element.Output[string, float64]) error {
	sort.SliceStable(outputs, func(i, j int) bool {
		a, b := outputs[i], outputs[j]
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		if !a.Window.Equals(b.Window) {
			return a.Window.MaxTimestamp() < b.Window.MaxTimestamp()
		}
		return a.Pane.Index < b.Pane.Index
	})
	switch format {
	case "", "table":
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"key", "window", "timing", "index", "on time index", "first", "last", "value"})
		for _, o := range outputs {
			record := element.NewRecord(o)
			table.Append([]string{
				record.Key,
				record.Window,
				record.Timing,
				strconv.FormatInt(record.Index, 10),
				strconv.FormatInt(record.NonSpeculativeIndex, 10),
				strconv.FormatBool(record.IsFirst),
				strconv.FormatBool(record.IsLast),
				strconv.FormatFloat(record.Value, 'f', -1, 64),
			})
		}
		table.Render()
		return nil
	case "json":
		encoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)
		for _, o := range outputs {
			if err := encoder.Encode(element.NewRecord(o)); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Errorf("unknown output format %q", format)
	}
}
