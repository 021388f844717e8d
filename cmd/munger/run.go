package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/munger/config"
	"github.com/Ramsey-B/munger/internal/logging"
	"github.com/Ramsey-B/munger/pkg/job"
	"github.com/Ramsey-B/munger/pkg/kafka"
	"github.com/Ramsey-B/munger/pkg/metrics"
	"github.com/Ramsey-B/munger/pkg/models"
	"github.com/Ramsey-B/munger/pkg/pipeline"
	"github.com/Ramsey-B/munger/pkg/tracing"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newRunCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run <job.yaml>",
		Short: "Run a job file to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args[0], cmd.OutOrStdout())
		},
	}
}

func pipelineConfig(cfg config.Config) pipeline.Config {
	return pipeline.Config{
		ErrorsFieldName:  cfg.ErrorsFieldName,
		SuffixSeparator:  cfg.SuffixSeparator,
		UseLF:            !cfg.CSVUseCRLF,
		ProgressInterval: cfg.ProgressInterval,
	}
}

func producerConfig(cfg config.Config) kafka.ProducerConfig {
	pc := kafka.DefaultProducerConfig()
	pc.Brokers = cfg.KafkaBrokers
	pc.Topic = cfg.KafkaEventsTopic
	pc.BatchSize = cfg.KafkaBatchSize
	pc.BatchTimeout = time.Duration(cfg.KafkaBatchTimeoutMs) * time.Millisecond
	pc.RequiredAcks = cfg.KafkaRequiredAcks
	pc.Compression = cfg.KafkaCompression
	return pc
}

func tracingConfig(cfg config.Config, jobPath string) tracing.ProviderConfig {
	return tracing.ProviderConfig{
		ServiceName: cfg.AppName,
		Job:         jobPath,
		Endpoint:    cfg.OTLPEndpoint,
		Protocol:    cfg.OTLPProtocol,
		Insecure:    cfg.OTLPInsecure,
		Headers:     cfg.OTLPHeaders,
		Timeout:     time.Duration(cfg.OTLPTimeoutMs) * time.Millisecond,
		SampleRatio: cfg.TraceSampleRatio,
	}
}

func run(ctx context.Context, cfg config.Config, jobPath string, out io.Writer) (err error) {
	logger, zapLogger, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	shutdown, err := tracing.Setup(ctx, tracingConfig(cfg, jobPath))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, shutdown(context.Background()))
	}()

	def, err := job.Load(jobPath)
	if err != nil {
		return err
	}

	p, err := job.Build(def, pipelineConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, p.Close())
	}()

	if cfg.KafkaEventsEnabled {
		producer, err := attachProducer(cfg, def, p, logger)
		if err != nil {
			return err
		}
		defer producer.Close()
	}

	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.WithError(err).Error("Failed to write metrics textfile")
		}
	}

	printSummary(out, summary)
	return nil
}

// attachProducer hooks a Kafka producer to the job's event outcomes, or to every outcome
// when the job lists none.
func attachProducer(cfg config.Config, def *job.Definition, p *pipeline.Pipeline, logger ectologger.Logger) (*kafka.Producer, error) {
	outcomes, err := def.EventOutcomes()
	if err != nil {
		return nil, err
	}
	if len(outcomes) == 0 {
		outcomes = models.Outcomes
	}

	producer, err := kafka.NewProducer(producerConfig(cfg), logger)
	if err != nil {
		return nil, err
	}
	if err := producer.Attach(p, outcomes...); err != nil {
		producer.Close()
		return nil, err
	}
	return producer, nil
}

func printSummary(out io.Writer, summary pipeline.Summary) {
	fmt.Fprintf(out, "run %s: %d rows from %s in %s\n", summary.RunID, summary.Rows, summary.Source, summary.Duration.Round(time.Millisecond))
	for _, outcome := range models.Outcomes {
		fmt.Fprintf(out, "  %-18s %d\n", outcome.String(), summary.Outcomes[outcome])
	}
	fmt.Fprintf(out, "  %-18s %d\n", "written", summary.Written)
	fmt.Fprintf(out, "  %-18s %d\n", "unclaimed", summary.Unclaimed)
}
