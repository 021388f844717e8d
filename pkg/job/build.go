package job

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/munger/pkg/errors"
	"github.com/Ramsey-B/munger/pkg/models"
	"github.com/Ramsey-B/munger/pkg/pipeline"
	"github.com/Ramsey-B/munger/pkg/processor"
	"go.uber.org/multierr"
)

// Build returns a pipeline configured from def with its source open and its writers
// registered. Everything acquired is released when any step fails.
func Build(def *Definition, config pipeline.Config, logger ectologger.Logger) (p *pipeline.Pipeline, err error) {
	p = pipeline.New(config, logger)
	defer func() {
		if err != nil {
			err = multierr.Append(err, p.Close())
			p = nil
		}
	}()

	processors, err := compileStages(def)
	if err != nil {
		return p, err
	}
	for stage, proc := range processors {
		if err = p.SetProcessor(stage, proc); err != nil {
			return p, err
		}
	}

	writers, err := writerOptions(def)
	if err != nil {
		return p, err
	}

	if err = p.SetSourceFile(def.Source); err != nil {
		return p, err
	}
	if _, err = p.RegisterWriters(writers...); err != nil {
		return p, err
	}

	logger.WithFields(map[string]any{
		"run_id":  p.RunID(),
		"source":  def.Source,
		"writers": len(writers),
	}).Debug("Job built")
	return p, nil
}

// Check compiles every schema and resolves every outcome and condition without opening
// any file other than schema files. All problems are reported together.
func Check(def *Definition) error {
	_, err := compileStages(def)
	_, writerErr := writerOptions(def)
	err = multierr.Append(err, writerErr)
	if _, eventErr := def.EventOutcomes(); eventErr != nil {
		err = multierr.Append(err, eventErr)
	}
	return err
}

func compileStages(def *Definition) (map[models.Stage]*processor.Processor, error) {
	var err error
	processors := make(map[models.Stage]*processor.Processor, 3)
	definitions := def.StageDefinitions()
	for _, stage := range models.Stages {
		sd, ok := definitions[stage]
		if !ok {
			continue
		}
		s, loadErr := sd.LoadSchema()
		if loadErr != nil {
			err = multierr.Append(err, loadErr)
			continue
		}
		proc, procErr := processor.New(s, sd.Options()...)
		if procErr != nil {
			err = multierr.Append(err, fmt.Errorf("stage %s: %w", stage, procErr))
			continue
		}
		processors[stage] = proc
	}
	if err == nil && len(processors) == 0 {
		err = errors.NewConfigError("job.Build", errors.ErrNoStages)
	}
	return processors, err
}

func writerOptions(def *Definition) ([]pipeline.WriterOptions, error) {
	var err error
	options := make([]pipeline.WriterOptions, 0, len(def.Writers))
	for _, wd := range def.Writers {
		outcome, parseErr := models.ParseOutcome(wd.Outcome)
		if parseErr != nil {
			err = multierr.Append(err, parseErr)
			continue
		}

		opts := pipeline.WriterOptions{
			Outcome:       outcome,
			Filename:      wd.Filename,
			Suffix:        wd.Suffix,
			IncludeErrors: wd.IncludeErrors,
			Fieldnames:    wd.Fieldnames,
		}
		if wd.Condition != nil {
			condition, condErr := GetCondition(wd.Condition.Name, wd.Condition.Args)
			if condErr != nil {
				err = multierr.Append(err, condErr)
				continue
			}
			opts.Condition = condition
		}
		options = append(options, opts)
	}
	return options, err
}
