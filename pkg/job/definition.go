// Package job loads declarative job files and turns them into configured pipelines.
package job

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Ramsey-B/munger/pkg/errors"
	"github.com/Ramsey-B/munger/pkg/models"
	"github.com/Ramsey-B/munger/pkg/schema"
	"github.com/Ramsey-B/munger/pkg/utils"
	"gopkg.in/yaml.v3"
)

// Definition is the YAML form of one munging job.
type Definition struct {
	Source  string             `yaml:"source" validate:"required"`
	Stages  Stages             `yaml:"stages"`
	Writers []WriterDefinition `yaml:"writers" validate:"dive"`
	Events  EventsDefinition   `yaml:"events"`
}

type Stages struct {
	Filter   *StageDefinition `yaml:"filter"`
	Coerce   *StageDefinition `yaml:"coerce"`
	Validate *StageDefinition `yaml:"validate"`
}

// StageDefinition binds a schema, given inline or by file, to a stage.
type StageDefinition struct {
	Schema       schema.Schema `yaml:"schema"`
	SchemaFile   string        `yaml:"schema_file"`
	AllowUnknown bool          `yaml:"allow_unknown"`
	PurgeUnknown bool          `yaml:"purge_unknown"`
	RequireAll   bool          `yaml:"require_all"`
}

type WriterDefinition struct {
	Outcome       string               `yaml:"outcome" validate:"required"`
	Filename      string               `yaml:"filename" validate:"required_without=Suffix,excluded_with=Suffix"`
	Suffix        string               `yaml:"suffix" validate:"required_without=Filename,excluded_with=Filename"`
	IncludeErrors bool                 `yaml:"include_errors"`
	Fieldnames    []string             `yaml:"fieldnames"`
	Condition     *ConditionDefinition `yaml:"condition"`
}

type ConditionDefinition struct {
	Name string `yaml:"name" validate:"required"`
	Args any    `yaml:"args"`
}

// EventsDefinition lists the outcomes published as events when publishing is enabled.
type EventsDefinition struct {
	Outcomes []string `yaml:"outcomes"`
}

// Load reads a job file. Relative paths inside it resolve against the file's directory.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job %s: %w", path, err)
	}
	def, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("loading job %s: %w", path, err)
	}
	return def, nil
}

// Parse decodes and validates a job definition, resolving relative paths against baseDir.
func Parse(data []byte, baseDir string) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errors.NewConfigErrorf("job.Parse", errors.ErrInvalidJob, "%s", err.Error())
	}
	if _, err := utils.Validate(def); err != nil {
		return nil, errors.NewConfigErrorf("job.Parse", errors.ErrInvalidJob, "%s", err.Error())
	}

	def.Source = resolve(baseDir, def.Source)
	for stage, sd := range def.StageDefinitions() {
		if (sd.SchemaFile == "") == (sd.Schema == nil) {
			return nil, errors.NewConfigErrorf("job.Parse", errors.ErrInvalidJob, "stage %s needs exactly one of schema or schema_file", stage)
		}
		sd.SchemaFile = resolve(baseDir, sd.SchemaFile)
	}
	for i := range def.Writers {
		def.Writers[i].Filename = resolve(baseDir, def.Writers[i].Filename)
	}
	return &def, nil
}

func resolve(baseDir, path string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// StageDefinitions returns the bound stages keyed by stage.
func (d *Definition) StageDefinitions() map[models.Stage]*StageDefinition {
	out := make(map[models.Stage]*StageDefinition, 3)
	if d.Stages.Filter != nil {
		out[models.StageFilter] = d.Stages.Filter
	}
	if d.Stages.Coerce != nil {
		out[models.StageCoerce] = d.Stages.Coerce
	}
	if d.Stages.Validate != nil {
		out[models.StageValidate] = d.Stages.Validate
	}
	return out
}

// EventOutcomes parses the outcomes listed under events.
func (d *Definition) EventOutcomes() ([]models.Outcome, error) {
	outcomes := make([]models.Outcome, 0, len(d.Events.Outcomes))
	for _, name := range d.Events.Outcomes {
		outcome, err := models.ParseOutcome(name)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// LoadSchema returns the stage's inline schema or reads its schema file.
func (sd *StageDefinition) LoadSchema() (schema.Schema, error) {
	if sd.SchemaFile != "" {
		return schema.LoadFile(sd.SchemaFile)
	}
	return sd.Schema, nil
}

func (sd *StageDefinition) Options() []schema.Option {
	return []schema.Option{
		schema.WithAllowUnknown(sd.AllowUnknown),
		schema.WithPurgeUnknown(sd.PurgeUnknown),
		schema.WithRequireAll(sd.RequireAll),
	}
}
