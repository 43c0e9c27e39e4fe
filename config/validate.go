package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed genome.schema.json
var genomeSchemaJSON string

var (
	genomeSchemaOnce sync.Once
	genomeSchema     *jsonschema.Schema
	genomeSchemaErr  error
)

func compiledGenomeSchema() (*jsonschema.Schema, error) {
	genomeSchemaOnce.Do(func() {
		genomeSchema, genomeSchemaErr = jsonschema.CompileString("genome.schema.json", genomeSchemaJSON)
	})
	return genomeSchema, genomeSchemaErr
}

// Validate checks the loaded values. Policy names and overrides are checked
// when derived values are computed.
func (c *Config) Validate() error {
	var errs []error
	if c.Board.Width <= 0 || c.Board.Height <= 0 {
		errs = append(errs, fmt.Errorf("board size %dx%d must be positive", c.Board.Width, c.Board.Height))
	}
	ch := c.Channel
	if ch.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("channel.capacity %d must be positive", ch.Capacity))
	}
	if ch.BatchStart <= 0 || ch.BatchMax < ch.BatchStart {
		errs = append(errs, fmt.Errorf("channel batch %d..%d is not a positive range", ch.BatchStart, ch.BatchMax))
	}
	if ch.BatchStep < 0 {
		errs = append(errs, fmt.Errorf("channel.batch_step %d is negative", ch.BatchStep))
	}
	if r := c.Simulation.MutationRate; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("simulation.mutation_rate %v outside [0,1]", r))
	}
	if c.Simulation.CarrionTicks < 0 {
		errs = append(errs, fmt.Errorf("simulation.carrion_ticks %d is negative", c.Simulation.CarrionTicks))
	}
	if c.Display.Scale <= 0 {
		errs = append(errs, fmt.Errorf("display.scale %d must be positive", c.Display.Scale))
	}
	if c.Telemetry.Window <= 0 {
		errs = append(errs, fmt.Errorf("telemetry.window %d must be positive", c.Telemetry.Window))
	}
	if err := ValidateGenome(c.Genome); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ValidateGenome checks a trait schema against the embedded JSON Schema.
func ValidateGenome(segments []SegmentConfig) error {
	schema, err := compiledGenomeSchema()
	if err != nil {
		return fmt.Errorf("compiling genome schema: %w", err)
	}
	// Round-trip through JSON so the validator sees plain JSON values.
	raw, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("genome: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("genome: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("genome: %w", err)
	}
	return nil
}
