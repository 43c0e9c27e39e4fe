// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/worms/events"
	"github.com/pthm-cable/worms/genome"
	"github.com/pthm-cable/worms/seeding"
	"github.com/pthm-cable/worms/world"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Board       BoardConfig        `yaml:"board"`
	Channel     ChannelConfig      `yaml:"channel"`
	Simulation  SimulationConfig   `yaml:"simulation"`
	Creature    CreatureConfig     `yaml:"creature"`
	Genome      []SegmentConfig    `yaml:"genome"`
	Populations []PopulationConfig `yaml:"populations"`
	Display     DisplayConfig      `yaml:"display"`
	Telemetry   TelemetryConfig    `yaml:"telemetry"`
	Lineage     LineageConfig      `yaml:"lineage"`
	Observer    ObserverConfig     `yaml:"observer"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// BoardConfig holds grid dimensions in cells.
type BoardConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ChannelConfig sizes the event channel and the consumer's batch.
type ChannelConfig struct {
	Capacity   int `yaml:"capacity"`
	BatchStart int `yaml:"batch_start"`
	BatchMax   int `yaml:"batch_max"`
	BatchStep  int `yaml:"batch_step"`
}

// SimulationConfig holds run-wide policy switches.
type SimulationConfig struct {
	Seed         int64   `yaml:"seed"`
	MaxTicks     int     `yaml:"max_ticks"` // 0 runs until interrupted
	Liveness     string  `yaml:"liveness"`  // lenient | strict
	Faction      string  `yaml:"faction"`   // dominant_channel | species
	Movement     string  `yaml:"movement"`  // random | wander
	MutationRate float64 `yaml:"mutation_rate"`
	CarrionTicks int     `yaml:"carrion_ticks"` // 0 keeps carrion until eaten
}

// CreatureConfig holds behaviour tunables shared by every creature.
type CreatureConfig struct {
	TurnEnergy      float64 `yaml:"turn_energy"`      // fraction of max energy per action
	Starvation      float64 `yaml:"starvation"`       // fraction of max health lost at zero energy
	Regen           float64 `yaml:"regen"`            // health multiplier while fed
	FearDecay       float64 `yaml:"fear_decay"`
	FearGain        float64 `yaml:"fear_gain"`
	EatBonus        float64 `yaml:"eat_bonus"`
	HungerThreshold float64 `yaml:"hunger_threshold"` // fraction of max energy
	YoungAge        float64 `yaml:"young_age"`        // fraction of max age
	ProcreateMin    float64 `yaml:"procreate_min"`    // fraction of max age
	ProcreateMax    float64 `yaml:"procreate_max"`    // fraction of max age
	AgeScale        float64 `yaml:"age_scale"`
	MinTrait        float64 `yaml:"min_trait"`
	EatCost         float64 `yaml:"eat_cost"`
	ProcreateCost   float64 `yaml:"procreate_cost"`
	AttackCost      float64 `yaml:"attack_cost"`
	MoveCost        float64 `yaml:"move_cost"`
	DefendPenalty   float64 `yaml:"defend_penalty"`
}

// SegmentConfig is one trait schema entry.
type SegmentConfig struct {
	Name    string  `yaml:"name" json:"name"`
	Bits    int     `yaml:"bits" json:"bits"`
	Choices []any   `yaml:"choices,omitempty" json:"choices,omitempty"`
	Base    float64 `yaml:"base,omitempty" json:"base,omitempty"`
}

// PopulationConfig seeds one group of creatures.
type PopulationConfig struct {
	Kind      string            `yaml:"kind"`
	Count     int               `yaml:"count"`
	Strategy  StrategyConfig    `yaml:"strategy"`
	Overrides map[string]string `yaml:"overrides,omitempty"` // segment -> bit string
}

// StrategyConfig selects a position strategy.
type StrategyConfig struct {
	Type      string      `yaml:"type"` // horizontal | vertical | random | circle | noise
	Seed      int64       `yaml:"seed,omitempty"`
	Radius    float64     `yaml:"radius,omitempty"`
	Point     PointConfig `yaml:"point,omitempty"`
	Scale     float64     `yaml:"scale,omitempty"`
	Threshold float64     `yaml:"threshold,omitempty"`
}

// PointConfig is a grid position.
type PointConfig struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// DisplayConfig holds window settings for graphical mode.
type DisplayConfig struct {
	Scale     int    `yaml:"scale"` // screen pixels per cell
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
	HUD       bool   `yaml:"hud"`
}

// TelemetryConfig holds census and perf parameters.
type TelemetryConfig struct {
	Window     int    `yaml:"window"`      // ticks per census window
	PerfWindow int    `yaml:"perf_window"` // ticks averaged by the perf collector
	OutputDir  string `yaml:"output_dir"`  // empty disables CSV output
}

// LineageConfig holds lineage log settings.
type LineageConfig struct {
	Path string `yaml:"path"` // empty disables the log
}

// ObserverConfig holds the websocket observer settings.
type ObserverConfig struct {
	Addr string `yaml:"addr"` // empty disables the server
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Params      world.Params
	Segments    []genome.Segment
	Drain       events.DrainConfig
	Populations []Population
}

// Population is a validated PopulationConfig.
type Population struct {
	Kind      world.Kind
	Count     int
	Strategy  seeding.Options
	Overrides map[string]genome.Genome
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. Lists such as genome
// and populations are replaced wholesale when present in the file.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse layers an in-memory YAML document over the embedded defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	// Unmarshal into same struct - only overwrites fields present in data
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived validates the loaded config and calculates derived values.
func (c *Config) computeDerived() error {
	if err := c.Validate(); err != nil {
		return err
	}

	p, err := c.params()
	if err != nil {
		return err
	}
	c.Derived.Params = p

	c.Derived.Segments = make([]genome.Segment, len(c.Genome))
	for i, s := range c.Genome {
		c.Derived.Segments[i] = genome.Segment{Name: s.Name, Bits: s.Bits, Choices: s.Choices, Base: s.Base}
	}
	h, err := genome.NewHandler(c.Derived.Segments)
	if err != nil {
		return fmt.Errorf("config: genome: %w", err)
	}

	c.Derived.Drain = events.DrainConfig{
		Start: c.Channel.BatchStart,
		Max:   c.Channel.BatchMax,
		Step:  c.Channel.BatchStep,
	}

	c.Derived.Populations = c.Derived.Populations[:0]
	for i, pc := range c.Populations {
		pop, err := pc.resolve(h)
		if err != nil {
			return fmt.Errorf("config: populations[%d]: %w", i, err)
		}
		c.Derived.Populations = append(c.Derived.Populations, pop)
	}
	return nil
}

func (c *Config) params() (world.Params, error) {
	p := world.DefaultParams()
	var err error
	if p.Liveness, err = world.ParseLiveness(c.Simulation.Liveness); err != nil {
		return p, fmt.Errorf("config: simulation.liveness: %w", err)
	}
	if p.Faction, err = world.ParseFaction(c.Simulation.Faction); err != nil {
		return p, fmt.Errorf("config: simulation.faction: %w", err)
	}
	if p.Movement, err = world.ParseMovement(c.Simulation.Movement); err != nil {
		return p, fmt.Errorf("config: simulation.movement: %w", err)
	}
	p.MutationRate = c.Simulation.MutationRate
	p.CarrionTicks = c.Simulation.CarrionTicks

	cr := c.Creature
	p.TurnEnergy = cr.TurnEnergy
	p.Starvation = cr.Starvation
	p.Regen = cr.Regen
	p.FearDecay = cr.FearDecay
	p.FearGain = cr.FearGain
	p.EatBonus = cr.EatBonus
	p.HungerThreshold = cr.HungerThreshold
	p.YoungAge = cr.YoungAge
	p.ProcreateMin = cr.ProcreateMin
	p.ProcreateMax = cr.ProcreateMax
	p.AgeScale = cr.AgeScale
	p.MinTrait = cr.MinTrait
	p.EatCost = cr.EatCost
	p.ProcreateCost = cr.ProcreateCost
	p.AttackCost = cr.AttackCost
	p.MoveCost = cr.MoveCost
	p.DefendPenalty = cr.DefendPenalty
	return p, nil
}

func (pc PopulationConfig) resolve(h *genome.Handler) (Population, error) {
	kind, err := world.ParseKind(pc.Kind)
	if err != nil {
		return Population{}, err
	}
	if pc.Count < 0 {
		return Population{}, fmt.Errorf("count %d is negative", pc.Count)
	}
	overrides := make(map[string]genome.Genome, len(pc.Overrides))
	for name, bits := range pc.Overrides {
		g, err := genome.Parse(bits)
		if err != nil {
			return Population{}, fmt.Errorf("override %q: %w", name, err)
		}
		overrides[name] = g
	}
	if err := h.CheckOverrides(overrides); err != nil {
		return Population{}, err
	}
	s := pc.Strategy
	return Population{
		Kind:  kind,
		Count: pc.Count,
		Strategy: seeding.Options{
			Type:      s.Type,
			Seed:      s.Seed,
			Radius:    s.Radius,
			Point:     events.Position{X: s.Point.X, Y: s.Point.Y},
			Scale:     s.Scale,
			Threshold: s.Threshold,
		},
		Overrides: overrides,
	}, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
