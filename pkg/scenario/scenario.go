package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/raterudder/solartracker/pkg/ephemeris"
	"github.com/raterudder/solartracker/pkg/simulator"
	"github.com/raterudder/solartracker/pkg/types"
	"gopkg.in/yaml.v3"
)

// DefaultStep is used when a scenario doesn't name a step.
const DefaultStep = time.Minute

// Scenario is the input shape of one simulation run, read from YAML files or JSON request
// bodies.
type Scenario struct {
	Panel    Panel          `yaml:"panel" json:"panel"`
	Location Coordinates    `yaml:"location" json:"location"`
	Provider string         `yaml:"provider" json:"provider,omitempty"`
	Model    *ModelOverride `yaml:"model" json:"model,omitempty"`

	Start time.Time `yaml:"start" json:"start"`
	// End is inclusive. Leave it unset and use DurationDays to cover whole days.
	End          time.Time `yaml:"end" json:"end"`
	DurationDays float64   `yaml:"duration_days" json:"durationDays,omitempty"`
	Step         string    `yaml:"step" json:"step,omitempty"`
	StepsPerDay  int       `yaml:"steps_per_day" json:"stepsPerDay,omitempty"`
}

// Panel is the panel geometry with the tilt in degrees.
type Panel struct {
	LengthM float64 `yaml:"length_m" json:"lengthM"`
	WidthM  float64 `yaml:"width_m" json:"widthM"`
	TiltDeg float64 `yaml:"tilt_deg" json:"tiltDeg"`
}

// Coordinates holds latitude and longitude as entered, validated in Build.
type Coordinates struct {
	Latitude  Coordinate `yaml:"latitude" json:"latitude"`
	Longitude Coordinate `yaml:"longitude" json:"longitude"`
}

// Coordinate is a textual coordinate in degrees. It decodes from both strings and numbers.
type Coordinate string

// UnmarshalJSON implements json.Unmarshaler.
func (c *Coordinate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Coordinate(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("coordinate must be a string or number: %w", err)
	}
	*c = Coordinate(n.String())
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Coordinate) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: coordinate must be a scalar", node.Line)
	}
	*c = Coordinate(node.Value)
	return nil
}

// Load reads and parses a YAML scenario file.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// Parse parses a YAML scenario. Unknown fields are rejected.
func Parse(raw []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidScenario, err)
	}
	return &s, nil
}

// Run is a validated scenario ready to execute.
type Run struct {
	Simulator   *simulator.Simulator
	Start       time.Time
	End         time.Time
	Step        time.Duration
	StepsPerDay int
}

// Build validates the scenario and constructs its simulator. The provider is resolved from
// providers and unset model fields and steps per day come from defaults.
func (s *Scenario) Build(providers *ephemeris.Map, defaults simulator.Config) (*Run, error) {
	if s.Start.IsZero() {
		return nil, fmt.Errorf("start is required: %w", types.ErrInvalidScenario)
	}

	step := DefaultStep
	if s.Step != "" {
		d, err := time.ParseDuration(s.Step)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", s.Step, types.ErrInvalidStep)
		}
		step = d
	}
	if step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %s: %w", step, types.ErrInvalidStep)
	}

	end := s.End
	switch {
	case s.DurationDays < 0 || math.IsNaN(s.DurationDays) || math.IsInf(s.DurationDays, 0):
		return nil, fmt.Errorf("duration_days must not be negative: %w", types.ErrInvalidScenario)
	case s.DurationDays > 0 && !end.IsZero():
		return nil, fmt.Errorf("end and duration_days are mutually exclusive: %w", types.ErrInvalidScenario)
	case s.DurationDays > 0:
		// end is inclusive so stop one step short of the next day
		end = s.Start.Add(time.Duration(s.DurationDays * float64(24*time.Hour))).Add(-step)
	case end.IsZero():
		end = s.Start
	}

	stepsPerDay := defaults.StepsPerDay
	if s.StepsPerDay < 0 {
		return nil, fmt.Errorf("steps_per_day must be positive, got %d: %w", s.StepsPerDay, types.ErrInvalidScenario)
	} else if s.StepsPerDay > 0 {
		stepsPerDay = s.StepsPerDay
	}

	provider, err := providers.Provider(s.Provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidScenario, err)
	}

	model := defaults.Model
	if s.Model != nil {
		model = mergeModel(defaults.Model, *s.Model)
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("model: %w: %w", types.ErrInvalidScenario, err)
	}

	// geometry is otherwise taken as-is, but NaN or Inf can't be written out as JSON
	for name, v := range map[string]float64{"length_m": s.Panel.LengthM, "width_m": s.Panel.WidthM, "tilt_deg": s.Panel.TiltDeg} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("panel %s must be finite: %w", name, types.ErrInvalidScenario)
		}
	}

	panel := types.PanelGeometry{
		Length: s.Panel.LengthM,
		Width:  s.Panel.WidthM,
		Tilt:   s.Panel.TiltDeg * math.Pi / 180,
	}
	sim, err := simulator.New(panel, string(s.Location.Latitude), string(s.Location.Longitude),
		simulator.WithProvider(provider),
		simulator.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return &Run{
		Simulator:   sim,
		Start:       s.Start,
		End:         end,
		Step:        step,
		StepsPerDay: stepsPerDay,
	}, nil
}

// ModelOverride replaces individual energy model constants for one scenario. Zero or nil
// fields keep the configured value.
type ModelOverride struct {
	PanelEfficiency float64 `yaml:"panel_efficiency" json:"panelEfficiency,omitempty"`
	SolarConstant   float64 `yaml:"solar_constant" json:"solarConstant,omitempty"`
	ClampNight      *bool   `yaml:"clamp_night" json:"clampNight,omitempty"`
}

// mergeModel overlays the set fields of override onto base.
func mergeModel(base simulator.EnergyModel, override ModelOverride) simulator.EnergyModel {
	out := base
	if override.PanelEfficiency != 0 {
		out.PanelEfficiency = override.PanelEfficiency
	}
	if override.SolarConstant != 0 {
		out.SolarConstant = override.SolarConstant
	}
	if override.ClampNight != nil {
		out.ClampNight = *override.ClampNight
	}
	return out
}

// Steps returns the number of records the run will produce.
func (r *Run) Steps() int {
	return simulator.StepCount(r.Start, r.End, r.Step)
}

// Result is the immutable output of a run.
type Result struct {
	Location      types.Location       `json:"location"`
	Panel         types.PanelGeometry  `json:"panel"`
	Records       []types.Record       `json:"records"`
	DailyAverages []types.DailyAverage `json:"dailyAverages"`
	Tracking      types.TrackingState  `json:"tracking"`
	Summary       simulator.Summary    `json:"summary"`
}

// Execute runs the simulation and collects its results.
func (r *Run) Execute(ctx context.Context) (*Result, error) {
	records, err := r.Simulator.Simulate(ctx, r.Start, r.End, r.Step)
	if err != nil {
		return nil, err
	}
	return &Result{
		Location:      r.Simulator.Location(),
		Panel:         r.Simulator.Panel(),
		Records:       records,
		DailyAverages: simulator.DailyAverages(records, r.StepsPerDay),
		Tracking:      r.Simulator.Tracking().Finite(),
		Summary:       simulator.Summarize(records),
	}, nil
}

// String implements fmt.Stringer.
func (r *Run) String() string {
	return r.Simulator.Location().String() + " " + r.Start.Format(time.RFC3339) + ".." +
		r.End.Format(time.RFC3339) + " every " + r.Step.String() + " (" + strconv.Itoa(r.Steps()) + " steps)"
}
