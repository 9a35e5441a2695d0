package simulator

import (
	"fmt"
	"strconv"

	"github.com/levenlabs/go-lflag"
)

// Config holds the flag-configurable simulation defaults.
type Config struct {
	Model       EnergyModel
	StepsPerDay int
}

// Configured registers the simulation flags and returns the Config they fill in.
func Configured() *Config {
	cfg := &Config{
		Model:       DefaultEnergyModel(),
		StepsPerDay: DefaultStepsPerDay,
	}
	lflag.JSON(&cfg.Model, "energy-model", cfg.Model, "JSON energy model constants (panelEfficiency, solarConstant in W/m^2, clampNight)")
	steps := lflag.String("steps-per-day", strconv.Itoa(DefaultStepsPerDay), "Number of consecutive records averaged into one day")

	lflag.Do(func() {
		if err := cfg.Model.Validate(); err != nil {
			panic(fmt.Sprintf("invalid energy-model: %v", err))
		}
		n, err := strconv.Atoi(*steps)
		if err != nil || n <= 0 {
			panic(fmt.Sprintf("invalid steps-per-day: %q", *steps))
		}
		cfg.StepsPerDay = n
	})
	return cfg
}
