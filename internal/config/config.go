package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the settings of the demo programs.
type Config struct {
	Procs    int
	Problem  ProblemConfig
	Boundary BoundaryConfig
	Split    SplitConfig
	Output   OutputConfig
}

// ProblemConfig selects the model grid. Fields > 1 builds a coupled
// multi-field operator.
type ProblemConfig struct {
	NX       int
	NY       int
	Fields   int
	Coupling float64
}

// BoundaryConfig holds the prescribed value on boundary unknowns.
type BoundaryConfig struct {
	Value float64
}

// SplitConfig holds the block layout.
type SplitConfig struct {
	NR          int
	NC          int
	Interleaved bool
}

// OutputConfig controls what gets printed.
type OutputConfig struct {
	Data    bool
	Verbose bool
}

// Load reads configuration from file and env. Env var overrides use prefix PARCSR_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("procs", 2)
	v.SetDefault("problem.nx", 4)
	v.SetDefault("problem.ny", 4)
	v.SetDefault("problem.fields", 2)
	v.SetDefault("problem.coupling", -0.5)
	v.SetDefault("boundary.value", 1.0)
	v.SetDefault("split.nr", 2)
	v.SetDefault("split.nc", 2)
	v.SetDefault("split.interleaved", true)
	v.SetDefault("output.data", false)
	v.SetDefault("output.verbose", false)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("PARCSR_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("parcsr")
	}

	v.SetEnvPrefix("PARCSR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// a missing default file is fine, an explicit one is not
		if cfgPath != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.Procs < 1 {
		return fmt.Errorf("procs must be positive, got %d", c.Procs)
	}
	if c.Problem.NX < 1 || c.Problem.NY < 1 || c.Problem.Fields < 1 {
		return fmt.Errorf("problem size %d x %d x %d fields", c.Problem.NX, c.Problem.NY, c.Problem.Fields)
	}
	if c.Split.NR < 1 || c.Split.NC < 1 {
		return fmt.Errorf("split into %d x %d blocks", c.Split.NR, c.Split.NC)
	}
	return nil
}
