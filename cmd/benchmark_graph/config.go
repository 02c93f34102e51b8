package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type testConfig struct {
	Name           string  `yaml:"name"`            // friendly name for the test, should be unique
	Width          int     `yaml:"width"`           // width of dependency graph to construct
	TotalLayers    int     `yaml:"total_layers"`    // depth of dependency graph to construct, sources included
	StaticFraction float64 `yaml:"static_fraction"` // fraction of nodes that always read all their dependencies
	NSources       int     `yaml:"n_sources"`       // number of dependencies of each node
	ReadFraction   float64 `yaml:"read_fraction"`   // fraction of the last layer read in each iteration
	Iterations     int64   `yaml:"iterations"`      // number of test iterations
}

type suiteConfig struct {
	Repeats int          `yaml:"repeats"`
	Tests   []testConfig `yaml:"tests"`
}

func defaultSuite() suiteConfig {
	return suiteConfig{
		Repeats: 5,
		Tests: []testConfig{
			{
				Name:           "simple component",
				Width:          10,
				TotalLayers:    5,
				StaticFraction: 1,
				NSources:       2,
				ReadFraction:   0.2,
				Iterations:     60000,
			},
			{
				Name:           "dynamic component",
				Width:          10,
				TotalLayers:    10,
				StaticFraction: 0.75,
				NSources:       6,
				ReadFraction:   0.2,
				Iterations:     15000,
			},
			{
				Name:           "large web app",
				Width:          1000,
				TotalLayers:    12,
				StaticFraction: 0.95,
				NSources:       4,
				ReadFraction:   1,
				Iterations:     700,
			},
			{
				Name:           "wide dense",
				Width:          1000,
				TotalLayers:    5,
				StaticFraction: 1,
				NSources:       25,
				ReadFraction:   1,
				Iterations:     300,
			},
			{
				Name:           "deep",
				Width:          5,
				TotalLayers:    500,
				StaticFraction: 1,
				NSources:       3,
				ReadFraction:   1,
				Iterations:     500,
			},
			{
				Name:           "very dynamic",
				Width:          100,
				TotalLayers:    15,
				StaticFraction: 0.5,
				NSources:       6,
				ReadFraction:   1,
				Iterations:     200,
			},
		},
	}
}

func loadSuite(path string) (suiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return suiteConfig{}, fmt.Errorf("failed to read benchmark config: %w", err)
	}

	suite := suiteConfig{Repeats: defaultSuite().Repeats}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return suiteConfig{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := suite.validate(); err != nil {
		return suiteConfig{}, fmt.Errorf("invalid benchmark config: %w", err)
	}
	return suite, nil
}

func (s suiteConfig) validate() error {
	if s.Repeats < 1 {
		return fmt.Errorf("repeats must be at least 1, got %d", s.Repeats)
	}
	if len(s.Tests) == 0 {
		return fmt.Errorf("no tests")
	}
	for _, cfg := range s.Tests {
		if err := cfg.validate(); err != nil {
			return fmt.Errorf("%q: %w", cfg.Name, err)
		}
	}
	return nil
}

func (c testConfig) validate() error {
	switch {
	case c.Width < 1:
		return fmt.Errorf("width must be positive")
	case c.TotalLayers < 2:
		return fmt.Errorf("total_layers must be at least 2")
	case c.NSources < 1 || c.NSources > c.Width:
		// dependencies are picked among the previous row and must be distinct
		return fmt.Errorf("n_sources must be between 1 and width")
	case c.StaticFraction < 0 || c.StaticFraction > 1:
		return fmt.Errorf("static_fraction must be within [0, 1]")
	case c.ReadFraction < 0 || c.ReadFraction > 1:
		return fmt.Errorf("read_fraction must be within [0, 1]")
	case c.Iterations < 1:
		return fmt.Errorf("iterations must be positive")
	}
	return nil
}

func (c testConfig) title() string {
	title := fmt.Sprintf("%dx%d %d sources", c.Width, c.TotalLayers, c.NSources)
	if c.StaticFraction < 1 {
		title += " dynamic"
	}
	if c.ReadFraction < 1 {
		title += fmt.Sprintf(" read %0.2f%%", 100*c.ReadFraction)
	}
	return title
}
