package main

import (
	"fmt"
	"time"
)

// Config drives the theater simulator.
type Config struct {
	Broker        string
	Routes        int
	Checkpoints   int
	ConvoyEvery   time.Duration
	Interval      time.Duration
	DriftRate     float64
	Seed          int64
	Verbose       bool
	TopicConvoy   string
	TopicRoute    string
	TopicCheckpnt string
}

func (c *Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	if c.Routes <= 0 {
		return fmt.Errorf("routes must be positive")
	}
	if c.DriftRate < 0 || c.DriftRate > 1 {
		return fmt.Errorf("drift-rate must be in [0,1]")
	}
	return nil
}
