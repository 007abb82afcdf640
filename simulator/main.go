// Command simulator publishes a synthetic theater picture to the intel
// topics: routes and checkpoints on every tick, a new convoy at a fixed
// cadence. It exists to exercise a running convoyd without real upstreams.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

func main() {
	cfg := parseFlags()
	if err := (&cfg).Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli, err := newMQTTClient(cfg.Broker, "theater-sim")
	if err != nil {
		log.Fatalf("connect %s: %v", cfg.Broker, err)
	}
	defer cli.Disconnect(250)

	theater := NewTheater(cfg.Routes, cfg.Checkpoints, cfg.DriftRate, cfg.Seed)
	run(ctx, cli, theater, cfg)
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.IntVar(&cfg.Routes, "routes", 4, "number of routes")
	flag.IntVar(&cfg.Checkpoints, "checkpoints", 6, "number of traffic control points")
	flag.DurationVar(&cfg.ConvoyEvery, "convoy-every", time.Minute, "interval between new convoys")
	flag.DurationVar(&cfg.Interval, "interval", 15*time.Second, "intel publish interval")
	flag.Float64Var(&cfg.DriftRate, "drift-rate", 0.2, "per-tick mutation probability")
	flag.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "rng seed")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable verbose logging")
	flag.StringVar(&cfg.TopicConvoy, "topic-convoy", "intel/convoy", "convoy topic")
	flag.StringVar(&cfg.TopicRoute, "topic-route", "intel/route", "route topic")
	flag.StringVar(&cfg.TopicCheckpnt, "topic-checkpoint", "intel/checkpoint", "checkpoint topic")
	flag.Parse()
	return cfg
}

func run(ctx context.Context, cli paho.Client, theater *Theater, cfg Config) {
	intelTick := time.NewTicker(cfg.Interval)
	defer intelTick.Stop()
	convoyTick := time.NewTicker(cfg.ConvoyEvery)
	defer convoyTick.Stop()

	publishTheater(cli, theater, cfg)
	for {
		select {
		case <-ctx.Done():
			return
		case <-intelTick.C:
			theater.Drift()
			publishTheater(cli, theater, cfg)
		case <-convoyTick.C:
			c := theater.NewConvoy()
			publish(cli, cfg.TopicConvoy, c)
			log.Printf("convoy %s (%s) on %s", c.ID, c.Name, c.RouteID)
		}
	}
}

func publishTheater(cli paho.Client, theater *Theater, cfg Config) {
	for _, r := range theater.Routes {
		publish(cli, cfg.TopicRoute, r)
	}
	for _, cp := range theater.Checkpoints {
		publish(cli, cfg.TopicCheckpnt, cp)
	}
}

func publish(cli paho.Client, topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("marshal for %s: %v", topic, err)
		return
	}
	if token := cli.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
		log.Printf("publish %s: %v", topic, token.Error())
	}
}
