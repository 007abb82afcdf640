package test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/milops/convoyd/app"
	"github.com/milops/convoyd/config"
	"github.com/milops/convoyd/core/model"
)

func waitForMQTTReady(broker string, timeout time.Duration) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("readiness-check")
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		lastErr = token.Error()
		time.Sleep(100 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for broker")
	}
	return lastErr
}

func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	conf := `listener 1883
allow_anonymous true
persistence false
log_dest stdout
log_type error
log_type warning
log_type notice
connection_messages true
`
	dir := t.TempDir()
	path := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{
			{
				HostFilePath:      path,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0644,
			},
		},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}
	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())
	if err := waitForMQTTReady(broker, 5*time.Second); err != nil {
		t.Logf("mosquitto not ready at %s: %v", broker, err)
		t.Skip("Mosquitto not ready after retries")
	}
	return cont, broker
}

func connectObserver(broker string, t *testing.T) paho.Client {
	t.Helper()
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("hq-observer")
	cli := paho.NewClient(opts)
	var connErr error
	for i := 0; i < 5; i++ {
		token := cli.Connect()
		token.Wait()
		connErr = token.Error()
		if connErr == nil {
			break
		}
		t.Logf("observer connect attempt %d to %s: %v", i+1, broker, connErr)
		time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
	}
	if connErr != nil {
		t.Logf("observer connect failed to %s: %v", broker, connErr)
		t.Skip("Mosquitto not ready after retries")
	}
	return cli
}

// TestConvoyFeedWithMQTTContainer drives the full service against a real
// broker: a route and a convoy stream in on the intel topics, an evaluation
// runs, and the issued recommendation comes back out on the dispatch topic.
func TestConvoyFeedWithMQTTContainer(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx := context.Background()

	cont, broker := startMosquitto(ctx, t)
	defer func() { _ = cont.Terminate(ctx) }()

	observer := connectObserver(broker, t)
	defer observer.Disconnect(100)

	recCh := make(chan []byte, 4)
	if token := observer.Subscribe("dispatch/recommendation", 0, func(_ paho.Client, m paho.Message) {
		recCh <- m.Payload()
	}); token.Wait() && token.Error() != nil {
		t.Fatalf("subscribe: %v", token.Error())
	}

	cfg := &config.Config{}
	cfg.Feed.Enabled = true
	cfg.Feed.Broker = broker
	cfg.Feed.ClientID = "convoyd-e2e"
	cfg.Engine.SetDefaults()
	cfg.Audit.Backend = "jsonl"
	cfg.Audit.Path = filepath.Join(t.TempDir(), "decisions.log")

	svc, err := app.New(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	defer func() { _ = svc.Close() }()

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(runCtx) }()
	// Let the forwarder subscribe before anything is issued.
	time.Sleep(200 * time.Millisecond)

	route := model.Route{
		ID:         "msr-tampa",
		Name:       "MSR TAMPA",
		DistanceKm: 62,
		Threat:     model.ThreatYellow,
	}
	routePayload, _ := json.Marshal(route)
	if token := observer.Publish("intel/route", 0, false, routePayload); token.Wait() && token.Error() != nil {
		t.Fatalf("publish route: %v", token.Error())
	}

	convoy := model.Convoy{
		ID:       "fuel-1",
		Name:     "FUEL PUSH 1",
		Vehicles: 9,
		Crew:     model.CrewRested,
		RouteID:  "msr-tampa",
	}
	convoyPayload, _ := json.Marshal(convoy)
	if token := observer.Publish("intel/convoy", 0, false, convoyPayload); token.Wait() && token.Error() != nil {
		t.Fatalf("publish convoy: %v", token.Error())
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := svc.Engine.Request(convoy.ID); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("convoy never reached the queue")
		}
		time.Sleep(50 * time.Millisecond)
	}

	rec, err := svc.Engine.Evaluate(ctx, convoy.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// No pull sources are configured, so the feed-populated cache answers.
	if rec.Source != "cached" {
		t.Errorf("source = %q, want cached", rec.Source)
	}
	if got := rec.Decision.String(); got != "RELEASE_WINDOW" {
		t.Errorf("decision = %s, want RELEASE_WINDOW", got)
	}

	select {
	case payload := <-recCh:
		var msg struct {
			MessageID      string               `json:"message_id"`
			Recommendation model.Recommendation `json:"recommendation"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode published recommendation: %v", err)
		}
		if msg.MessageID == "" {
			t.Error("published recommendation missing message id")
		}
		if msg.Recommendation.ConvoyID != convoy.ID {
			t.Errorf("published convoy = %s, want %s", msg.Recommendation.ConvoyID, convoy.ID)
		}
		if msg.Recommendation.ID != rec.ID {
			t.Errorf("published id = %s, want %s", msg.Recommendation.ID, rec.ID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("recommendation never published to dispatch topic")
	}
}
