// Package feed connects the engine to the battlefield intel bus over
// MQTT: convoy, route and checkpoint records stream in, issued
// recommendations stream out. Every inbound record also lands in the
// engine's snapshot cache so evaluation degrades gracefully when the
// broker drops.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/milops/convoyd/core/intel"
	"github.com/milops/convoyd/core/model"
	"github.com/milops/convoyd/core/queue"
	"github.com/milops/convoyd/infra/logger"
)

// Ingestor is the engine-facing surface the feed pushes into.
type Ingestor interface {
	EnqueueConvoy(c model.Convoy) error
	Cache() *intel.Cache
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Feed is the MQTT adapter between the broker and the engine.
type Feed struct {
	cli        pahoClient
	cfg        Config
	ing        Ingestor
	log        logger.Logger
	maxRetries int
	backoff    time.Duration
}

// New connects to the broker and subscribes to the intel topics.
func New(cfg Config, ing Ingestor) (*Feed, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("intel_feed")
	f := &Feed{
		cfg:        cfg,
		ing:        ing,
		log:        log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("intel feed connected to %s", cfg.Broker)
		f.subscribe(c.Subscribe)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("intel feed connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to intel broker")
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	f.cli = c
	return f, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

type subscribeFn func(topic string, qos byte, callback paho.MessageHandler) paho.Token

func (f *Feed) subscribe(sub subscribeFn) {
	topics := map[string]paho.MessageHandler{
		f.cfg.Topics.Convoy:     f.onConvoy,
		f.cfg.Topics.Route:      f.onRoute,
		f.cfg.Topics.Checkpoint: f.onCheckpoint,
	}
	for topic, handler := range topics {
		if token := sub(topic, f.qos(topic), handler); token.Wait() && token.Error() != nil {
			f.log.Errorf("subscribe %s: %v", topic, token.Error())
		}
	}
}

func (f *Feed) qos(topic string) byte {
	if q, ok := f.cfg.QoS[topic]; ok {
		return q
	}
	return 0
}

func (f *Feed) onConvoy(_ paho.Client, msg paho.Message) {
	var c model.Convoy
	if err := json.Unmarshal(msg.Payload(), &c); err != nil {
		ingestFailures.WithLabelValues("convoy").Inc()
		f.log.Errorf("decode convoy record: %v", err)
		return
	}
	if err := f.ing.EnqueueConvoy(c); err != nil {
		// Repeated state updates for an already queued convoy are routine.
		if errors.Is(err, queue.ErrDuplicateRequest) {
			f.log.Debugf("convoy %s already queued", c.ID)
			return
		}
		ingestFailures.WithLabelValues("convoy").Inc()
		f.log.Warnf("ingest convoy %s: %v", c.ID, err)
		return
	}
	messagesIngested.WithLabelValues("convoy").Inc()
}

func (f *Feed) onRoute(_ paho.Client, msg paho.Message) {
	var r model.Route
	if err := json.Unmarshal(msg.Payload(), &r); err != nil {
		ingestFailures.WithLabelValues("route").Inc()
		f.log.Errorf("decode route record: %v", err)
		return
	}
	f.ing.Cache().PutRoute(r)
	messagesIngested.WithLabelValues("route").Inc()
}

func (f *Feed) onCheckpoint(_ paho.Client, msg paho.Message) {
	var cp model.Checkpoint
	if err := json.Unmarshal(msg.Payload(), &cp); err != nil {
		ingestFailures.WithLabelValues("checkpoint").Inc()
		f.log.Errorf("decode checkpoint record: %v", err)
		return
	}
	f.ing.Cache().PutCheckpoint(cp)
	messagesIngested.WithLabelValues("checkpoint").Inc()
}

// recommendationMessage is the outbound wire format.
type recommendationMessage struct {
	MessageID      string               `json:"message_id"`
	Recommendation model.Recommendation `json:"recommendation"`
	PublishedAt    int64                `json:"published_at"`
}

// PublishRecommendation pushes an issued recommendation to the dispatch
// topic, retrying with exponential backoff.
func (f *Feed) PublishRecommendation(rec model.Recommendation) error {
	msg := recommendationMessage{
		MessageID:      uuid.NewString(),
		Recommendation: rec,
		PublishedAt:    time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	topic := f.cfg.Topics.Recommendation
	var publishErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		token := f.cli.Publish(topic, f.qos(topic), false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			publishSuccess.Inc()
			f.log.Infof("published recommendation %s for convoy %s", rec.ID, rec.ConvoyID)
			return nil
		}
		f.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(f.backoff * time.Duration(1<<attempt))
	}
	publishFailure.Inc()
	return fmt.Errorf("feed: publish recommendation %s: %w", rec.ID, publishErr)
}

// Close gracefully disconnects from the broker.
func (f *Feed) Close() {
	if f.cli != nil && f.cli.IsConnected() {
		f.cli.Disconnect(250)
	}
}
