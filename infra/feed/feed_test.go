package feed

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/milops/convoyd/core/intel"
	"github.com/milops/convoyd/core/model"
	"github.com/milops/convoyd/core/queue"
)

type fakeIngestor struct {
	cache    *intel.Cache
	enqueued []model.Convoy
	err      error
}

func newFakeIngestor() *fakeIngestor {
	return &fakeIngestor{cache: intel.NewCache()}
}

func (f *fakeIngestor) EnqueueConvoy(c model.Convoy) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, c)
	return nil
}

func (f *fakeIngestor) Cache() *intel.Cache { return f.cache }

type mockClient struct {
	opts       *paho.ClientOptions
	subscribed []struct {
		topic string
		qos   byte
	}
	published []struct {
		topic   string
		payload []byte
	}
	publishErrs []error
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) {}
func (m *mockClient) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	m.published = append(m.published, struct {
		topic   string
		payload []byte
	}{topic, payload.([]byte)})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}
func (m *mockClient) Subscribe(topic string, qos byte, _ paho.MessageHandler) paho.Token {
	m.subscribed = append(m.subscribed, struct {
		topic string
		qos   byte
	}{topic, qos})
	return &dummyToken{}
}
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return &dummyToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return true }

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct{ p []byte }

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return "" }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}

func withMockClient(t *testing.T) *mockClient {
	t.Helper()
	mc := &mockClient{}
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
	return mc
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if cfg.Topics.Convoy != "intel/convoy" || cfg.Topics.Recommendation != "dispatch/recommendation" {
		t.Fatalf("topic defaults: %+v", cfg.Topics)
	}
	if cfg.MaxRetries != 3 || cfg.BackoffMS != 100 {
		t.Fatalf("retry defaults: %+v", cfg)
	}
	if err := (Config{Enabled: true}).Validate(); err == nil {
		t.Fatal("enabled feed without broker must not validate")
	}
	if err := (Config{}).Validate(); err != nil {
		t.Fatalf("disabled feed should validate: %v", err)
	}
}

func TestFeedSubscribesOnConnect(t *testing.T) {
	mc := withMockClient(t)
	cfg := Config{Enabled: true, Broker: "tcp://localhost:1883", QoS: map[string]byte{"intel/convoy": 1}}
	if _, err := New(cfg, newFakeIngestor()); err != nil {
		t.Fatalf("new feed: %v", err)
	}
	if len(mc.subscribed) != 3 {
		t.Fatalf("subscribed to %d topics, want 3", len(mc.subscribed))
	}
	for _, sub := range mc.subscribed {
		if sub.topic == "intel/convoy" && sub.qos != 1 {
			t.Fatalf("convoy qos = %d, want 1", sub.qos)
		}
	}
}

func TestFeedIngestsConvoy(t *testing.T) {
	withMockClient(t)
	ing := newFakeIngestor()
	f, err := New(Config{Enabled: true, Broker: "tcp://localhost:1883"}, ing)
	if err != nil {
		t.Fatalf("new feed: %v", err)
	}
	payload, _ := json.Marshal(model.Convoy{ID: "c1", Name: "AMMO RUN 3", RouteID: "msr-jade"})
	f.onConvoy(nil, mockMessage{p: payload})
	if len(ing.enqueued) != 1 || ing.enqueued[0].ID != "c1" {
		t.Fatalf("enqueued: %+v", ing.enqueued)
	}

	// Repeated state updates for a queued convoy are not errors.
	ing.err = queue.ErrDuplicateRequest
	f.onConvoy(nil, mockMessage{p: payload})
	if len(ing.enqueued) != 1 {
		t.Fatal("duplicate must not enqueue again")
	}

	f.onConvoy(nil, mockMessage{p: []byte("not json")})
	if len(ing.enqueued) != 1 {
		t.Fatal("malformed payload must not enqueue")
	}
}

func TestFeedCachesRouteAndCheckpoint(t *testing.T) {
	withMockClient(t)
	ing := newFakeIngestor()
	f, err := New(Config{Enabled: true, Broker: "tcp://localhost:1883"}, ing)
	if err != nil {
		t.Fatalf("new feed: %v", err)
	}
	routePayload, _ := json.Marshal(model.Route{ID: "msr-jade", DistanceKm: 120})
	f.onRoute(nil, mockMessage{p: routePayload})
	if _, ok := ing.cache.Route("msr-jade"); !ok {
		t.Fatal("route not cached")
	}
	cpPayload, _ := json.Marshal(model.Checkpoint{ID: "tcp-4", TrafficDensity: 0.5})
	f.onCheckpoint(nil, mockMessage{p: cpPayload})
	if _, ok := ing.cache.Checkpoint("tcp-4"); !ok {
		t.Fatal("checkpoint not cached")
	}
}

func TestPublishRecommendationRetries(t *testing.T) {
	mc := withMockClient(t)
	f, err := New(Config{Enabled: true, Broker: "tcp://localhost:1883", BackoffMS: 1}, newFakeIngestor())
	if err != nil {
		t.Fatalf("new feed: %v", err)
	}
	mc.publishErrs = []error{fmt.Errorf("net fail")}
	rec := model.Recommendation{ID: "rec-1", ConvoyID: "c1", Decision: model.DecisionHold}
	if err := f.PublishRecommendation(rec); err != nil {
		t.Fatalf("publish with one transient failure: %v", err)
	}
	if len(mc.published) != 2 {
		t.Fatalf("published %d times, want 2", len(mc.published))
	}

	var msg recommendationMessage
	if err := json.Unmarshal(mc.published[1].payload, &msg); err != nil {
		t.Fatalf("decode published payload: %v", err)
	}
	if msg.MessageID == "" || msg.Recommendation.ID != "rec-1" {
		t.Fatalf("published message: %+v", msg)
	}

	mc.publishErrs = []error{fmt.Errorf("a"), fmt.Errorf("b"), fmt.Errorf("c"), fmt.Errorf("d")}
	if err := f.PublishRecommendation(rec); err == nil {
		t.Fatal("exhausted retries must error")
	}
}

func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	if err := os.WriteFile(certFile, certPEM, 0644); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0644); err != nil {
		t.Fatalf("write key: %v", err)
	}
	if err := os.WriteFile(caFile, certPEM, 0644); err != nil {
		t.Fatalf("write ca: %v", err)
	}
	return
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load tls: %v", err)
	}
	if len(tlsCfg.Certificates) == 0 || tlsCfg.RootCAs == nil {
		t.Fatal("tls material not loaded")
	}
	if _, err := (Config{UseTLS: true}).LoadTLSConfig(); err == nil {
		t.Fatal("missing file paths must error")
	}
}
