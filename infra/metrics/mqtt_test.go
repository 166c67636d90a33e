package metrics

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfragab5890/ev-stats/core/factory"
	coremetrics "github.com/mfragab5890/ev-stats/core/metrics"
)

type fakeToken struct {
	err     error
	pending bool
}

func (t *fakeToken) Wait() bool                     { return !t.pending }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.pending }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.pending {
		close(ch)
	}
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

type fakeClient struct {
	mu           sync.Mutex
	connectErr   error
	publishTok   *fakeToken
	messages     []published
	disconnected bool
	opts         *paho.ClientOptions
}

func (f *fakeClient) Connect() paho.Token { return &fakeToken{err: f.connectErr} }
func (f *fakeClient) Disconnect(uint)     { f.disconnected = true }
func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, published{topic: topic, qos: qos, retain: retained, payload: payload.([]byte)})
	if f.publishTok != nil {
		return f.publishTok
	}
	return &fakeToken{}
}

func withFakeClient(t *testing.T, fc *fakeClient) {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
		fc.opts = opts
		return fc
	}
	t.Cleanup(func() { newMQTTClient = orig })
}

func TestMQTTSink_PublishesAnalysis(t *testing.T) {
	fc := &fakeClient{}
	withFakeClient(t, fc)
	sink, err := NewMQTTSink(MQTTConfig{Broker: "tcp://localhost:1883", TopicPrefix: "fleet/", QoS: 1, Retain: true, Username: "u", Password: "p"})
	require.NoError(t, err)

	soh := 88.5
	require.NoError(t, sink.RecordAnalysis(coremetrics.AnalysisEvent{RunID: "r1", VIN: "AB/C+1", SoH: &soh, Samples: 3}))
	require.Len(t, fc.messages, 1)
	msg := fc.messages[0]
	assert.Equal(t, "fleet/AB-C-1/analysis", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retain)

	var got coremetrics.AnalysisEvent
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, "r1", got.RunID)
	assert.Equal(t, 88.5, *got.SoH)
	assert.Equal(t, "u", fc.opts.Username)

	require.NoError(t, sink.RecordAnalysisFailure(coremetrics.AnalysisFailure{Source: "x.json", Reason: "bad"}))
	assert.Equal(t, "fleet/failures", fc.messages[1].topic)

	require.NoError(t, sink.Close())
	assert.True(t, fc.disconnected)
}

func TestMQTTSink_Errors(t *testing.T) {
	_, err := NewMQTTSink(MQTTConfig{})
	assert.Error(t, err, "broker is required")

	fc := &fakeClient{connectErr: errors.New("refused")}
	withFakeClient(t, fc)
	_, err = NewMQTTSink(MQTTConfig{Broker: "tcp://x:1883"})
	assert.ErrorContains(t, err, "refused")

	fc2 := &fakeClient{publishTok: &fakeToken{pending: true}}
	withFakeClient(t, fc2)
	sink, err := NewMQTTSink(MQTTConfig{Broker: "tcp://x:1883", Timeout: time.Millisecond})
	require.NoError(t, err)
	assert.ErrorContains(t, sink.RecordAnalysis(coremetrics.AnalysisEvent{}), "timeout")
	assert.Equal(t, "ev-stats/unknown/analysis", fc2.messages[0].topic)
}

func TestMQTTSink_FromFactory(t *testing.T) {
	fc := &fakeClient{}
	withFakeClient(t, fc)
	s, err := coremetrics.NewAnalysisSink([]factory.ModuleConfig{{
		Type: "mqtt",
		Conf: map[string]any{"broker": "tcp://x:1883", "qos": "1", "timeout": "2s"},
	}})
	require.NoError(t, err)
	sink, ok := s.(*MQTTSink)
	require.True(t, ok, "got %T", s)
	assert.Equal(t, 2*time.Second, sink.timeout)
	assert.Equal(t, byte(1), sink.qos)
	assert.Equal(t, "ev-stats", fc.opts.ClientID)

	_, err = coremetrics.NewAnalysisSink([]factory.ModuleConfig{{Type: "mqtt", Conf: map[string]any{"brokr": "x"}}})
	assert.Error(t, err)
}
