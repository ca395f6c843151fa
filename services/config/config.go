package config

import (
	"context"
	"encoding/json"

	"powerseq-go/bus"
	"powerseq-go/errcode"
	"powerseq-go/logx"
	"powerseq-go/sequencer"
	"powerseq-go/types"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Profiles lists the embedded device IDs.
func Profiles() []string {
	out := make([]string, 0, len(embeddedConfigs))
	for k := range embeddedConfigs {
		out = append(out, k)
	}
	return out
}

// Profile is a decoded device config.
type Profile struct {
	Board     types.BoardConfig     `json:"board"`
	Sequencer types.SequencerConfig `json:"pwrseq"`
	Telemetry types.TelemetryConfig `json:"telemetry"`
}

// Load decodes the embedded profile for device.
func Load(device string) (Profile, error) {
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return Profile{}, &errcode.E{C: errcode.NotConfigured, Op: "config.load", Msg: "no embedded config for device " + device}
	}
	return Decode(raw)
}

// Decode parses a profile document. Unknown keys are ignored and missing
// timing fields keep their defaults.
func Decode(raw []byte) (Profile, error) {
	p := Profile{Sequencer: sequencer.DefaultConfig()}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, errcode.Wrap(errcode.InvalidParams, "config.decode", err)
	}
	return p, nil
}

// typed maps well-known keys to their payload types. Other keys are
// published as json.RawMessage.
func typed(key string, raw json.RawMessage) (any, error) {
	switch key {
	case "board":
		return decodeAs[types.BoardConfig](raw)
	case "pwrseq":
		c := sequencer.DefaultConfig()
		err := json.Unmarshal(raw, &c)
		return c, err
	case "telemetry":
		return decodeAs[types.TelemetryConfig](raw)
	}
	return raw, nil
}

func decodeAs[T any](raw json.RawMessage) (any, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}

type ConfigService struct {
	Name string
	log  logx.Logger
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName, log: logx.New(serviceName)}
}

// publishConfig reads the device config and publishes each top-level key as a
// retained message.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return &errcode.E{C: errcode.InvalidParams, Op: "config.publish", Msg: "missing device ID in context"}
	}
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return &errcode.E{C: errcode.NotConfigured, Op: "config.publish", Msg: "no embedded config for device " + device}
	}
	return PublishRaw(conn, raw)
}

// PublishRaw publishes every top-level key of a JSON object as a retained
// config/<key> message.
func PublishRaw(conn *bus.Connection, raw []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return errcode.Wrap(errcode.InvalidParams, "config.publish", err)
	}
	for k, r := range m {
		v, err := typed(k, r)
		if err != nil {
			return &errcode.E{C: errcode.InvalidParams, Op: "config.publish", Msg: k, Err: err}
		}
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start publishes the device config in the background.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			s.log.Errorf("%v", err)
		}
	}()
}
