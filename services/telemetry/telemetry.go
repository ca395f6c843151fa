// Package telemetry puts the sequencer on the bus and turns bus traffic back
// into log lines.
//
// Topics:
//
//	pwrseq/state            retained types.StateValue
//	pwrseq/event/<name>     types.TransitionEvent
//	pwrseq/info             retained types.Info
//	pwrseq/fault            retained types.HALFault
//	pwrseq/status/get       request, replied with types.Status
//	config/telemetry        retained types.TelemetryConfig
package telemetry

import (
	"context"
	"time"

	"powerseq-go/bus"
	"powerseq-go/logx"
	"powerseq-go/types"
)

var (
	TopicState     = bus.T("pwrseq", "state")
	TopicInfo      = bus.T("pwrseq", "info")
	TopicFault     = bus.T("pwrseq", "fault")
	TopicStatusGet = bus.T("pwrseq", "status", "get")
	TopicAll       = bus.T("pwrseq", bus.Multi)
	TopicConfig    = bus.T("config", "telemetry")
)

func TopicEvent(name types.EventName) bus.Topic { return bus.T("pwrseq", "event", string(name)) }

// Publisher implements sequencer.Publisher over a bus connection. Publishing
// never blocks.
type Publisher struct{ conn *bus.Connection }

func NewPublisher(conn *bus.Connection) *Publisher { return &Publisher{conn: conn} }

func (p *Publisher) PublishState(v types.StateValue) {
	p.conn.Publish(p.conn.NewMessage(TopicState, v, true))
}

func (p *Publisher) PublishEvent(e types.TransitionEvent) {
	p.conn.Publish(p.conn.NewMessage(TopicEvent(e.Name), e, false))
}

func (p *Publisher) PublishInfo(i types.Info) {
	p.conn.Publish(p.conn.NewMessage(TopicInfo, i, true))
}

func (p *Publisher) PublishFault(f types.HALFault) {
	p.conn.Publish(p.conn.NewMessage(TopicFault, f, true))
}

// FaultReporter adapts PublishFault to hal.WatchErrors.
func (p *Publisher) FaultReporter(now func() int64) func(error) {
	return func(err error) {
		f := types.HALFault{TS: now()}
		if err != nil {
			f.Error = err.Error()
		}
		p.PublishFault(f)
	}
}

// Service logs transitions, answers status requests and optionally prints a
// periodic state line.
type Service struct {
	log  logx.Logger
	tick logx.Logger

	info     types.Info
	state    types.StateValue
	hasState bool
}

func NewService() *Service {
	return &Service{log: logx.New("seq"), tick: logx.New("telemetry")}
}

// Start runs the service until ctx is cancelled.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(TopicAll)
	cfgSub := conn.Subscribe(TopicConfig)
	go s.run(ctx, conn, sub, cfgSub)
}

func (s *Service) run(ctx context.Context, conn *bus.Connection, sub, cfgSub *bus.Subscription) {
	defer conn.Unsubscribe(sub)
	defer conn.Unsubscribe(cfgSub)

	var (
		ticker *time.Ticker
		tickC  <-chan time.Time
		cfgC   = cfgSub.Channel()
	)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			s.handle(conn, msg)
		case msg, ok := <-cfgC:
			if !ok {
				cfgC = nil
				continue
			}
			cfg, ok := msg.Payload.(types.TelemetryConfig)
			if !ok {
				s.tick.Warnf("ignoring config payload %T", msg.Payload)
				continue
			}
			if ticker != nil {
				ticker.Stop()
				ticker, tickC = nil, nil
			}
			if cfg.IntervalS > 0 {
				ticker = time.NewTicker(time.Duration(cfg.IntervalS) * time.Second)
				tickC = ticker.C
			}
		case <-tickC:
			if s.hasState {
				s.tick.Infof("%s", StateLine(s.state))
			}
		}
	}
}

func (s *Service) handle(conn *bus.Connection, msg *bus.Message) {
	switch p := msg.Payload.(type) {
	case types.StateValue:
		prev, had := s.state, s.hasState
		s.state, s.hasState = p, true
		if !had || prev.Phase != p.Phase {
			s.log.Infof("%s", StateLine(p))
		}
	case types.TransitionEvent:
		s.logEvent(p)
	case types.HALFault:
		if p.Error != "" {
			s.log.Errorf("line i/o: %s", p.Error)
		} else {
			s.log.Infof("line i/o recovered")
		}
	case types.Info:
		s.info = p
		s.log.Infof("%s on %s (%s)", p.Firmware, p.Board, p.Backend)
	default:
		if msg.Topic.String() == TopicStatusGet.String() {
			conn.Reply(msg, types.Status{Info: s.info, State: s.state, HasState: s.hasState}, false)
		}
	}
}

func (s *Service) logEvent(e types.TransitionEvent) {
	switch e.Name {
	case types.EventHang:
		s.log.Errorf("hang: power_held did not settle after %d steps", e.Steps)
	case types.EventPowerHeld, types.EventReleased:
		s.log.Infof("%s after %d steps", e.Name, e.Steps)
	default:
		s.log.Infof("%s", e.Name)
	}
}

// StateLine renders a state as one key=value log line.
func StateLine(v types.StateValue) string {
	return "phase=" + string(v.Phase) +
		" started=" + b01(v.Started) +
		" bus=" + b01(v.Signals.BusPower) +
		" boot=" + b01(v.Signals.Boot) +
		" held=" + b01(v.Signals.PowerHeld) +
		" on=" + b01(v.Signals.PowerOn) +
		" off=" + b01(v.Signals.PowerOff)
}

func b01(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
