// Package bridge mirrors the sequencer's bus traffic (pwrseq/#) onto a serial
// link as length-prefixed JSON frames, for a host-side monitor. The link is
// configured from config/board; an empty link port leaves it idle.
package bridge

import (
	"context"
	"io"
	"sync"
	"time"

	"powerseq-go/bus"
	"powerseq-go/errcode"
	"powerseq-go/logx"
	"powerseq-go/types"
	"powerseq-go/x/timex"
)

var (
	TopicState  = bus.T("link", "state")
	topicBoard  = bus.T("config", "board")
	topicMirror = bus.T("pwrseq", bus.Multi)
)

const pingEvery = 5 * time.Second

// Dial opens the configured port. Platform code injects it: uartx on RP2,
// tarm/serial on host builds.
var Dial func(ctx context.Context, c types.SerialConfig) (io.ReadWriteCloser, error)

// Start runs the bridge until ctx is cancelled.
func Start(ctx context.Context, conn *bus.Connection) {
	s := &Service{conn: conn, log: logx.New("link")}
	s.run(ctx)
}

type Service struct {
	conn *bus.Connection
	log  logx.Logger

	mu     sync.Mutex
	curRun context.CancelFunc
	cur    types.SerialConfig
}

func (s *Service) run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicBoard)
	defer s.conn.Unsubscribe(cfgSub)

	s.publishState(types.LinkIdle, "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			s.stopCurrent()
			return
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.publishState(types.LinkError, "config_subscription_closed", nil)
				return
			}
			b, ok := msg.Payload.(types.BoardConfig)
			if !ok {
				s.publishState(types.LinkError, "config_decode_failed", nil)
				continue
			}
			s.reconfigure(ctx, b.Link)
		}
	}
}

func (s *Service) stopCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
}

func (s *Service) reconfigure(parent context.Context, c types.SerialConfig) {
	s.mu.Lock()
	if s.curRun != nil && c == s.cur {
		s.mu.Unlock()
		return
	}
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
	s.cur = c
	if c.Port == "" {
		s.mu.Unlock()
		s.publishState(types.LinkIdle, "disabled", nil)
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.curRun = cancel
	s.mu.Unlock()

	go s.runLink(ctx, c)
}

func (s *Service) runLink(ctx context.Context, c types.SerialConfig) {
	if Dial == nil {
		s.publishState(types.LinkError, "transport_init_failed",
			&errcode.E{C: errcode.NotConfigured, Op: "bridge.dial", Msg: "no dialler for " + c.Port})
		return
	}

	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	for {
		rwc, err := Dial(ctx, c)
		if err != nil {
			s.publishState(types.LinkDegraded, "dial_failed_retrying", err)
			if !sleep(ctx, backoff()) {
				return
			}
			continue
		}

		s.publishState(types.LinkUp, "link_established", nil)
		s.log.Infof("up on %s", c.Port)
		err = s.handleLink(ctx, rwc)
		if err == nil {
			return
		}
		s.publishState(types.LinkDegraded, "link_lost_retrying", err)
		if !sleep(ctx, backoff()) {
			return
		}
	}
}

// handleLink forwards pwrseq/# until ctx ends (nil) or the link fails.
// Retained state is replayed on every (re)connect by the subscription. It
// closes rwc and returns only after its reader has stopped.
func (s *Service) handleLink(ctx context.Context, rwc io.ReadWriteCloser) error {
	sub := s.conn.Subscribe(topicMirror)
	defer s.conn.Unsubscribe(sub)

	readerDone := make(chan struct{})
	defer func() {
		_ = rwc.Close()
		<-readerDone
	}()

	var wmu sync.Mutex
	wr := NewFrameWriter(rwc)
	write := func(f Frame) error {
		wmu.Lock()
		defer wmu.Unlock()
		return wr.WriteFrame(f)
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(readerDone)
		rd := NewFrameReader(rwc)
		for {
			f, err := rd.ReadFrame()
			if err != nil {
				errCh <- err
				return
			}
			switch f.Type {
			case FramePing:
				if err := write(Frame{Type: FramePong}); err != nil {
					errCh <- err
					return
				}
			case FrameClose:
				errCh <- io.EOF
				return
			}
		}
	}()

	tick := time.NewTicker(pingEvery)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = write(Frame{Type: FrameClose})
			return nil
		case err := <-errCh:
			return err
		case <-tick.C:
			if err := write(Frame{Type: FramePing}); err != nil {
				return err
			}
		case msg, ok := <-sub.Channel():
			if !ok {
				return nil
			}
			if msg.Payload == nil {
				// Requests such as pwrseq/status/get carry no payload.
				continue
			}
			f, err := EncodePub(msg.Topic.String(), msg.Payload, msg.Retained)
			if err != nil {
				s.log.Warnf("drop %s: %v", msg.Topic, err)
				continue
			}
			if err := write(f); err != nil {
				return err
			}
		}
	}
}

func (s *Service) publishState(level types.LinkLevel, status string, err error) {
	v := types.LinkState{Level: level, Status: status, TS: timex.NowMs()}
	if err != nil {
		v.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(TopicState, v, true))
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	cur := min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
