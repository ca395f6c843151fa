// Command pwrseq-mon attaches to a board's telemetry link and prints the
// mirrored pwrseq/# traffic, one line per frame.
//
//	pwrseq-mon -port /dev/ttyUSB0
package main

import (
	"encoding/json"
	"flag"
	"io"
	"os"
	"time"

	"powerseq-go/errcode"
	"powerseq-go/host/serial"
	"powerseq-go/logx"
	"powerseq-go/services/bridge"
	"powerseq-go/services/telemetry"
	"powerseq-go/types"
	"powerseq-go/x/fmtx"
)

var log = logx.New("mon")

func main() {
	port := flag.String("port", "/dev/ttyUSB0", "serial device")
	baud := flag.Uint("baud", serial.DefaultBaud, "baud rate")
	raw := flag.Bool("raw", false, "print payload JSON as received")
	flag.Parse()

	if err := run(*port, uint32(*baud), *raw); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(port string, baud uint32, raw bool) error {
	p, err := serial.Open(types.SerialConfig{Port: port, Baud: baud}, 0)
	if err != nil {
		return err
	}
	defer p.Close()
	return monitor(p, raw, os.Stdout)
}

// monitor drops input queued before we attached, pings the board and prints
// frames until the board closes the link or a read fails.
func monitor(p serial.Port, raw bool, out io.Writer) error {
	if err := p.Flush(); err != nil {
		return &errcode.E{C: errcode.BusError, Op: "mon.flush", Err: err}
	}
	rd := bridge.NewFrameReader(p)
	wr := bridge.NewFrameWriter(p)
	_ = wr.WriteFrame(bridge.Frame{Type: bridge.FramePing})
	for {
		f, err := rd.ReadFrame()
		if err != nil {
			return &errcode.E{C: errcode.BusError, Op: "mon.link", Err: err}
		}
		switch f.Type {
		case bridge.FramePing:
			_ = wr.WriteFrame(bridge.Frame{Type: bridge.FramePong})
		case bridge.FramePong:
			log.Debugf("pong")
		case bridge.FrameClose:
			log.Infof("board closed the link")
			return nil
		case bridge.FramePub:
			pub, err := bridge.DecodePub(f)
			if err != nil {
				log.Warnf("%v", err)
				continue
			}
			fmtx.Fprintf(out, "%s %s\n", time.Now().Format("15:04:05.000"), render(pub, raw))
		}
	}
}

func render(p bridge.Pub, raw bool) string {
	if !raw {
		switch p.Topic {
		case "pwrseq/state":
			var v types.StateValue
			if json.Unmarshal(p.Payload, &v) == nil {
				return p.Topic + " " + telemetry.StateLine(v)
			}
		case "pwrseq/fault":
			var v types.HALFault
			if json.Unmarshal(p.Payload, &v) == nil {
				if v.Error == "" {
					return p.Topic + " cleared"
				}
				return p.Topic + " " + v.Error
			}
		case "pwrseq/info":
			var v types.Info
			if json.Unmarshal(p.Payload, &v) == nil {
				return p.Topic + " " + v.Firmware + " board=" + v.Board
			}
		}
	}
	return p.Topic + " " + string(p.Payload)
}
