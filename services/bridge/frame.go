package bridge

import (
	"encoding/json"
	"io"

	"powerseq-go/errcode"
)

// Frame types. A frame is a type byte, a big-endian uint16 length and the
// payload.
const (
	FramePing  byte = 0x01
	FramePong  byte = 0x02
	FramePub   byte = 0x10
	FrameClose byte = 0x7f
)

const maxFrame = 0xFFFF

type Frame struct {
	Type    byte
	Payload []byte
}

// Pub is the payload of a FramePub frame.
type Pub struct {
	Topic    string          `json:"topic"`
	Retained bool            `json:"retained,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// EncodePub builds a FramePub frame.
func EncodePub(topic string, payload any, retained bool) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, errcode.Wrap(errcode.InvalidParams, "bridge.encode", err)
	}
	b, err := json.Marshal(Pub{Topic: topic, Retained: retained, Payload: raw})
	if err != nil {
		return Frame{}, errcode.Wrap(errcode.InvalidParams, "bridge.encode", err)
	}
	return Frame{Type: FramePub, Payload: b}, nil
}

// DecodePub parses the payload of a FramePub frame.
func DecodePub(f Frame) (Pub, error) {
	var p Pub
	if f.Type != FramePub {
		return p, &errcode.E{C: errcode.InvalidParams, Op: "bridge.decode", Msg: "not a pub frame"}
	}
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return p, errcode.Wrap(errcode.InvalidParams, "bridge.decode", err)
	}
	return p, nil
}

type FrameReader struct {
	r   io.Reader
	hdr [3]byte
}

type FrameWriter struct{ w io.Writer }

func NewFrameReader(r io.Reader) *FrameReader { return &FrameReader{r: r} }
func NewFrameWriter(w io.Writer) *FrameWriter { return &FrameWriter{w: w} }

func (fr *FrameReader) ReadFrame() (Frame, error) {
	if _, err := io.ReadFull(fr.r, fr.hdr[:]); err != nil {
		return Frame{}, err
	}
	n := int(fr.hdr[1])<<8 | int(fr.hdr[2])
	f := Frame{Type: fr.hdr[0]}
	if n > 0 {
		f.Payload = make([]byte, n)
		if _, err := io.ReadFull(fr.r, f.Payload); err != nil {
			return Frame{}, err
		}
	}
	return f, nil
}

// WriteFrame sends header and payload in a single Write.
func (fw *FrameWriter) WriteFrame(f Frame) error {
	if len(f.Payload) > maxFrame {
		return &errcode.E{C: errcode.InvalidParams, Op: "bridge.write", Msg: "frame too large"}
	}
	b := make([]byte, 3+len(f.Payload))
	b[0] = f.Type
	b[1] = byte(len(f.Payload) >> 8)
	b[2] = byte(len(f.Payload))
	copy(b[3:], f.Payload)
	_, err := fw.w.Write(b)
	return err
}
