package recording

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/offlinefirst/actionrec/pkg/keys"
)

type wireRecord struct {
	T    Kind    `json:"t"`
	DT   float64 `json:"dt"`
	Data any     `json:"data"`
}

type keyData struct {
	Key string `json:"key"`
}

type pointData struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type clickData struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Button  Button `json:"button"`
	Pressed bool   `json:"pressed"`
}

type scrollData struct {
	X  int `json:"x"`
	Y  int `json:"y"`
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Encode serialises events as an indented JSON array of {t, dt, data}
// records.
func Encode(events []Event) ([]byte, error) {
	records := make([]wireRecord, 0, len(events))
	for i, ev := range events {
		rec, err := toWire(i, ev)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode recording: %w", err)
	}
	return buf.Bytes(), nil
}

func toWire(index int, ev Event) (wireRecord, error) {
	if math.IsNaN(ev.Elapsed) || math.IsInf(ev.Elapsed, 0) || ev.Elapsed < 0 {
		return wireRecord{}, malformed(index, "elapsed %v is not a non-negative finite number", ev.Elapsed)
	}
	rec := wireRecord{T: ev.Kind, DT: ev.Elapsed}
	switch ev.Kind {
	case KeyPress, KeyRelease:
		if ev.Key.IsZero() {
			return wireRecord{}, malformed(index, "%s without key", ev.Kind)
		}
		rec.Data = keyData{Key: ev.Key.String()}
	case MouseMove:
		rec.Data = pointData{X: ev.X, Y: ev.Y}
	case MouseClick:
		if !ev.Button.Valid() {
			return wireRecord{}, malformed(index, "unknown button %q", ev.Button)
		}
		rec.Data = clickData{X: ev.X, Y: ev.Y, Button: ev.Button, Pressed: ev.Pressed}
	case MouseScroll:
		rec.Data = scrollData{X: ev.X, Y: ev.Y, DX: ev.DX, DY: ev.DY}
	default:
		return wireRecord{}, malformed(index, "unknown event kind %q", ev.Kind)
	}
	return rec, nil
}

// RawRecord is one undecoded element of a persisted recording.
type RawRecord json.RawMessage

// DecodeRecords checks that data is a JSON array and splits it into records
// without validating them, so callers can decode lazily.
func DecodeRecords(data []byte) ([]RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, malformed(-1, "expected a JSON array of records")
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &MalformedError{Index: -1, Reason: "invalid JSON", Err: err}
	}
	records := make([]RawRecord, len(raw))
	for i := range raw {
		records[i] = RawRecord(raw[i])
	}
	return records, nil
}

// Decode parses and fully validates a persisted recording.
func Decode(data []byte) ([]Event, error) {
	records, err := DecodeRecords(data)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(records))
	for i, rec := range records {
		ev, err := rec.Event(i)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// Event decodes and validates the record; index is used for error reporting.
func (r RawRecord) Event(index int) (Event, error) {
	var wire struct {
		T    *string                    `json:"t"`
		DT   *float64                   `json:"dt"`
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r, &wire); err != nil {
		return Event{}, &MalformedError{Index: index, Reason: "not a record object", Err: err}
	}
	if wire.T == nil {
		return Event{}, malformed(index, "missing field \"t\"")
	}
	if wire.DT == nil {
		return Event{}, malformed(index, "missing field \"dt\"")
	}
	if wire.Data == nil {
		return Event{}, malformed(index, "missing field \"data\"")
	}
	if *wire.DT < 0 {
		return Event{}, malformed(index, "negative dt %v", *wire.DT)
	}

	kind := Kind(*wire.T)
	p := payload{index: index, data: wire.Data}
	ev := Event{Kind: kind, Elapsed: *wire.DT}

	var err error
	switch kind {
	case KeyPress, KeyRelease:
		ev.Key, err = p.key("key")
	case MouseMove:
		ev.X, ev.Y, err = p.point()
	case MouseClick:
		if ev.X, ev.Y, err = p.point(); err != nil {
			break
		}
		if ev.Button, err = p.button("button"); err != nil {
			break
		}
		ev.Pressed, err = p.boolField("pressed")
	case MouseScroll:
		if ev.X, ev.Y, err = p.point(); err != nil {
			break
		}
		if ev.DX, err = p.intField("dx"); err != nil {
			break
		}
		ev.DY, err = p.intField("dy")
	default:
		return Event{}, malformed(index, "unknown event kind %q", kind)
	}
	if err != nil {
		return Event{}, err
	}
	return ev, nil
}

type payload struct {
	index int
	data  map[string]json.RawMessage
}

func (p payload) field(name string) (json.RawMessage, error) {
	raw, ok := p.data[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, malformed(p.index, "missing data field %q", name)
	}
	return raw, nil
}

func (p payload) intField(name string) (int, error) {
	raw, err := p.field(name)
	if err != nil {
		return 0, err
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, &MalformedError{Index: p.index, Reason: fmt.Sprintf("data field %q is not a number", name), Err: err}
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, malformed(p.index, "data field %q is not an integer: %v", name, f)
	}
	return int(f), nil
}

func (p payload) point() (int, int, error) {
	x, err := p.intField("x")
	if err != nil {
		return 0, 0, err
	}
	y, err := p.intField("y")
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func (p payload) stringField(name string) (string, error) {
	raw, err := p.field(name)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &MalformedError{Index: p.index, Reason: fmt.Sprintf("data field %q is not a string", name), Err: err}
	}
	return s, nil
}

func (p payload) boolField(name string) (bool, error) {
	raw, err := p.field(name)
	if err != nil {
		return false, err
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, &MalformedError{Index: p.index, Reason: fmt.Sprintf("data field %q is not a boolean", name), Err: err}
	}
	return b, nil
}

func (p payload) key(name string) (keys.Key, error) {
	s, err := p.stringField(name)
	if err != nil {
		return keys.Key{}, err
	}
	k, err := keys.Parse(s)
	if err != nil {
		return keys.Key{}, &MalformedError{Index: p.index, Reason: fmt.Sprintf("data field %q: %v", name, err), Err: err}
	}
	return k, nil
}

func (p payload) button(name string) (Button, error) {
	s, err := p.stringField(name)
	if err != nil {
		return "", err
	}
	b := Button(s)
	if !b.Valid() {
		return "", malformed(p.index, "unknown button %q", s)
	}
	return b, nil
}
