package status_test

import (
	"encoding/json"
	"testing"

	"github.com/courierkit/courier/status"
)

func TestCodecRoundTrip(t *testing.T) {
	pos := 3
	rec := &status.Record{
		Data:      json.RawMessage(`{"accepted":true}`),
		Completed: true,
		Position:  &pos,
		Timestamp: status.Now(),
	}

	for _, name := range []string{status.CodecNameJSON, status.CodecNameMsgpack} {
		t.Run(name, func(t *testing.T) {
			c := status.GetCodec(name)
			if c.Name() != name {
				t.Errorf("codec name = %q, want %q", c.Name(), name)
			}

			data, err := c.Encode(rec)
			if err != nil {
				t.Fatalf("encode error: %v", err)
			}

			got, err := c.Decode(data)
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if !got.Completed || got.Failed {
				t.Errorf("decoded flags = (%v, %v), want (true, false)", got.Completed, got.Failed)
			}
			if got.Position == nil || *got.Position != pos {
				t.Errorf("decoded position = %v, want %d", got.Position, pos)
			}
			if got.Timestamp != rec.Timestamp {
				t.Errorf("decoded timestamp = %d, want %d", got.Timestamp, rec.Timestamp)
			}
		})
	}
}

func TestGetCodecDefaultsToJSON(t *testing.T) {
	if got := status.GetCodec("protobuf").Name(); got != status.CodecNameJSON {
		t.Errorf("unknown codec resolved to %q, want json", got)
	}
	if got := status.GetCodec("").Name(); got != status.CodecNameJSON {
		t.Errorf("empty codec resolved to %q, want json", got)
	}
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		name string
		rec  status.Record
		want bool
	}{
		{"pending", status.Record{}, false},
		{"completed", status.Record{Completed: true}, true},
		{"failed", status.Record{Failed: true, Error: "boom"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}
