// Package envelope defines the single value type handed from the resolver to
// whichever surface asked for a result.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/scoutlens/pkg/playerapi"
)

// Kind tags an Envelope. The presentation layer knows exactly these four;
// adding one is a protocol version bump.
type Kind string

const (
	KindLoading Kind = "LOADING"
	KindDetails Kind = "DETAILS"
	KindList    Kind = "LIST"
	KindError   Kind = "ERROR"
)

// ErrUnknownKind is returned when decoding an envelope with an unknown type tag.
var ErrUnknownKind = errors.New("unknown envelope type")

// Envelope is a tagged union: only the field matching Kind is meaningful.
type Envelope struct {
	Kind       Kind
	Details    playerapi.DetailRecord
	Candidates []playerapi.Candidate
	Message    string
}

func Loading() Envelope { return Envelope{Kind: KindLoading} }

func Details(rec playerapi.DetailRecord) Envelope {
	return Envelope{Kind: KindDetails, Details: rec}
}

func List(candidates []playerapi.Candidate) Envelope {
	return Envelope{Kind: KindList, Candidates: candidates}
}

func Error(msg string) Envelope { return Envelope{Kind: KindError, Message: msg} }

// IsTerminal reports whether e ends a request's lifecycle.
func (e Envelope) IsTerminal() bool {
	switch e.Kind {
	case KindDetails, KindList, KindError:
		return true
	}
	return false
}

// LogValue keeps payloads out of logs.
func (e Envelope) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("type", string(e.Kind))}
	switch e.Kind {
	case KindList:
		attrs = append(attrs, slog.Int("candidates", len(e.Candidates)))
	case KindDetails:
		attrs = append(attrs, slog.Int("bytes", len(e.Details)))
	case KindError:
		attrs = append(attrs, slog.String("message", e.Message))
	}
	return slog.GroupValue(attrs...)
}

type wire struct {
	Type    Kind            `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// MarshalJSON emits the wire form read by the extension scripts:
//
//	{"type":"LOADING"}
//	{"type":"DETAILS","data":{...}}
//	{"type":"LIST","data":[...]}
//	{"type":"ERROR","message":"..."}
func (e Envelope) MarshalJSON() ([]byte, error) {
	w := wire{Type: e.Kind}
	switch e.Kind {
	case KindLoading:
	case KindDetails:
		data, err := json.Marshal(e.Details)
		if err != nil {
			return nil, fmt.Errorf("marshal details: %w", err)
		}
		w.Data = data
	case KindList:
		list := e.Candidates
		if list == nil {
			list = []playerapi.Candidate{}
		}
		data, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("marshal list: %w", err)
		}
		w.Data = data
	case KindError:
		w.Message = e.Message
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the wire form produced by MarshalJSON.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Envelope{Kind: w.Type}
	switch w.Type {
	case KindLoading:
	case KindDetails:
		out.Details = playerapi.DetailRecord(w.Data)
	case KindList:
		if err := json.Unmarshal(w.Data, &out.Candidates); err != nil {
			return fmt.Errorf("decode list: %w", err)
		}
	case KindError:
		out.Message = w.Message
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, w.Type)
	}
	*e = out
	return nil
}
