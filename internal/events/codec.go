package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireEnvelope is the JSON form of an Envelope: the variant is named by
// "kind" and its payload sits under "data".
type wireEnvelope struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Kind       Kind            `json:"kind"`
	Data       json.RawMessage `json:"data"`
}

// MarshalJSON encodes the envelope with an explicit kind tag.
func (e Envelope) MarshalJSON() ([]byte, error) {
	kind, err := KindOf(e.Event)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(e.Event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return json.Marshal(wireEnvelope{
		ID:         e.ID,
		UserID:     e.UserID,
		OccurredAt: e.OccurredAt,
		Kind:       kind,
		Data:       data,
	})
}

// UnmarshalJSON decodes an envelope, rejecting unknown kinds.
func (e *Envelope) UnmarshalJSON(b []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	var (
		ev  Event
		err error
	)
	switch w.Kind {
	case KindAnswerGraded:
		ev, err = decode[AnswerGraded](w.Data)
	case KindStreakUpdated:
		ev, err = decode[StreakUpdated](w.Data)
	case KindGenusSessionComplete:
		ev, err = decode[GenusSessionComplete](w.Data)
	case KindModuleCompleted:
		ev, err = decode[ModuleCompleted](w.Data)
	case KindTimestamped:
		ev, err = decode[Timestamped](w.Data)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, w.Kind)
	}
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", w.Kind, err)
	}

	*e = Envelope{ID: w.ID, UserID: w.UserID, OccurredAt: w.OccurredAt, Event: ev}
	return nil
}

func decode[T Event](data json.RawMessage) (Event, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
