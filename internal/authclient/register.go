package authclient

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/session"
)

// registerReply is either an ApiResponse envelope or the bare created
// resource. The envelope variant is recognized by its "success" field.
type registerReply interface {
	outcome() session.RegisterOutcome
}

type envelopeReply struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (r envelopeReply) outcome() session.RegisterOutcome {
	// Only an explicit false is a failure.
	ok := r.Success == nil || *r.Success
	return session.RegisterOutcome{Success: ok, Message: r.Message, Data: r.Data}
}

type rawReply struct {
	Body json.RawMessage
}

func (r rawReply) outcome() session.RegisterOutcome {
	return session.RegisterOutcome{Success: true, Data: r.Body}
}

func parseRegisterReply(body []byte) (registerReply, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return rawReply{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		if !json.Valid(body) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return rawReply{Body: json.RawMessage(body)}, nil
	}
	if _, ok := fields["success"]; !ok {
		return rawReply{Body: json.RawMessage(body)}, nil
	}

	var env envelopeReply
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return env, nil
}
