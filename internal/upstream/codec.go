package upstream

import (
	"encoding/json"

	appErrors "github.com/eduplatform/gateway/pkg/errors"
)

// listEnvelope is the paginated shape some backend deployments return.
type listEnvelope struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  json.RawMessage `json:"results"`
}

// decodeList normalizes the two list shapes the backend is known to emit:
// a bare JSON array, or a {"results": [...]} pagination envelope. Every
// list call goes through here so no call site repeats the dual-shape
// dance.
func decodeList[T any](body []byte, out *[]T) error {
	trimmed := firstByte(body)

	if trimmed == '[' {
		if err := json.Unmarshal(body, out); err != nil {
			return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to decode backend list")
		}
		return nil
	}

	var envelope listEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to decode backend list envelope")
	}
	if envelope.Results == nil {
		*out = nil
		return nil
	}
	if err := json.Unmarshal(envelope.Results, out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to decode backend list results")
	}
	return nil
}

// decodeObject unmarshals a single resource payload.
func decodeObject(body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to decode backend response")
	}
	return nil
}

func firstByte(body []byte) byte {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
