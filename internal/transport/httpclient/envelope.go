package httpclient

import (
	"bytes"
	"encoding/json"
	"strings"
)

// envelope is the backend's uniform response wrapper {code, message, data}.
type envelope struct {
	Code    int
	Message string
	Data    json.RawMessage
}

// parseEnvelope reports ok=false when body is not a JSON object carrying an
// integer code, in which case the body is passed through untouched.
func parseEnvelope(body []byte) (envelope, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return envelope{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return envelope{}, false
	}
	rawCode, ok := fields["code"]
	if !ok {
		return envelope{}, false
	}
	var code int
	if err := json.Unmarshal(rawCode, &code); err != nil {
		return envelope{}, false
	}

	env := envelope{Code: code}
	if rawMsg, ok := fields["message"]; ok {
		_ = json.Unmarshal(rawMsg, &env.Message)
	}
	if data, ok := fields["data"]; ok && !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		env.Data = data
	}
	return env, true
}

// serverMessage extracts a human message from an error body: "message", then
// FastAPI's "detail" (a string or a list of {msg}).
func serverMessage(body []byte) string {
	var fields struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	if fields.Message != "" {
		return fields.Message
	}
	if len(fields.Detail) == 0 {
		return ""
	}

	var detail string
	if err := json.Unmarshal(fields.Detail, &detail); err == nil {
		return detail
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(fields.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
