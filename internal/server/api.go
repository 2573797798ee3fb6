package server

import (
	"fmt"

	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/errors"
	"github.com/caffeineduck/gorc/registry"
)

type typedValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (tv typedValue) parse() (clvalue.Value, error) {
	tag, err := clvalue.ParseTag(tv.Type)
	if err != nil {
		return clvalue.Value{}, err
	}
	return clvalue.Parse(tag, tv.Value)
}

func formatValue(v clvalue.Value) *typedValue {
	return &typedValue{Type: v.Tag().String(), Value: clvalue.Format(v)}
}

type functionInfo struct {
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	Shape     []string `json:"shape"`
	Result    string   `json:"result,omitempty"`
	Signature string   `json:"signature"`
}

func functionInfos(entries []registry.Entry) []functionInfo {
	out := make([]functionInfo, len(entries))
	for i, e := range entries {
		shape := make([]string, len(e.Shape))
		for j, tag := range e.Shape {
			shape[j] = tag.String()
		}
		info := functionInfo{Key: e.Key.String(), Name: e.Name, Shape: shape, Signature: e.Signature()}
		if tag, ok := e.ResultTag(); ok {
			info.Result = tag.String()
		}
		out[i] = info
	}
	return out
}

type loadResponse struct {
	InstanceID string         `json:"instance_id"`
	Name       string         `json:"name"`
	Functions  []functionInfo `json:"functions"`
}

type invokeRequest struct {
	Key     string       `json:"key,omitempty"`
	Name    string       `json:"name,omitempty"`
	Args    []typedValue `json:"args"`
	Expect  string       `json:"expect,omitempty"`
	Timeout string       `json:"timeout,omitempty"`
}

type invokeResponse struct {
	Present    bool        `json:"present"`
	Result     *typedValue `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
	Phase      string      `json:"phase,omitempty"`
	Kind       string      `json:"kind,omitempty"`
	RevertCode *uint32     `json:"revert_code,omitempty"`
	DurationMs int64       `json:"duration_ms"`
}

type keyResponse struct {
	Key       string `json:"key"`
	Signature string `json:"signature"`
}

type errorResponse struct {
	Error string `json:"error"`
	Phase string `json:"phase,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

func newErrorResponse(err error) errorResponse {
	resp := errorResponse{Error: err.Error()}
	if phase, kind, ok := errors.Classify(err); ok {
		resp.Phase, resp.Kind = string(phase), string(kind)
	}
	return resp
}

func (r *invokeResponse) setError(err error) {
	e := newErrorResponse(err)
	r.Error, r.Phase, r.Kind = e.Error, e.Phase, e.Kind
	if code, ok := errors.RevertCode(err); ok {
		r.RevertCode = &code
	}
}

func badRequest(format string, args ...any) error {
	return errors.InvalidInput(errors.PhaseHost, fmt.Sprintf(format, args...))
}

func instanceNotFound(id string) error {
	return errors.New(errors.PhaseHost, errors.KindNotFound).Value(id).Detail("no instance %q", id).Build()
}
