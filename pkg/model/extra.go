package model

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Extra keeps fields the service sends that have no typed counterpart, so a
// record fetched from the mirror can be sent back without losing them.
type Extra map[string]json.RawMessage

var knownKeyCache sync.Map // reflect.Type -> []string

func knownKeys(t reflect.Type) []string {
	if cached, ok := knownKeyCache.Load(t); ok {
		return cached.([]string)
	}
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys = append(keys, name)
	}
	knownKeyCache.Store(t, keys)
	return keys
}

// decodeWithExtra decodes data into dst (a pointer to a struct) and returns
// every top-level key dst has no field for.
func decodeWithExtra(data []byte, dst any) (Extra, error) {
	if err := json.Unmarshal(data, dst); err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, k := range knownKeys(reflect.TypeOf(dst).Elem()) {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// encodeWithExtra encodes src and merges extra back in. Typed fields win.
func encodeWithExtra(src any, extra Extra) ([]byte, error) {
	data, err := json.Marshal(src)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

func (e Extra) clone() Extra {
	if e == nil {
		return nil
	}
	out := make(Extra, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
