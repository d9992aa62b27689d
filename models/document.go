package models

import (
	"encoding/json"
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

func (m Marathon) MarshalJSON() ([]byte, error) {
	type plain Marathon
	return marshalWithExtra(plain(m), m.Extra)
}

func (m *Marathon) UnmarshalJSON(b []byte) error {
	type plain Marathon
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	extra, err := unknownFields(b, p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*m = Marathon(p)
	return nil
}

func (r Registration) MarshalJSON() ([]byte, error) {
	type plain Registration
	return marshalWithExtra(plain(r), r.Extra)
}

func (r *Registration) UnmarshalJSON(b []byte) error {
	type plain Registration
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	extra, err := unknownFields(b, p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*r = Registration(p)
	return nil
}

// marshalWithExtra encodes known and merges extra keys that known does not
// already define.
func marshalWithExtra(known any, extra bson.M) ([]byte, error) {
	b, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	merged := make(map[string]any, len(extra)+8)
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// unknownFields returns the top-level keys of b that are not json fields of
// known's struct type.
func unknownFields(b []byte, known any) (bson.M, error) {
	var all map[string]any
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for _, k := range jsonFieldNames(reflect.TypeOf(known)) {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return bson.M(all), nil
}

func jsonFieldNames(t reflect.Type) []string {
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		names = append(names, name)
	}
	return names
}
