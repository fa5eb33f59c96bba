package veckey

import (
	"fmt"
	"reflect"
)

const tagKey = "veckey"

// PointsFrom converts tagged structs into data points. T carries `veckey`
// struct tags: one field tagged `id` (string or fmt.Stringer), one tagged
// `text` (string), any other tag names a payload key, and `-` skips the
// field. The schema is parsed once per call.
func PointsFrom[T any](items []T) ([]DataPoint, error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, err
	}

	points := make([]DataPoint, len(items))
	for i, item := range items {
		p, err := meta.toPoint(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		points[i] = p
	}
	return points, nil
}

// schemaMeta holds parsed struct tag metadata.
type schemaMeta struct {
	typ     reflect.Type
	idIdx   int
	textIdx int
	payload []fieldMapping
}

type fieldMapping struct {
	structIdx int
	name      string
}

// parseSchema reflects on T and extracts veckey struct tag metadata.
func parseSchema[T any]() (*schemaMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("veckey: type %v is not a struct", t)
	}

	meta := &schemaMeta{typ: t, idIdx: -1, textIdx: -1}

	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		if err := applyTag(meta, i, f.Name, tag); err != nil {
			return nil, err
		}
	}

	if meta.idIdx == -1 {
		return nil, fmt.Errorf("veckey: %s has no field tagged %s:\"id\"", t, tagKey)
	}
	if meta.textIdx == -1 {
		return nil, fmt.Errorf("veckey: %s has no field tagged %s:\"text\"", t, tagKey)
	}
	return meta, nil
}

// applyTag processes a single struct field's veckey tag.
func applyTag(meta *schemaMeta, idx int, fieldName, tag string) error {
	switch tag {
	case "id":
		if meta.idIdx != -1 {
			return fmt.Errorf("veckey: duplicate id tag on field %s", fieldName)
		}
		meta.idIdx = idx
	case "text":
		if meta.textIdx != -1 {
			return fmt.Errorf("veckey: duplicate text tag on field %s", fieldName)
		}
		meta.textIdx = idx
	default:
		meta.payload = append(meta.payload, fieldMapping{structIdx: idx, name: tag})
	}
	return nil
}

// toPoint converts one item into a DataPoint per the parsed schema.
func (m *schemaMeta) toPoint(item any) (DataPoint, error) {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return DataPoint{}, fmt.Errorf("nil item")
		}
		v = v.Elem()
	}

	id, err := stringField(v.Field(m.idIdx))
	if err != nil {
		return DataPoint{}, fmt.Errorf("id field: %w", err)
	}
	if id == "" {
		return DataPoint{}, fmt.Errorf("empty id")
	}

	text, ok := v.Field(m.textIdx).Interface().(string)
	if !ok {
		return DataPoint{}, fmt.Errorf("text field must be a string, got %s", v.Field(m.textIdx).Type())
	}

	var payload Payload
	if len(m.payload) > 0 {
		payload = make(Payload, len(m.payload))
		for _, fm := range m.payload {
			payload[fm.name] = v.Field(fm.structIdx).Interface()
		}
	}

	return DataPoint{ID: id, Text: text, Payload: payload}, nil
}

// stringField renders an id-role field, accepting strings and Stringers
// (uuid.UUID among them).
func stringField(v reflect.Value) (string, error) {
	if v.Kind() == reflect.String {
		return v.String(), nil
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String(), nil
	}
	return "", fmt.Errorf("unsupported id type %s", v.Type())
}
