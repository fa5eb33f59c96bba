package document

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/veckey/internal/domain"
)

// encodeStorageDoc renders the stored JSON envelope: the point id, its
// vector, and the payload re-serialized as a JSON string under payload_data.
func encodeStorageDoc(p *domain.DataPoint, vector []float32) ([]byte, error) {
	payloadData, err := encodePayload(p.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload for %s: %w", p.ID, err)
	}

	doc := domain.StorageDocument{
		ID:          p.ID,
		Vector:      vector,
		PayloadData: payloadData,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", p.ID, err)
	}
	return data, nil
}

// encodePayload serializes a payload to its JSON string form. Identifier
// leaves (uuid.UUID) become plain strings so the stored form stays portable.
func encodePayload(p domain.Payload) (string, error) {
	if p == nil {
		p = domain.Payload{}
	}
	data, err := json.Marshal(normalizeValue(map[string]any(p)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// normalizeValue walks maps and slices converting uuid.UUID leaves to strings.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case uuid.UUID:
		return val.String()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

// decodePoint parses a JSON.GET reply back into a data point. Root-path
// replies arrive as a one-element array envelope; a bare object is accepted
// for compatibility with path-scoped reads.
func decodePoint(id string, raw []byte) (*domain.DataPoint, error) {
	var envelope []json.RawMessage
	docRaw := json.RawMessage(raw)
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if len(envelope) == 0 {
			return nil, fmt.Errorf("empty reply for %s", id)
		}
		docRaw = envelope[0]
	}

	var doc domain.StorageDocument
	if err := json.Unmarshal(docRaw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document %s: %w", id, err)
	}

	pointID := doc.ID
	if pointID == "" {
		pointID = id
	}

	return &domain.DataPoint{
		ID:      pointID,
		Payload: decodePayloadData(docRaw, doc.PayloadData),
	}, nil
}

// decodePayloadData parses the payload_data JSON string. Non-object payloads
// are kept under _payload and a missing field decodes to an empty payload.
// Unparseable text falls back to the stored envelope itself, so the caller
// still sees what the database holds.
func decodePayloadData(docRaw json.RawMessage, s string) domain.Payload {
	if s == "" {
		return domain.Payload{}
	}

	// A JSON null decodes into a nil map without error; it belongs under
	// _payload with the other non-objects.
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err == nil && m != nil {
		return domain.Payload(m)
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return domain.Payload{"_payload": v}
	}

	var envelope map[string]any
	if err := json.Unmarshal(docRaw, &envelope); err == nil {
		return domain.Payload(envelope)
	}
	return domain.Payload{"_payload_raw": s}
}
