package normalization

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// Record is one normalized collection element with its identifier materialized.
type Record map[string]any

// ID returns the identifier stored under idField.
func (r Record) ID(idField string) string {
	id, _ := toString(r[idField])
	return id
}

// Stats reports what normalization discarded.
type Stats struct {
	Input   int // elements seen in the source payload
	Dropped int // elements without a derivable identifier or usable shape
}

// ValueField holds the scalar payload of keyed-map entries like {"addr": 12.5}.
const ValueField = "value"

// NormalizeCollection collapses a collection the API returns either as an
// array or as an object keyed by identifier into a single []Record.
//
// Arrays keep elements carrying a non-empty idField. Keyed objects use the
// key as fallback identifier when an element carries none; scalar entries
// become {idField: key, "value": v}. Anything else yields an empty slice.
// Keyed output is ordered by key.
func NormalizeCollection(raw any, idField string) []Record {
	out, _ := normalizeCollection(raw, idField)
	return out
}

// NormalizeCollectionStats is NormalizeCollection that also reports drops.
func NormalizeCollectionStats(raw any, idField string) ([]Record, Stats) {
	return normalizeCollection(raw, idField)
}

func normalizeCollection(raw any, idField string) ([]Record, Stats) {
	switch v := raw.(type) {
	case []any:
		return fromArray(v, idField)
	case []map[string]any:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return fromArray(items, idField)
	case map[string]any:
		return fromKeyed(v, idField)
	default:
		return []Record{}, Stats{}
	}
}

func fromArray(items []any, idField string) ([]Record, Stats) {
	stats := Stats{Input: len(items)}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			stats.Dropped++
			continue
		}
		id, ok := explicitID(obj, idField)
		if !ok {
			stats.Dropped++
			continue
		}
		out = append(out, materialize(obj, idField, id))
	}
	return out, stats
}

func fromKeyed(entries map[string]any, idField string) ([]Record, Stats) {
	stats := Stats{Input: len(entries)}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Record, 0, len(entries))
	for _, key := range keys {
		switch elem := entries[key].(type) {
		case map[string]any:
			id, ok := explicitID(elem, idField)
			if !ok {
				if key == "" {
					stats.Dropped++
					continue
				}
				id = key
			}
			out = append(out, materialize(elem, idField, id))
		case nil:
			stats.Dropped++
		case []any:
			stats.Dropped++
		default:
			if key == "" {
				stats.Dropped++
				continue
			}
			out = append(out, Record{idField: key, ValueField: elem})
		}
	}
	return out, stats
}

// explicitID returns the element's own identifier when it is non-empty.
func explicitID(obj map[string]any, idField string) (string, bool) {
	v, ok := obj[idField]
	if !ok || v == nil {
		return "", false
	}
	id, ok := toString(v)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// materialize copies obj so the source payload is never mutated.
func materialize(obj map[string]any, idField, id string) Record {
	rec := make(Record, len(obj)+1)
	for k, v := range obj {
		rec[k] = v
	}
	rec[idField] = id
	return rec
}

// DecodeCollection decodes a JSON collection payload, normalizes it and
// decodes every record into T.
func DecodeCollection[T any](data []byte, idField string) ([]T, Stats, error) {
	raw, err := DecodeAny(data)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("decode collection: %w", err)
	}

	records, stats := normalizeCollection(raw, idField)
	out := make([]T, 0, len(records))
	for _, rec := range records {
		encoded, err := json.Marshal(rec)
		if err != nil {
			return nil, stats, fmt.Errorf("encode record %s: %w", rec.ID(idField), err)
		}
		var item T
		if err := json.Unmarshal(encoded, &item); err != nil {
			return nil, stats, fmt.Errorf("decode record %s: %w", rec.ID(idField), err)
		}
		out = append(out, item)
	}
	return out, stats, nil
}

// Rows converts records into plain maps for rendering.
func Rows(records []Record) []map[string]any {
	rows := make([]map[string]any, len(records))
	for i, r := range records {
		rows[i] = map[string]any(r)
	}
	return rows
}
