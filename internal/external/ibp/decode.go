package ibp

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/wonny/mdhealth/internal/contracts"
)

// decodeRecords reads an OData payload and returns its entities with field order kept.
// Accepted shapes: {"d":{"results":[...]}}, {"d":{...}} (single entity) and {"value":[...]}.
func decodeRecords(r io.Reader) ([]contracts.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var records []contracts.Record
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		switch key {
		case "d":
			recs, err := decodeV2Body(dec)
			if err != nil {
				return nil, err
			}
			records = recs
		case "value":
			recs, err := decodeArray(dec)
			if err != nil {
				return nil, err
			}
			records = recs
		default:
			if err := skipValue(dec); err != nil {
				return nil, err
			}
		}
	}
	return records, nil
}

// decodeV2Body handles the OData v2 "d" envelope
func decodeV2Body(dec *json.Decoder) ([]contracts.Record, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var single contracts.Record
	var results []contracts.Record
	hasResults := false

	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if key == "results" {
			results, err = decodeArray(dec)
			if err != nil {
				return nil, err
			}
			hasResults = true
			continue
		}
		v, err := readValue(dec)
		if err != nil {
			return nil, err
		}
		single = append(single, contracts.Field{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil { // '}'
		return nil, fmt.Errorf("decode d: %w", err)
	}

	if hasResults {
		return results, nil
	}
	return []contracts.Record{cleanRecord(single)}, nil
}

func decodeArray(dec *json.Decoder) ([]contracts.Record, error) {
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	records := []contracts.Record{}
	for dec.More() {
		rec, err := decodeObject(dec)
		if err != nil {
			return nil, err
		}
		records = append(records, cleanRecord(rec))
	}
	if _, err := dec.Token(); err != nil { // ']'
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return records, nil
}

func decodeObject(dec *json.Decoder) (contracts.Record, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var rec contracts.Record
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		v, err := readValue(dec)
		if err != nil {
			return nil, err
		}
		rec = append(rec, contracts.Field{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode entity: %w", err)
	}
	return rec, nil
}

// readValue decodes one scalar; nested objects and arrays are kept as compact JSON text
func readValue(dec *json.Decoder) (any, error) {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	switch raw[0] {
	case '{', '[':
		return string(raw), nil
	}

	inner := json.NewDecoder(strings.NewReader(string(raw)))
	inner.UseNumber()
	var v any
	if err := inner.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return f, nil
		}
		return n.String(), nil
	}
	return v, nil
}

// cleanRecord drops OData metadata and navigation properties
func cleanRecord(rec contracts.Record) contracts.Record {
	out := rec[:0:0]
	for _, f := range rec {
		if strings.HasPrefix(f.Key, "__") || strings.HasSuffix(f.Key, "@odata") {
			continue
		}
		out = append(out, f)
	}
	return out
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("decode payload: expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("decode key: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("decode key: unexpected token %v", tok)
	}
	return key, nil
}

func skipValue(dec *json.Decoder) error {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
