package rawtable

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// JSONTable streams the item array of a nested hospital price JSON document
// and presents it as a columnar table. Only one item is in memory at a
// time. Column names come from the keys of the first item; items may be
// plain objects or single-element arrays wrapping an object (both occur in
// published files).
type JSONTable struct {
	file    *os.File
	decoder *json.Decoder
	columns []string
	colIdx  map[string]int
	pending []string // first row, decoded while discovering columns
	done    bool
}

// OpenJSON opens a nested JSON price file. The row array is located under
// a top-level "data" key, or the document may itself be a bare array.
func OpenJSON(path string) (*JSONTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	bufReader := bufio.NewReaderSize(file, 256*1024)

	// Skip UTF-8 BOM if present
	bom, err := bufReader.Peek(3)
	if err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		bufReader.Discard(3)
	}

	decoder := json.NewDecoder(bufReader)
	decoder.UseNumber()

	t := &JSONTable{file: file, decoder: decoder, colIdx: make(map[string]int)}
	if err := t.seekRows(); err != nil {
		file.Close()
		return nil, err
	}
	return t, nil
}

// seekRows advances the decoder to the start of the row array and decodes
// the first item to discover column names.
func (t *JSONTable) seekRows() error {
	tok, err := t.decoder.Token()
	if err != nil {
		return fmt.Errorf("read document start: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return fmt.Errorf("expected '{' or '[', got %v", tok)
	}

	if delim == '[' {
		return t.readFirstItem()
	}
	if delim != '{' {
		return fmt.Errorf("expected '{' or '[', got %v", delim)
	}

	for t.decoder.More() {
		tok, err := t.decoder.Token()
		if err != nil {
			return fmt.Errorf("read field name: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected string key, got %T", tok)
		}

		if strings.EqualFold(key, "data") || strings.EqualFold(key, "standard_charge_information") {
			tok, err := t.decoder.Token()
			if err != nil {
				return fmt.Errorf("read %s start: %w", key, err)
			}
			if d, ok := tok.(json.Delim); !ok || d != '[' {
				return fmt.Errorf("expected array for %q, got %v", key, tok)
			}
			return t.readFirstItem()
		}

		// Skip header metadata values (hospital name, version, ...)
		var discard json.RawMessage
		if err := t.decoder.Decode(&discard); err != nil {
			return fmt.Errorf("skip field %q: %w", key, err)
		}
	}
	return fmt.Errorf("no row array found in document")
}

func (t *JSONTable) readFirstItem() error {
	if !t.decoder.More() {
		t.done = true
		return nil
	}
	item, err := t.decodeItem()
	if err != nil {
		return err
	}
	if item == nil {
		t.done = true
		return nil
	}

	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	t.columns = keys
	for i, k := range keys {
		t.colIdx[k] = i
	}
	t.pending = t.project(item)
	return nil
}

// decodeItem decodes one element of the row array into a flat string map.
// Single-element arrays wrapping an object are unwrapped; anything else
// yields nil (skipped by the caller).
func (t *JSONTable) decodeItem() (map[string]string, error) {
	var raw json.RawMessage
	if err := t.decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode row item: %w", err)
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var wrapped []json.RawMessage
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode wrapped row: %w", err)
		}
		if len(wrapped) == 0 {
			return nil, nil
		}
		raw = wrapped[0]
		trimmed = strings.TrimSpace(string(raw))
	}
	if !strings.HasPrefix(trimmed, "{") {
		return nil, nil
	}

	var obj map[string]any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode row object: %w", err)
	}

	flat := make(map[string]string, len(obj))
	flatten("", obj, flat)
	return flat, nil
}

// flatten converts nested objects to dotted column paths:
// {"charges":{"gross":"1.00"}} -> charges.gross = "1.00".
func flatten(prefix string, obj map[string]any, out map[string]string) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case nil:
			out[key] = ""
		case string:
			out[key] = val
		case json.Number:
			out[key] = val.String()
		case bool:
			out[key] = strconv.FormatBool(val)
		default:
			// Arrays and anything exotic render as compact JSON.
			b, err := json.Marshal(val)
			if err == nil {
				out[key] = string(b)
			}
		}
	}
}

func (t *JSONTable) project(item map[string]string) []string {
	row := make([]string, len(t.columns))
	for k, v := range item {
		if i, ok := t.colIdx[k]; ok {
			row[i] = v
		}
	}
	return row
}

func (t *JSONTable) Columns() []string { return t.columns }

func (t *JSONTable) Next() ([]string, error) {
	if t.pending != nil {
		row := t.pending
		t.pending = nil
		return row, nil
	}
	for {
		if t.done || !t.decoder.More() {
			return nil, io.EOF
		}
		item, err := t.decodeItem()
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}
		return t.project(item), nil
	}
}

func (t *JSONTable) Close() error { return t.file.Close() }
