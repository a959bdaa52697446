package reader

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DecodeJSON reads a JSON payload into rows. Accepted shapes: a top-level
// array of objects or arrays, or an object wrapping such an array (common in
// API exports like {"budgets": [...]}). Object keys become the header row in
// first-seen document order.
func DecodeJSON(data []byte) ([][]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, fmt.Errorf("json payload is a scalar, expected array or object")
	}

	switch delim {
	case '[':
		return decodeJSONArray(dec)
	case '{':
		// Walk the wrapper object's values until one is an array.
		for dec.More() {
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("read json key: %w", err)
			}
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("read json value: %w", err)
			}
			trimmed := bytes.TrimSpace(raw)
			if len(trimmed) > 0 && trimmed[0] == '[' {
				inner := json.NewDecoder(bytes.NewReader(trimmed))
				inner.UseNumber()
				if _, err := inner.Token(); err != nil {
					return nil, fmt.Errorf("read json array: %w", err)
				}
				return decodeJSONArray(inner)
			}
		}
		return nil, fmt.Errorf("json object contains no array of records")
	default:
		return nil, fmt.Errorf("unexpected json delimiter %q", delim)
	}
}

// decodeJSONArray consumes array elements from a decoder positioned just
// after the opening bracket. Keys appearing only in later objects extend the
// header row; earlier rows stay shorter, which downstream code tolerates the
// same way it tolerates ragged CSV.
func decodeJSONArray(dec *json.Decoder) ([][]string, error) {
	headers := []string{}
	headerIdx := map[string]int{}
	records := [][]string{}
	sawObject := false

	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read json element: %w", err)
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			continue
		}

		switch trimmed[0] {
		case '{':
			sawObject = true
			pairs, err := objectPairs(trimmed)
			if err != nil {
				return nil, err
			}
			row := make([]string, len(headers))
			for _, p := range pairs {
				idx, seen := headerIdx[p.key]
				if !seen {
					idx = len(headers)
					headerIdx[p.key] = idx
					headers = append(headers, p.key)
				}
				for len(row) <= idx {
					row = append(row, "")
				}
				row[idx] = p.value
			}
			records = append(records, row)
		case '[':
			var cells []json.RawMessage
			if err := json.Unmarshal(trimmed, &cells); err != nil {
				return nil, fmt.Errorf("read json row: %w", err)
			}
			row := make([]string, 0, len(cells))
			for _, c := range cells {
				row = append(row, jsonScalar(c))
			}
			records = append(records, row)
		default:
			records = append(records, []string{jsonScalar(trimmed)})
		}
	}

	if sawObject {
		return append([][]string{headers}, records...), nil
	}
	return records, nil
}

type jsonPair struct {
	key   string
	value string
}

func objectPairs(raw []byte) ([]jsonPair, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read json object: %w", err)
	}

	var pairs []jsonPair
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read json key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("json object key is not a string")
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("read json value for %q: %w", key, err)
		}
		pairs = append(pairs, jsonPair{key: key, value: jsonScalar(val)})
	}
	return pairs, nil
}

func jsonScalar(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	// Numbers, booleans, and nested structures pass through verbatim.
	return string(trimmed)
}

// DecodeXML reads an XML payload into rows. The expected shape is a root
// element containing repeated record elements whose children are fields:
//
//	<orcamentos><orcamento><modelo>…</modelo>…</orcamento>…</orcamentos>
//
// Field names become the header row in first-seen order.
func DecodeXML(data []byte) ([][]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	headers := []string{}
	headerIdx := map[string]int{}
	records := [][]string{}

	depth := 0
	var row []string
	fieldName := ""
	var fieldText strings.Builder
	fieldDepth := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 2:
				row = make([]string, len(headers))
			case 3:
				fieldName = t.Name.Local
				fieldText.Reset()
				fieldDepth = depth
			}
		case xml.EndElement:
			switch depth {
			case 2:
				if row != nil {
					records = append(records, row)
					row = nil
				}
			case 3:
				if fieldDepth == 3 && row != nil {
					idx, seen := headerIdx[fieldName]
					if !seen {
						idx = len(headers)
						headerIdx[fieldName] = idx
						headers = append(headers, fieldName)
					}
					for len(row) <= idx {
						row = append(row, "")
					}
					row[idx] = strings.TrimSpace(fieldText.String())
				}
				fieldDepth = 0
			}
			depth--
		case xml.CharData:
			if depth >= 3 {
				fieldText.Write(t)
			}
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("xml payload contains no record elements")
	}
	return append([][]string{headers}, records...), nil
}
