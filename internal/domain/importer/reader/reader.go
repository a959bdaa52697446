// Package reader turns raw file payloads into uniform row tables. Each
// supported format (CSV, TSV, Excel, JSON, XML) decodes to [][]string so the
// rest of the pipeline never branches on the source format again.
package reader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/orcafacil/backend/internal/domain/importer/sniffer"
)

// ErrUnsupportedFormat is returned when Decode receives a detection for a
// format no decoder handles.
var ErrUnsupportedFormat = errors.New("reader: unsupported file format")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode dispatches the payload to the decoder for the detected format.
// The returned rows are raw: header detection, mapping and coercion happen
// downstream. Text payloads are transcoded to UTF-8 first.
func Decode(data []byte, det sniffer.FormatDetection) ([][]string, error) {
	switch det.Format {
	case sniffer.FormatCSV, sniffer.FormatTSV:
		text, err := NormalizeBytes(data, det.Encoding)
		if err != nil {
			return nil, err
		}
		return DecodeCSV(text, detectedDelimiter(det))
	case sniffer.FormatExcel:
		return DecodeExcel(data)
	case sniffer.FormatJSON:
		text, err := NormalizeBytes(data, det.Encoding)
		if err != nil {
			return nil, err
		}
		return DecodeJSON(text)
	case sniffer.FormatXML:
		text, err := NormalizeBytes(data, det.Encoding)
		if err != nil {
			return nil, err
		}
		return DecodeXML(text)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, det.Format)
	}
}

func detectedDelimiter(det sniffer.FormatDetection) rune {
	if det.Format == sniffer.FormatTSV {
		return '\t'
	}
	if d := det.Metadata["delimiter"]; d != "" {
		r, _ := utf8.DecodeRuneInString(d)
		return r
	}
	return ','
}

// DecodeCSV reads delimited text into rows. The reader is deliberately
// permissive: stray quotes and ragged row widths are common in hand-edited
// spreadsheet exports, so they must not abort the import.
func DecodeCSV(data []byte, delimiter rune) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	rows := make([][]string, 0, 256)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read delimited row: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// NormalizeBytes transcodes a text payload to plain UTF-8 with no BOM.
// UTF-16 payloads follow the detected byte order; Latin-1 covers the legacy
// Windows exports that still show up from older quote systems.
func NormalizeBytes(data []byte, enc sniffer.Encoding) ([]byte, error) {
	var err error
	switch enc {
	case sniffer.EncodingUTF16LE:
		data, err = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
	case sniffer.EncodingUTF16BE:
		data, err = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(data)
	case sniffer.EncodingLatin1:
		data, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
	}
	if err != nil {
		return nil, fmt.Errorf("transcode %s payload: %w", enc, err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	// Detection can miss Latin-1 on short samples; never hand invalid UTF-8
	// to the csv reader.
	if !utf8.Valid(data) {
		data, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("transcode fallback payload: %w", err)
		}
	}
	return data, nil
}
