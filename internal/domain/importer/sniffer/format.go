// Package sniffer detects the serialization format and tabular structure of
// uploaded files. Detection never fails hard: ambiguous input resolves to a
// low-confidence CSV fallback and the confidence score is the caller's signal
// to ask the user for confirmation.
package sniffer

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Format enumerates the serialization formats the importer can read.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
	FormatExcel Format = "excel"
	FormatJSON  Format = "json"
	FormatXML   Format = "xml"
)

// Encoding names the detected text encoding of the payload.
type Encoding string

const (
	EncodingUTF8    Encoding = "utf-8"
	EncodingUTF16LE Encoding = "utf-16le"
	EncodingUTF16BE Encoding = "utf-16be"
	EncodingLatin1  Encoding = "latin-1"
)

// FormatDetection is the result of sniffing a file's bytes and name.
// Confidence is on a 0–1 scale.
type FormatDetection struct {
	Format     Format
	Confidence float64
	Encoding   Encoding
	Metadata   map[string]string
}

// Magic-number signatures. XLSX is a ZIP container, legacy XLS an OLE
// compound file.
var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

var extensionFormats = map[string]struct {
	format     Format
	confidence float64
}{
	".csv":  {FormatCSV, 0.9},
	".tsv":  {FormatTSV, 0.9},
	".txt":  {FormatCSV, 0.3},
	".xlsx": {FormatExcel, 0.9},
	".xls":  {FormatExcel, 0.85},
	".json": {FormatJSON, 0.9},
	".xml":  {FormatXML, 0.9},
}

// DetectFormat determines the serialization format of a file from a byte
// prefix and its filename. It never returns an error: unrecoverable
// ambiguity resolves to CSV at confidence 0.3.
func DetectFormat(data []byte, filename string) FormatDetection {
	det := FormatDetection{
		Format:     FormatCSV,
		Confidence: 0.3,
		Encoding:   EncodingUTF8,
		Metadata:   map[string]string{},
	}

	data, det.Encoding = stripEncodingBOM(data)

	// Binary signatures settle the question outright.
	if bytes.HasPrefix(data, zipMagic) {
		det.Format = FormatExcel
		det.Confidence = 0.95
		det.Metadata["container"] = "zip"
		return det
	}
	if bytes.HasPrefix(data, oleMagic) {
		det.Format = FormatExcel
		det.Confidence = 0.95
		det.Metadata["container"] = "ole"
		return det
	}

	if det.Encoding == EncodingUTF8 && !utf8.Valid(data) {
		det.Encoding = EncodingLatin1
	}

	extFormat, extConf := formatFromExtension(filename)
	contentFormat, contentConf := sniffContent(data)

	switch {
	case extConf > 0 && contentConf > 0 && extFormat == contentFormat:
		det.Format = extFormat
		det.Confidence = extConf + (1-extConf)*contentConf
		if det.Confidence > 0.95 {
			det.Confidence = 0.95
		}
	case contentConf > 0.8:
		det.Format = contentFormat
		det.Confidence = contentConf
	case extConf > 0:
		det.Format = extFormat
		det.Confidence = extConf
	case contentConf > 0:
		det.Format = contentFormat
		det.Confidence = contentConf
	}

	if det.Format == FormatCSV || det.Format == FormatTSV {
		if delim, conf := detectDelimiterSample(string(data), 10); conf > 0 {
			det.Metadata["delimiter"] = string(delim)
			if delim == '\t' {
				det.Format = FormatTSV
			}
		}
	}
	return det
}

func stripEncodingBOM(data []byte) ([]byte, Encoding) {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return data[3:], EncodingUTF8
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return data[2:], EncodingUTF16LE
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return data[2:], EncodingUTF16BE
	}
	return data, EncodingUTF8
}

func formatFromExtension(filename string) (Format, float64) {
	ext := strings.ToLower(filepath.Ext(filename))
	if entry, ok := extensionFormats[ext]; ok {
		return entry.format, entry.confidence
	}
	return "", 0
}

// sniffContent scores the payload by shape alone.
func sniffContent(data []byte) (Format, float64) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", 0
	}

	switch text[0] {
	case '{', '[':
		if jsonBalanced(text) {
			return FormatJSON, 0.9
		}
		return FormatJSON, 0.5
	case '<':
		if strings.Contains(text, "</") || strings.HasSuffix(text, "/>") {
			return FormatXML, 0.9
		}
		return FormatXML, 0.5
	}

	delim, conf := detectDelimiterSample(text, 10)
	if conf > 0 {
		if delim == '\t' {
			return FormatTSV, conf
		}
		return FormatCSV, conf
	}
	return "", 0
}

// jsonBalanced checks that braces and brackets balance outside of strings.
// A cheap structural test, not a full parse.
func jsonBalanced(text string) bool {
	depth := 0
	inString := false
	escaped := false
	for _, r := range text {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				depth++
			}
		case '}', ']':
			if !inString {
				depth--
				if depth < 0 {
					return false
				}
			}
		}
	}
	return depth == 0 && !inString
}

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// detectDelimiterSample tests each candidate delimiter for a consistent
// column count across up to maxLines lines and returns the winner with a
// confidence in (0,1]. Zero confidence means no delimiter produced columns.
func detectDelimiterSample(text string, maxLines int) (rune, float64) {
	lines := sampleLines(text, maxLines)
	if len(lines) == 0 {
		return 0, 0
	}

	var best rune
	bestScore := 0.0
	bestCols := 0
	for _, d := range candidateDelimiters {
		cols, consistent := columnStats(lines, d)
		if cols < 2 {
			continue
		}
		score := consistent * minFloat(1, float64(cols)/6)
		if score > bestScore || (score == bestScore && cols > bestCols) {
			best = d
			bestScore = score
			bestCols = cols
		}
	}
	if best == 0 {
		return 0, 0
	}
	// Scale into a confidence: consistent multi-column splits approach 0.9.
	conf := 0.4 + 0.5*bestScore
	if conf > 0.9 {
		conf = 0.9
	}
	return best, conf
}

// columnStats returns the modal column count under delimiter d and the
// fraction of sampled lines that agree with it.
func columnStats(lines []string, d rune) (int, float64) {
	counts := map[int]int{}
	for _, line := range lines {
		counts[strings.Count(line, string(d))+1]++
	}
	mode, modeHits := 0, 0
	for cols, hits := range counts {
		if hits > modeHits || (hits == modeHits && cols > mode) {
			mode, modeHits = cols, hits
		}
	}
	if mode < 2 {
		return mode, 0
	}
	return mode, float64(modeHits) / float64(len(lines))
}

func sampleLines(text string, maxLines int) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, maxLines)
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) >= maxLines {
			break
		}
	}
	return lines
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
