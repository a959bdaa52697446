package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFormat(t *testing.T) {
	t.Run("xlsx by zip magic", func(t *testing.T) {
		data := append([]byte{0x50, 0x4B, 0x03, 0x04}, []byte("rest of archive")...)
		det := DetectFormat(data, "orcamentos.xlsx")

		assert.Equal(t, FormatExcel, det.Format)
		assert.Equal(t, 0.95, det.Confidence)
		assert.Equal(t, "zip", det.Metadata["container"])
	})

	t.Run("legacy xls by ole magic", func(t *testing.T) {
		data := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 64)...)
		det := DetectFormat(data, "export.xls")

		assert.Equal(t, FormatExcel, det.Format)
		assert.Equal(t, "ole", det.Metadata["container"])
	})

	t.Run("json by content", func(t *testing.T) {
		det := DetectFormat([]byte(`[{"modelo":"iPhone 12","preco":"350,00"}]`), "payload.bin")
		assert.Equal(t, FormatJSON, det.Format)
		assert.GreaterOrEqual(t, det.Confidence, 0.8)
	})

	t.Run("xml by content", func(t *testing.T) {
		det := DetectFormat([]byte(`<orcamentos><item><modelo>iPhone</modelo></item></orcamentos>`), "payload")
		assert.Equal(t, FormatXML, det.Format)
	})

	t.Run("csv extension and content agree boosts confidence", func(t *testing.T) {
		csv := "modelo,preco,cliente\niPhone 12,350.00,Maria\nGalaxy S21,420.00,Joao\n"
		det := DetectFormat([]byte(csv), "orcamentos.csv")

		assert.Equal(t, FormatCSV, det.Format)
		assert.Greater(t, det.Confidence, 0.9)
		assert.Equal(t, ",", det.Metadata["delimiter"])
	})

	t.Run("tsv detected from tabs", func(t *testing.T) {
		tsv := "modelo\tpreco\niPhone\t350.00\nGalaxy\t420.00\n"
		det := DetectFormat([]byte(tsv), "export.txt")
		assert.Equal(t, FormatTSV, det.Format)
	})

	t.Run("utf8 bom stripped and encoding reported", func(t *testing.T) {
		data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("modelo,preco\niPhone,350.00\n")...)
		det := DetectFormat(data, "orcamentos.csv")

		assert.Equal(t, EncodingUTF8, det.Encoding)
		assert.Equal(t, FormatCSV, det.Format)
	})

	t.Run("utf16 bom detected", func(t *testing.T) {
		det := DetectFormat([]byte{0xFF, 0xFE, 'a', 0x00}, "data.csv")
		assert.Equal(t, EncodingUTF16LE, det.Encoding)
	})

	t.Run("garbage falls back to csv at low confidence", func(t *testing.T) {
		det := DetectFormat([]byte("no delimiters here at all"), "mystery")
		assert.Equal(t, FormatCSV, det.Format)
		assert.Equal(t, 0.3, det.Confidence)
	})

	t.Run("latin1 payload flagged", func(t *testing.T) {
		det := DetectFormat([]byte{'p', 'r', 'e', 0xE7, 'o', ',', 'x'}, "precos.csv")
		assert.Equal(t, EncodingLatin1, det.Encoding)
	})
}
