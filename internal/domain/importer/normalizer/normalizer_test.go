package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Preço Total", "preco total"},
		{"\uFEFFModelo", "modelo"},
		{"  CLIENTE   Nome ", "cliente nome"},
		{"Válido Até", "valido ate"},
		{"", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, NormalizeText(tc.input), "input %q", tc.input)
	}
}

func TestCanonicalToken(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Preço Total", "preco_total"},
		{"preco_total", "preco_total"},
		{"Valor (R$)", "valor_r"},
		{"garantia-meses", "garantia_meses"},
		{"  Telefone do Cliente  ", "telefone_do_cliente"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, CanonicalToken(tc.input), "input %q", tc.input)
	}
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
	}{
		{"european thousands", "1.234,56", 123456},
		{"us thousands", "1,234.56", 123456},
		{"comma decimal", "150,00", 15000},
		{"dot decimal", "350.00", 35000},
		{"currency symbol", "R$ 150,50", 15050},
		{"bare integer", "350", 35000},
		{"comma thousands only", "1,234", 123400},
		{"dot thousands only", "1.234", 123400},
		{"negative", "-10,00", -1000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cents, corrected, ok := ParseCurrency(tc.input, CentsModeOff)
			require.True(t, ok)
			assert.False(t, corrected)
			assert.Equal(t, tc.expected, cents)
		})
	}

	t.Run("garbage yields not ok", func(t *testing.T) {
		cents, _, ok := ParseCurrency("n/a", CentsModeOff)
		assert.False(t, ok)
		assert.Zero(t, cents)
	})
}

func TestParseCurrency_CentsModes(t *testing.T) {
	t.Run("off never corrects", func(t *testing.T) {
		cents, corrected, ok := ParseCurrency("350000", CentsModeOff)
		require.True(t, ok)
		assert.False(t, corrected)
		assert.Equal(t, int64(35000000), cents)
	})

	t.Run("warn corrects above threshold", func(t *testing.T) {
		cents, corrected, ok := ParseCurrency("350000", CentsModeWarn)
		require.True(t, ok)
		assert.True(t, corrected)
		assert.Equal(t, int64(350000), cents)
	})

	t.Run("warn leaves plausible values alone", func(t *testing.T) {
		cents, corrected, ok := ParseCurrency("350,00", CentsModeWarn)
		require.True(t, ok)
		assert.False(t, corrected)
		assert.Equal(t, int64(35000), cents)
	})

	t.Run("force treats everything as cents", func(t *testing.T) {
		cents, _, ok := ParseCurrency("35000", CentsModeForce)
		require.True(t, ok)
		assert.Equal(t, int64(35000), cents)
	})
}

func TestParseCurrency_Idempotent(t *testing.T) {
	// Coercing a canonical rendering of already-coerced cents is a no-op.
	inputs := []string{"1.234,56", "350,00", "R$ 99,90", "0,01"}
	for _, in := range inputs {
		first, _, ok := ParseCurrency(in, CentsModeOff)
		require.True(t, ok)

		second, corrected, ok := ParseCurrency(FormatCents(first), CentsModeOff)
		require.True(t, ok)
		assert.False(t, corrected)
		assert.Equal(t, first, second, "input %q", in)
	}
}

func TestParseBool(t *testing.T) {
	truthy := []string{"sim", "SIM", "Sim", "yes", "true", "1", "verdadeiro", "s", "y", "S"}
	for _, v := range truthy {
		assert.True(t, ParseBool(v), "input %q", v)
	}

	falsy := []string{"não", "nao", "no", "false", "0", "n", "", "maybe"}
	for _, v := range falsy {
		assert.False(t, ParseBool(v), "input %q", v)
	}
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 12, ParseInt("12 meses"))
	assert.Equal(t, 3, ParseInt("3x"))
	assert.Equal(t, 0, ParseInt("sem garantia"))
	assert.Equal(t, 0, ParseInt(""))
	assert.Equal(t, 1234, ParseInt("1.234"))
}

func TestParsePhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"11987654321", "(11) 98765-4321"},
		{"1187654321", "(11) 8765-4321"},
		{"(11) 98765-4321", "(11) 98765-4321"},
		{"+55 11 98765 4321", "5511987654321"},
		{"987", "987"},
		{"", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, ParsePhone(tc.input), "input %q", tc.input)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
	}{
		{"2026-03-15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15/03/2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15-03-2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15.03.2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseDate(tc.input, "", nil)
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(got))
		})
	}

	t.Run("invalid date errors", func(t *testing.T) {
		_, err := ParseDate("not-a-date", "", nil)
		assert.Error(t, err)
	})

	t.Run("empty date errors", func(t *testing.T) {
		_, err := ParseDate("  ", "", nil)
		assert.Error(t, err)
	})

	t.Run("configured format wins", func(t *testing.T) {
		got, err := ParseDate("03/04/2026", "01/02/2006", nil)
		require.NoError(t, err)
		assert.Equal(t, time.Month(3), got.Month())
	})
}

func TestDetectDateFormat(t *testing.T) {
	t.Run("day first disambiguated by sample", func(t *testing.T) {
		format := DetectDateFormat([]string{"05/02/2026", "28/02/2026"})
		assert.Equal(t, "02/01/2006", format)
	})

	t.Run("iso detected", func(t *testing.T) {
		format := DetectDateFormat([]string{"2026-01-05", "2026-02-28"})
		assert.Equal(t, "2006-01-02", format)
	})
}
