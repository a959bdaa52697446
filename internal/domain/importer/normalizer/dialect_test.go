package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeDialect_BrazilianAmounts(t *testing.T) {
	d := ProbeDialect([]string{"R$ 1.234,56", "350,00", "99,90"}, nil)

	assert.True(t, d.DecimalComma)
	assert.False(t, d.LikelyCents)
	assert.Equal(t, 1.0, d.Confidence)
}

func TestProbeDialect_USAmounts(t *testing.T) {
	d := ProbeDialect([]string{"$1,234.56", "99.90", "350.00"}, nil)

	assert.False(t, d.DecimalComma)
	assert.Equal(t, 1.0, d.Confidence)
}

func TestProbeDialect_LikelyCents(t *testing.T) {
	t.Run("bare integers over the threshold", func(t *testing.T) {
		d := ProbeDialect([]string{"350000", "980000", "125000"}, nil)
		assert.True(t, d.LikelyCents)
	})

	t.Run("bare integers in major-unit range", func(t *testing.T) {
		d := ProbeDialect([]string{"350", "1200", "90"}, nil)
		assert.False(t, d.LikelyCents)
	})

	t.Run("any decimal sample disproves cents", func(t *testing.T) {
		d := ProbeDialect([]string{"350000", "980,00"}, nil)
		assert.False(t, d.LikelyCents)
	})
}

func TestProbeDialect_DateFormat(t *testing.T) {
	t.Run("day first when a sample proves it", func(t *testing.T) {
		d := ProbeDialect(nil, []string{"15/09/2026", "01/10/2026"})
		assert.Equal(t, "02/01/2006", d.DateFormat)
	})

	t.Run("month first when a sample proves it", func(t *testing.T) {
		d := ProbeDialect(nil, []string{"03/15/2026", "04/01/2026"})
		assert.Equal(t, "01/02/2006", d.DateFormat)
	})

	t.Run("iso", func(t *testing.T) {
		d := ProbeDialect(nil, []string{"2026-09-30", "2026-10-15"})
		assert.Equal(t, "2006-01-02", d.DateFormat)
	})

	t.Run("unparseable dates fall back day-first for comma dialects", func(t *testing.T) {
		d := ProbeDialect([]string{"350,00"}, []string{"em breve"})
		assert.Equal(t, "02/01/2006", d.DateFormat)
	})

	t.Run("no samples settle nothing", func(t *testing.T) {
		d := ProbeDialect(nil, nil)
		assert.Empty(t, d.DateFormat)
	})
}
