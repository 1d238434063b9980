package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crossmap/internal/table"
)

func TestCompatible(t *testing.T) {
	tests := []struct {
		a, b table.Kind
		want Compatibility
	}{
		{table.KindText, table.KindText, Identical},
		{table.KindInteger, table.KindDecimal, Convertible},
		{table.KindInteger, table.KindText, Convertible},
		{table.KindDate, table.KindText, Convertible},
		{table.KindDate, table.KindInteger, Incompatible},
		{table.KindBoolean, table.KindDecimal, Incompatible},
		{table.KindEmpty, table.KindText, Incompatible},
		{table.KindEmpty, table.KindEmpty, Incompatible},
	}

	for _, tt := range tests {
		t.Run(tt.a.String()+"_"+tt.b.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Compatible(tt.a, tt.b))
			assert.Equal(t, tt.want, Compatible(tt.b, tt.a))
		})
	}

	assert.Equal(t, "convertible", Convertible.String())
}
