package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSize(t *testing.T) {
	dev := newTestDevice()
	find := func(name string) *Property {
		for _, p := range dev.Properties {
			if p.Name == name {
				return p
			}
		}
		t.Fatalf("no property %q", name)
		return nil
	}

	tests := []struct {
		name string
		prop string
		sc   SizeContext
		want int
	}{
		{"structure", "regs/out", SizeContext{Extension: ExtNone, Structure: true}, LengthStructure},
		{"directory", "eeprom", SizeContext{Extension: ExtNone}, LengthDirectory},
		{"binary", "memory", SizeContext{Extension: ExtNone}, 128},
		{"ascii", "version", SizeContext{Extension: ExtNone}, 5},
		{"unsigned", "regs/out", SizeContext{Extension: ExtNone}, 12},
		{"integer", "regs/offset", SizeContext{Extension: ExtNone}, 12},
		{"date", "regs/date", SizeContext{Extension: ExtNone}, 24},
		{"yesno element", "eeprom/erase", SizeContext{Extension: 1}, 1},
		{"yesno ALL", "eeprom/erase", SizeContext{Extension: ExtAll}, 2*(1+1) - 1},
		{"binary element", "eeprom/page", SizeContext{Extension: 0}, 512},
		{"binary ALL", "eeprom/page", SizeContext{Extension: ExtAll}, 2 * 512},
		{"unsigned ALL", "regs/user", SizeContext{Extension: ExtAll}, 4*(12+1) - 1},
		{"bit", "regs/pio", SizeContext{Extension: 3}, 1},
		{"bit BYTE", "regs/pio", SizeContext{Extension: ExtByte}, LengthBitByte},
		{"bit ALL", "regs/pio", SizeContext{Extension: ExtAll}, 8*2 - 1},
		{"structure of aggregate", "eeprom/page", SizeContext{Extension: ExtAll, Structure: true}, LengthStructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Size(find(tt.prop), tt.sc))
		})
	}
}

func TestSize_AllFormula(t *testing.T) {
	for n := 1; n <= 16; n++ {
		for _, l := range []int{1, 5, 32, 512} {
			bin := &Property{Name: "b", Length: l, Format: FormatBinary, Aggregate: &Aggregate{Elements: n}}
			assert.Equal(t, n*l, Size(bin, SizeContext{Extension: ExtAll}))

			text := &Property{Name: "a", Length: l, Format: FormatASCII, Aggregate: &Aggregate{Elements: n}}
			assert.Equal(t, n*(l+1)-1, Size(text, SizeContext{Extension: ExtAll}))
		}
	}
}

func TestHandle_Size(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, 1024, env.handle(t, "eeprom/page.ALL").Size())
	assert.Equal(t, 12, env.handle(t, "regs/pio.BYTE").Size())
	assert.Equal(t, 8, env.handle(t, "firmware").Size())
}
