package gamemath

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Cents is a currency amount in hundredths of the base unit (scaled int64).
// All currency arithmetic in the engine happens on Cents; floats appear only
// at the encode/decode boundary, where values round half away from zero.
type Cents int64

// CentsFromFloat converts a decimal currency amount (e.g. 12.5) to Cents.
func CentsFromFloat(f float64) Cents {
	return Cents(math.Round(f * 100))
}

// Float64 returns the decimal currency amount (e.g. Cents(1250) -> 12.5).
func (c Cents) Float64() float64 {
	return float64(c) / 100
}

// MulFloat scales the amount by a multiplier and rounds to the nearest cent.
func (c Cents) MulFloat(m float64) Cents {
	return Cents(math.Round(float64(c) * m))
}

// MulInt scales the amount by an integer count.
func (c Cents) MulInt(n int64) Cents {
	return c * Cents(n)
}

func (c Cents) String() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON encodes the amount as a plain decimal number (1250 -> 12.5).
func (c Cents) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, c.Float64(), 'f', -1, 64), nil
}

func (c *Cents) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid currency amount %q: %w", string(data), err)
	}
	*c = CentsFromFloat(f)
	return nil
}

func (c Cents) MarshalYAML() (interface{}, error) {
	return c.Float64(), nil
}

func (c *Cents) UnmarshalYAML(value *yaml.Node) error {
	var f float64
	if err := value.Decode(&f); err != nil {
		return fmt.Errorf("invalid currency amount %q: %w", value.Value, err)
	}
	*c = CentsFromFloat(f)
	return nil
}
