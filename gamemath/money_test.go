package gamemath

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestCents_FromFloatRounding(t *testing.T) {
	cases := []struct {
		in   float64
		want Cents
	}{
		{2.5, 250},
		{19.99, 1999},
		{0, 0},
		{-2.5, -250},
		{0.005, 1},   // half rounds away from zero
		{-0.005, -1}, // on both sides
	}
	for _, c := range cases {
		if got := CentsFromFloat(c.in); got != c.want {
			t.Errorf("CentsFromFloat(%v) = %d want %d", c.in, got, c.want)
		}
	}
}

func TestCents_String(t *testing.T) {
	cases := []struct {
		in   Cents
		want string
	}{
		{1250, "12.50"},
		{100, "1.00"},
		{0, "0.00"},
		{-5, "-0.05"},
		{-1250, "-12.50"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Errorf("Cents(%d).String() = %q want %q", c.in, got, c.want)
		}
	}
}

func TestCents_MulFloat(t *testing.T) {
	if got := Cents(250).MulFloat(2.5); got != 625 {
		t.Errorf("250 * 2.5 = %d want 625", got)
	}
	if got := Cents(333).MulFloat(0.5); got != 167 {
		t.Errorf("333 * 0.5 = %d want 167 (round half away)", got)
	}
	if got := Cents(-100).MulFloat(0.335); got != -34 {
		t.Errorf("-100 * 0.335 = %d want -34", got)
	}
}

func TestCents_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(Cents(1250))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "12.5" {
		t.Errorf("marshal 1250 = %s want 12.5", data)
	}

	var c Cents
	if err := json.Unmarshal([]byte("2.55"), &c); err != nil {
		t.Fatal(err)
	}
	if c != 255 {
		t.Errorf("unmarshal 2.55 = %d want 255", c)
	}
	if err := json.Unmarshal([]byte(`"abc"`), &c); err == nil {
		t.Error("unmarshal non-number should error")
	}
}

func TestCents_YAML(t *testing.T) {
	var out struct {
		Price Cents `yaml:"price"`
	}
	if err := yaml.Unmarshal([]byte("price: 2.5\n"), &out); err != nil {
		t.Fatal(err)
	}
	if out.Price != 250 {
		t.Errorf("yaml price = %d want 250", out.Price)
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	var back struct {
		Price Cents `yaml:"price"`
	}
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Price != 250 {
		t.Errorf("yaml round-trip = %d want 250", back.Price)
	}
}
