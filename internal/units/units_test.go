package units

import (
	"errors"
	"math"
	"testing"
)

func TestConvert(t *testing.T) {
	cases := []struct {
		value    float64
		from, to string
		want     float64
	}{
		{1, "KM", "M", 1000},
		{1, "M", "CM", 100},
		{2500, "MM", "M", 2.5},
		{1, "km", "mm", 1000000},
		{1, "M2", "MU", 1 / 666.67},
		{1, "MU", "M2", 666.67},
		{3, "KM2", "M2", 3000000},
	}

	for _, c := range cases {
		got, err := Convert(c.value, c.from, c.to)
		if err != nil {
			t.Fatalf("Convert(%v, %s, %s): %v", c.value, c.from, c.to, err)
		}
		if math.Abs(got-c.want) > 1e-9*math.Max(1, math.Abs(c.want)) {
			t.Errorf("Convert(%v, %s, %s): expected %v, got %v", c.value, c.from, c.to, c.want, got)
		}
	}
}

func TestConvertAreaRoundTrip(t *testing.T) {
	for _, x := range []float64{0, 1, 12.5, 987654.321} {
		km2, err := ConvertArea(x, M2, KM2)
		if err != nil {
			t.Fatal(err)
		}
		back, err := ConvertArea(km2, KM2, M2)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(back-x) > 1e-9*math.Max(1, x) {
			t.Errorf("round trip of %v: got %v", x, back)
		}
	}
}

func TestConvertUnsupported(t *testing.T) {
	for _, c := range [][2]string{
		{"FT", "M"},
		{"M", "M2"},
		{"KM2", "KM"},
		{"M2", "ACRE"},
	} {
		_, err := Convert(1, c[0], c[1])
		var unitErr *UnsupportedUnitError
		if !errors.As(err, &unitErr) {
			t.Errorf("Convert(1, %s, %s): expected UnsupportedUnitError, got %v", c[0], c[1], err)
		}
	}
}

func TestBaseConversionsRejectUnknown(t *testing.T) {
	if _, err := LengthToBase(1, "YD"); err == nil {
		t.Error("LengthToBase accepted YD")
	}
	if _, err := LengthBaseTo(1, "YD"); err == nil {
		t.Error("LengthBaseTo accepted YD")
	}
	if _, err := AreaToBase(1, "HA"); err == nil {
		t.Error("AreaToBase accepted HA")
	}
	if _, err := AreaBaseTo(1, "HA"); err == nil {
		t.Error("AreaBaseTo accepted HA")
	}
}
