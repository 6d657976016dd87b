package quant

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRoundPrice(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"93759.484", "93759.48"},
		{"93759.485", "93759.49"},
		{"1.005", "1.01"},
		{"0.004", "0"},
		{"-1.234", "-1.23"},
	}

	for _, tt := range tests {
		got := RoundPrice(decimal.RequireFromString(tt.input))
		if !got.Equal(decimal.RequireFromString(tt.expected)) {
			t.Errorf("RoundPrice(%s) = %s; want %s", tt.input, got, tt.expected)
		}
	}
}

func TestUniform_Bounds(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	amp := decimal.RequireFromString("0.2")

	for i := 0; i < 10000; i++ {
		v := Uniform(r, amp)
		if v.LessThan(amp.Neg()) || v.GreaterThanOrEqual(amp) {
			t.Fatalf("Uniform out of range: %s", v)
		}
	}
}

func TestUniform_Deterministic(t *testing.T) {
	amp := decimal.RequireFromString("0.005")
	a := rand.New(rand.NewPCG(42, 42))
	b := rand.New(rand.NewPCG(42, 42))

	for i := 0; i < 100; i++ {
		if !Uniform(a, amp).Equal(Uniform(b, amp)) {
			t.Fatal("same seed should produce the same sequence")
		}
	}
}

func TestScale(t *testing.T) {
	got := Scale(decimal.NewFromInt(100), decimal.RequireFromString("0.02"))
	if !got.Equal(decimal.NewFromInt(102)) {
		t.Errorf("Scale = %s; want 102", got)
	}
}

func TestNextSeq(t *testing.T) {
	var seq uint64
	if NextSeq(&seq) != 1 || NextSeq(&seq) != 2 {
		t.Errorf("NextSeq should count from 1, got %d", seq)
	}
}

func TestTimeStamp_RoundTrip(t *testing.T) {
	now := time.Date(2025, 4, 23, 10, 30, 0, 123000, time.UTC)
	ts := FromTime(now)
	if !ts.Time().Equal(now) {
		t.Errorf("round trip mismatch: %v != %v", ts.Time(), now)
	}
}

func TestParseDecimal(t *testing.T) {
	if _, err := ParseDecimal(""); err == nil {
		t.Error("empty string should be rejected")
	}
	if _, err := ParseDecimal("null"); err == nil {
		t.Error("null should be rejected")
	}
	d, err := ParseDecimal(" 0.25 ")
	if err != nil {
		t.Fatalf("ParseDecimal failed: %v", err)
	}
	if !d.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("got %s", d)
	}
}
