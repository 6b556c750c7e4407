package core

import "testing"

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"50000", 50000, true},
		{"50000.00", 50000, true},
		{" 250000 ", 250000, true},
		{"-100", -100, true}, // sign preserved, validation is separate
		{"abc", 0, false},
		{"", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(NewMoney(tc.out)) {
				t.Fatalf("%q expected %d, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseMoneyComma(t *testing.T) {
	got, err := ParseMoney("12500,5")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got.String() != "12500.5" {
		t.Fatalf("expected 12500.5, got %s", got.String())
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := NewMoney(1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := NewMoney(0).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := NewMoney(-50).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoney(500)
	b := NewMoney(200)
	if got := a.Sub(b); !got.Equal(NewMoney(300)) {
		t.Fatalf("500-200 expected 300, got %v", got)
	}
	if got := a.Add(b.Neg()); !got.Equal(NewMoney(300)) {
		t.Fatalf("500+(-200) expected 300, got %v", got)
	}
	if a.Cmp(b) != 1 || b.Cmp(a) != -1 || a.Cmp(a) != 0 {
		t.Fatalf("Cmp ordering wrong")
	}
}
