package aksjeradar

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyArithmetic(t *testing.T) {
	a := M(100.50, "NOK")
	b := M(50, "NOK")

	if got := a.Add(b); !got.Value().Equal(decimal.RequireFromString("150.5")) {
		t.Errorf("Add = %s", got.Value())
	}
	if got := a.Sub(b); !got.Value().Equal(decimal.RequireFromString("50.5")) {
		t.Errorf("Sub = %s", got.Value())
	}
	if got := b.MulDec(decimal.NewFromInt(3)); !got.Value().Equal(decimal.NewFromInt(150)) {
		t.Errorf("MulDec = %s", got.Value())
	}
}

func TestMoneyWeakEmptyCurrency(t *testing.T) {
	// The zero Money acts as a neutral element regardless of currency.
	var zero Money
	got := zero.Add(M(10, "NOK"))
	if got.Currency() != "NOK" || !got.Value().Equal(decimal.NewFromInt(10)) {
		t.Errorf("zero + 10 NOK = %s %s", got.Value(), got.Currency())
	}
}

func TestMoneyCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("adding NOK to USD must panic")
		}
	}()
	M(1, "NOK").Add(M(1, "USD"))
}

func TestMoneySignedString(t *testing.T) {
	if got := M(0, "NOK").SignedString(); got != "-" {
		t.Errorf("zero = %q, want \"-\"", got)
	}
	if got := M(5, "NOK").SignedString(); got[0] != '+' {
		t.Errorf("positive value %q lacks its sign", got)
	}
}
