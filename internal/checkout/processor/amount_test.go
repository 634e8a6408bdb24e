package processor

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		price    string
		currency string
		want     int64
	}{
		{"499.00", "INR", 49900},
		{"499", "INR", 49900},
		{"0.29", "USD", 29},
		{"19.99", "usd", 1999},
		{"1.005", "EUR", 101},
		{"1.004", "EUR", 100},
		{"1500", "JPY", 1500},
		{"1.2345", "KWD", 1235},
		{"0", "INR", 0},
	}
	for _, tt := range tests {
		t.Run(tt.price+"_"+tt.currency, func(t *testing.T) {
			got, err := ToMinorUnits(decimal.RequireFromString(tt.price), tt.currency)
			if err != nil {
				t.Fatalf("ToMinorUnits() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ToMinorUnits() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToMinorUnitsNoFloatDrift(t *testing.T) {
	// 0.29 * 100 as float64 truncates to 28
	for cents := int64(0); cents < 100000; cents += 7 {
		price := decimal.New(cents, -2)
		got, err := ToMinorUnits(price, "INR")
		if err != nil {
			t.Fatalf("ToMinorUnits(%s) error = %v", price, err)
		}
		if got != cents {
			t.Fatalf("ToMinorUnits(%s) = %d, want %d", price, got, cents)
		}
	}
}

func TestToMinorUnitsRejects(t *testing.T) {
	if _, err := ToMinorUnits(decimal.RequireFromString("-1.00"), "INR"); err == nil {
		t.Error("expected error for negative price")
	}
	if _, err := ToMinorUnits(decimal.RequireFromString("1e30"), "INR"); err == nil {
		t.Error("expected error for overflowing price")
	}
}

func TestBuildReceipt(t *testing.T) {
	at := time.UnixMilli(1700000000123)

	got := BuildReceipt(42, 7, at)
	if got != "rcpt_c42_u7_1700000000123" {
		t.Errorf("BuildReceipt() = %q", got)
	}

	long := BuildReceipt(4294967295, 4294967295, at)
	if len(long) > MaxReceiptLength {
		t.Errorf("BuildReceipt() length = %d, want <= %d", len(long), MaxReceiptLength)
	}
	if !strings.HasPrefix(long, "rcpt_c4294967295_u4294967295_") {
		t.Errorf("BuildReceipt() = %q lost its traceable prefix", long)
	}
}

func TestFormatMinorUnits(t *testing.T) {
	tests := []struct {
		amount   int64
		currency string
		want     string
	}{
		{49900, "INR", "499.00"},
		{29, "usd", "0.29"},
		{1500, "JPY", "1500"},
		{1250, "KWD", "1.250"},
	}
	for _, tt := range tests {
		if got := FormatMinorUnits(tt.amount, tt.currency); got != tt.want {
			t.Errorf("FormatMinorUnits(%d, %s) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}
