package order

import (
	"testing"

	"futures-testnet-bot/internal/model"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func btcFilters() model.SymbolFilters {
	return model.SymbolFilters{
		Symbol:         "BTCUSDT",
		Status:         model.StatusTrading,
		TickSize:       dec("0.1"),
		StepSize:       dec("0.001"),
		MinPrice:       dec("556.8"),
		MaxPrice:       dec("4529764"),
		MinQty:         dec("0.001"),
		MaxQty:         dec("1000"),
		MinNotional:    dec("100"),
		MultiplierUp:   dec("1.1"),
		MultiplierDown: dec("0.9"),
	}
}

func TestNormalizeQuantity(t *testing.T) {
	f := btcFilters()

	tests := []struct {
		name     string
		raw      string
		want     string
		wantCode Reason
	}{
		{"RoundsDown", "0.0015", "0.001", ""},
		{"ExactMultipleUnchanged", "0.003", "0.003", ""},
		{"MinQtyExact", "0.001", "0.001", ""},
		{"RoundsDownBelowMin", "0.0001", "", ReasonBelowMinQty},
		{"RoundsToZero", "0.0009", "", ReasonBelowMinQty},
		{"AboveMax", "1500", "", ReasonQtyOutOfRange},
		{"LargeExact", "999.999", "999.999", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeQuantity(dec(tt.raw), f)
			if tt.wantCode != "" {
				rej, ok := AsRejection(err)
				if !ok {
					t.Fatalf("NormalizeQuantity(%s) error = %v, want Rejection", tt.raw, err)
				}
				if rej.Code != tt.wantCode {
					t.Errorf("NormalizeQuantity(%s) code = %s, want %s", tt.raw, rej.Code, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeQuantity(%s) unexpected error: %v", tt.raw, err)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("NormalizeQuantity(%s) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

// Round-down law: the result never exceeds the input and is always an
// exact multiple of the step size.
func TestNormalizeQuantity_RoundDownLaw(t *testing.T) {
	f := btcFilters()
	inputs := []string{"0.001", "0.0015", "0.0019999", "1.23456789", "42.0005", "999.9999"}

	for _, in := range inputs {
		raw := dec(in)
		got, err := NormalizeQuantity(raw, f)
		if err != nil {
			t.Fatalf("NormalizeQuantity(%s) unexpected error: %v", in, err)
		}
		if got.GreaterThan(raw) {
			t.Errorf("NormalizeQuantity(%s) = %s exceeds input", in, got)
		}
		if !got.Mod(f.StepSize).IsZero() {
			t.Errorf("NormalizeQuantity(%s) = %s is not a multiple of step %s", in, got, f.StepSize)
		}
	}
}

func TestNormalizePrice(t *testing.T) {
	f := btcFilters()

	tests := []struct {
		name     string
		raw      string
		want     string
		wantCode Reason
	}{
		{"RoundsDownBelowHalf", "122000.03", "122000.0", ""},
		{"TieRoundsUp", "122000.05", "122000.1", ""},
		{"RoundsUpAboveHalf", "122000.07", "122000.1", ""},
		{"ExactTickUnchanged", "121999.9", "121999.9", ""},
		{"BelowMinPrice", "100", "", ReasonPriceOutOfRange},
		{"AboveMaxPrice", "5000000", "", ReasonPriceOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePrice(dec(tt.raw), f)
			if tt.wantCode != "" {
				rej, ok := AsRejection(err)
				if !ok {
					t.Fatalf("NormalizePrice(%s) error = %v, want Rejection", tt.raw, err)
				}
				if rej.Code != tt.wantCode {
					t.Errorf("NormalizePrice(%s) code = %s, want %s", tt.raw, rej.Code, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePrice(%s) unexpected error: %v", tt.raw, err)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("NormalizePrice(%s) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

// Normalizing an already-normalized value returns it unchanged.
func TestNormalize_Idempotence(t *testing.T) {
	f := btcFilters()

	qty, err := NormalizeQuantity(dec("0.0015"), f)
	if err != nil {
		t.Fatal(err)
	}
	again, err := NormalizeQuantity(qty, f)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Equal(qty) {
		t.Errorf("quantity not idempotent: %s -> %s", qty, again)
	}

	price, err := NormalizePrice(dec("122000.03"), f)
	if err != nil {
		t.Fatal(err)
	}
	again, err = NormalizePrice(price, f)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Equal(price) {
		t.Errorf("price not idempotent: %s -> %s", price, again)
	}
}
