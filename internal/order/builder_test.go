package order

import (
	"testing"

	"futures-testnet-bot/internal/model"
)

func TestBuildIntent(t *testing.T) {
	tests := []struct {
		name    string
		args    RawOrderArgs
		wantErr bool
	}{
		{
			name: "ValidMarket",
			args: RawOrderArgs{Symbol: "btcusdt", Side: "buy", Type: "market", Quantity: "0.001"},
		},
		{
			name: "ValidLimit",
			args: RawOrderArgs{Symbol: "BTCUSDT", Side: "SELL", Type: "LIMIT", Quantity: "0.002", Price: "122000.03"},
		},
		{
			name: "ValidStopLimitCLISpelling",
			args: RawOrderArgs{Symbol: "BTCUSDT", Side: "SELL", Type: "stop-limit", Quantity: "0.002", Price: "118000", StopPrice: "119000"},
		},
		{
			name:    "EmptySymbol",
			args:    RawOrderArgs{Side: "BUY", Type: "MARKET", Quantity: "0.001"},
			wantErr: true,
		},
		{
			name:    "BadSide",
			args:    RawOrderArgs{Symbol: "BTCUSDT", Side: "HOLD", Type: "MARKET", Quantity: "0.001"},
			wantErr: true,
		},
		{
			name:    "BadType",
			args:    RawOrderArgs{Symbol: "BTCUSDT", Side: "BUY", Type: "ICEBERG", Quantity: "0.001"},
			wantErr: true,
		},
		{
			name:    "UnparseableQuantity",
			args:    RawOrderArgs{Symbol: "BTCUSDT", Side: "BUY", Type: "MARKET", Quantity: "a lot"},
			wantErr: true,
		},
		{
			name:    "NegativeQuantity",
			args:    RawOrderArgs{Symbol: "BTCUSDT", Side: "BUY", Type: "MARKET", Quantity: "-0.001"},
			wantErr: true,
		},
		{
			name:    "LimitWithoutPrice",
			args:    RawOrderArgs{Symbol: "BTCUSDT", Side: "BUY", Type: "LIMIT", Quantity: "0.001"},
			wantErr: true,
		},
		{
			name:    "StopLimitWithoutStopPrice",
			args:    RawOrderArgs{Symbol: "BTCUSDT", Side: "BUY", Type: "STOP_LIMIT", Quantity: "0.001", Price: "120000"},
			wantErr: true,
		},
		{
			name:    "BadTimeInForce",
			args:    RawOrderArgs{Symbol: "BTCUSDT", Side: "BUY", Type: "LIMIT", Quantity: "0.001", Price: "120000", TimeInForce: "GTD"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildIntent(tt.args)
			if tt.wantErr {
				rej, ok := AsRejection(err)
				if !ok {
					t.Fatalf("BuildIntent() error = %v, want Rejection", err)
				}
				if rej.Code != ReasonMalformedInput {
					t.Errorf("code = %s, want %s", rej.Code, ReasonMalformedInput)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildIntent() unexpected error: %v", err)
			}
			if got.Symbol != "BTCUSDT" {
				t.Errorf("symbol = %q, want BTCUSDT", got.Symbol)
			}
		})
	}
}

func TestBuildIntent_Defaults(t *testing.T) {
	got, err := BuildIntent(RawOrderArgs{
		Symbol: "BTCUSDT", Side: "SELL", Type: "LIMIT", Quantity: "0.002", Price: "122000",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.TimeInForce != "GTC" {
		t.Errorf("TimeInForce = %q, want GTC default", got.TimeInForce)
	}

	// Market orders carry no time in force at all.
	got, err = BuildIntent(RawOrderArgs{
		Symbol: "BTCUSDT", Side: "BUY", Type: "MARKET", Quantity: "0.001",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.TimeInForce != "" {
		t.Errorf("market TimeInForce = %q, want empty", got.TimeInForce)
	}
	if !got.Price.IsZero() {
		t.Errorf("market Price = %s, want zero", got.Price)
	}
}

func TestBuildIntent_NeverValidatesBusinessRules(t *testing.T) {
	// A quantity far below any plausible minimum still builds; only the
	// validator may reject on filter grounds.
	got, err := BuildIntent(RawOrderArgs{
		Symbol: "BTCUSDT", Side: "BUY", Type: "MARKET", Quantity: "0.00000001",
	})
	if err != nil {
		t.Fatalf("BuildIntent() unexpected error: %v", err)
	}
	if got.Type != model.TypeMarket {
		t.Errorf("type = %s, want MARKET", got.Type)
	}
}
