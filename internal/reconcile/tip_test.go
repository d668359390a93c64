package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseTipFraction(t *testing.T) {
	total := decimal.RequireFromString("13.00")

	tests := []struct {
		name    string
		tip     string
		want    string
		wantErr bool
	}{
		{name: "empty", tip: "", want: "0"},
		{name: "whitespace", tip: "  ", want: "0"},
		{name: "percentage", tip: "15%", want: "0.15"},
		{name: "percentage with space", tip: "10 %", want: "0.1"},
		{name: "absolute", tip: "1.30", want: "0.1"},
		{name: "absolute with dollar", tip: "$2.60", want: "0.2"},
		{name: "zero amount", tip: "0", want: "0"},
		{name: "negative percentage", tip: "-5%", wantErr: true},
		{name: "negative amount", tip: "-1.00", wantErr: true},
		{name: "garbage", tip: "generous", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTipFraction(tt.tip, total)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTipFraction(%q) expected error, got %s", tt.tip, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTipFraction(%q) failed: %v", tt.tip, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseTipFraction(%q) = %s, want %s", tt.tip, got, tt.want)
			}
		})
	}
}

func TestParseTipFractionEmptyReceipt(t *testing.T) {
	if _, err := ParseTipFraction("5.00", decimal.Zero); err == nil {
		t.Errorf("absolute tip on zero total must error")
	}
	if got, err := ParseTipFraction("", decimal.Zero); err != nil || !got.IsZero() {
		t.Errorf("empty tip on zero total = %s, %v", got, err)
	}
}

func TestApplyTipZeroIsIdentity(t *testing.T) {
	allocation := map[string]decimal.Decimal{
		"a": decimal.RequireFromString("6.50"),
	}
	tipped := ApplyTip(allocation, decimal.Zero)
	if tipped["a"].String() != "6.5" {
		t.Errorf("zero tip changed the share: %s", tipped["a"])
	}
}
