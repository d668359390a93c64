package receipt

import (
	"context"
	"errors"
	"testing"
)

type fakeVision struct {
	response string
	err      error
}

func (f *fakeVision) CompleteVision(_ context.Context, _, _, _ string) (string, error) {
	return f.response, f.err
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantItems []LineItem
		wantErr   bool
	}{
		{
			name:     "clean object",
			response: `{"Burger": 10.00, "Fries": 3.00}`,
			wantItems: []LineItem{
				{Name: "Burger"},
				{Name: "Fries"},
			},
		},
		{
			name:     "object wrapped in prose",
			response: "Here you go:\n```json\n{\"Soda\": 2.5}\n```",
			wantItems: []LineItem{
				{Name: "Soda"},
			},
		},
		{
			name:     "duplicate names get suffixed",
			response: `{"Beer": 6.00, "Beer": 6.00, "Beer": 7.00}`,
			wantItems: []LineItem{
				{Name: "Beer"},
				{Name: "Beer #2"},
				{Name: "Beer #3"},
			},
		},
		{
			name:     "nested value rejected",
			response: `{"Combo": {"Burger": 10.00}}`,
			wantErr:  true,
		},
		{
			name:     "string value rejected",
			response: `{"Burger": "ten"}`,
			wantErr:  true,
		},
		{
			name:     "negative price rejected",
			response: `{"Refund": -3.00}`,
			wantErr:  true,
		},
		{
			name:     "no braces",
			response: "I can't read this image.",
			wantErr:  true,
		},
		{
			name:     "empty object",
			response: `{}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Extract(context.Background(), &fakeVision{response: tt.response}, "https://cdn.example/receipt.jpg")
			if tt.wantErr {
				if !errors.Is(err, ErrExtractionFailed) {
					t.Fatalf("Extract error = %v, want ErrExtractionFailed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if len(items) != len(tt.wantItems) {
				t.Fatalf("Extract returned %d items, want %d", len(items), len(tt.wantItems))
			}
			for i := range items {
				if items[i].Name != tt.wantItems[i].Name {
					t.Errorf("item %d name = %q, want %q", i, items[i].Name, tt.wantItems[i].Name)
				}
			}
		})
	}
}

func TestTotal(t *testing.T) {
	items, err := Extract(context.Background(), &fakeVision{response: `{"Burger": 10.00, "Fries": 3.00}`}, "u")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := Total(items); got.String() != "13" {
		t.Errorf("Total = %s, want 13", got)
	}
}
