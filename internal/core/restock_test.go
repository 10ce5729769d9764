package core_test

import (
	"testing"

	"candyshop/internal/core"
)

func TestRestockProposal_Validate(t *testing.T) {
	catalog := []core.Product{{ID: "p1", Name: "Brigadeiro"}, {ID: "p2", Name: "Trufa"}}

	tests := []struct {
		name      string
		proposal  core.RestockProposal
		expectErr bool
	}{
		{
			name: "happy path",
			proposal: core.RestockProposal{
				Items: []core.RestockItem{
					{ProductID: "p1", ProductName: "Brigadeiro", SuggestedStock: 20},
					{ProductID: "p2", ProductName: "Trufa", SuggestedStock: 12},
				},
				Summary: "Repor os doces mais vendidos.",
			},
		},
		{
			name:      "no items",
			proposal:  core.RestockProposal{Summary: "nada"},
			expectErr: true,
		},
		{
			name: "unknown product",
			proposal: core.RestockProposal{
				Items: []core.RestockItem{{ProductID: "ghost", SuggestedStock: 5}},
			},
			expectErr: true,
		},
		{
			name: "negative suggested stock",
			proposal: core.RestockProposal{
				Items: []core.RestockItem{{ProductID: "p1", SuggestedStock: -1}},
			},
			expectErr: true,
		},
		{
			name: "whitespace id normalized",
			proposal: core.RestockProposal{
				Items: []core.RestockItem{{ProductID: "  p1  ", SuggestedStock: 8}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.proposal.Normalize()
			err := tt.proposal.Validate(catalog)
			if tt.expectErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
