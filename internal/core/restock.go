package core

import (
	"errors"
	"fmt"
	"strings"
)

// RestockItem is a single suggested stock level in an AI restock proposal.
type RestockItem struct {
	ProductID      string `json:"product_id" jsonschema_description:"The exact id of the product from the provided catalog"`
	ProductName    string `json:"product_name" jsonschema_description:"The product name, copied from the catalog"`
	SuggestedStock int    `json:"suggested_stock" jsonschema_description:"The suggested total stock level after replenishment (not the delta), always >= 0"`
	Reasoning      string `json:"reasoning" jsonschema_description:"Short explanation for the suggested level"`
}

// RestockProposal is the AI-generated replenishment suggestion for the
// products currently below the low-stock threshold. It is only applied to
// stock levels after explicit user confirmation.
type RestockProposal struct {
	Items   []RestockItem `json:"items" jsonschema_description:"One entry per product that should be restocked"`
	Summary string        `json:"summary" jsonschema_description:"One or two sentences summarizing the replenishment plan"`
}

// Normalize cleans up model output before validation.
func (p *RestockProposal) Normalize() {
	p.Summary = strings.TrimSpace(p.Summary)
	for i := range p.Items {
		p.Items[i].ProductID = strings.TrimSpace(p.Items[i].ProductID)
		p.Items[i].ProductName = strings.TrimSpace(p.Items[i].ProductName)
	}
}

// Validate checks the proposal against the live catalog: every item must
// reference a known product id and carry a non-negative suggested level.
func (p *RestockProposal) Validate(catalog []Product) error {
	if len(p.Items) == 0 {
		return errors.New("restock proposal must contain at least one item")
	}
	known := make(map[string]bool, len(catalog))
	for _, prod := range catalog {
		known[prod.ID] = true
	}
	for _, it := range p.Items {
		if it.ProductID == "" || !known[it.ProductID] {
			return fmt.Errorf("restock item references unknown product %q", it.ProductID)
		}
		if it.SuggestedStock < 0 {
			return fmt.Errorf("suggested stock for product %s must be >= 0, got %d", it.ProductID, it.SuggestedStock)
		}
	}
	return nil
}
