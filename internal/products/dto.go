package products

import (
	"github.com/angelmondragon/orderdesk/internal/suggest"
	"github.com/angelmondragon/orderdesk/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxNameLength = 120

// CreateProductInput is the raw form data for a new product. ID is only set
// by bulk imports restoring an earlier export.
type CreateProductInput struct {
	ID            uuid.UUID       `json:"-"`
	Name          string          `json:"name" validate:"required,max=120"`
	Price         decimal.Decimal `json:"price"`
	PriceByWeight bool            `json:"price_by_weight"`
}

// SuggestResult carries either a resolved product or ranked name matches.
type SuggestResult struct {
	Resolved *suggest.Candidate `json:"resolved,omitempty"`
	Matches  []suggest.Match    `json:"matches"`
}

func candidates(list []models.Product) []suggest.Candidate {
	out := make([]suggest.Candidate, 0, len(list))
	for _, p := range list {
		out = append(out, suggest.Candidate{ID: p.ID.String(), Name: p.Name})
	}
	return out
}
