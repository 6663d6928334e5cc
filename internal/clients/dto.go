package clients

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/orderdesk/internal/suggest"
	"github.com/angelmondragon/orderdesk/pkg/db/models"
)

const (
	maxNameLength    = 120
	maxContactLength = 64
)

// CreateClientInput is the raw form data for a new client. ID is only set by
// bulk imports restoring an earlier export.
type CreateClientInput struct {
	ID      uuid.UUID `json:"-"`
	Name    string    `json:"name" validate:"required,max=120"`
	Contact string    `json:"contact" validate:"max=64"`
}

// SuggestResult carries either a resolved client or ranked name matches.
type SuggestResult struct {
	Resolved *suggest.Candidate `json:"resolved,omitempty"`
	Matches  []suggest.Match    `json:"matches"`
}

func candidates(list []models.Client) []suggest.Candidate {
	out := make([]suggest.Candidate, 0, len(list))
	for _, c := range list {
		out = append(out, suggest.Candidate{ID: c.ID.String(), Name: c.Name})
	}
	return out
}
