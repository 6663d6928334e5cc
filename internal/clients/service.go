package clients

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/orderdesk/internal/suggest"
	"github.com/angelmondragon/orderdesk/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/google/uuid"
)

// Service covers client registration, lookup and name suggestions.
type Service interface {
	Create(ctx context.Context, input CreateClientInput) (*models.Client, error)
	CreateBatch(ctx context.Context, inputs []CreateClientInput) ([]models.Client, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Client, error)
	List(ctx context.Context) ([]models.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Suggest(ctx context.Context, query, resolvedID string) (*SuggestResult, error)
}

type service struct {
	repo    Repository
	suggest suggest.Options
}

func NewService(repo Repository, opts suggest.Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("clients repository required")
	}
	return &service{repo: repo, suggest: opts}, nil
}

func (s *service) Create(ctx context.Context, input CreateClientInput) (*models.Client, error) {
	client, err := normalize(input)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, client.Name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check client name")
	}
	if exists {
		return nil, duplicateName(client.Name)
	}

	if err := s.repo.Create(ctx, &client); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create client")
	}
	return &client, nil
}

// CreateBatch validates every input, including duplicates inside the batch,
// before writing them all in one atomic batch. Inputs carrying an id that is
// already stored are skipped and left out of the result.
func (s *service) CreateBatch(ctx context.Context, inputs []CreateClientInput) ([]models.Client, error) {
	if len(inputs) == 0 {
		return []models.Client{}, nil
	}
	seen := make(map[string]int, len(inputs))
	seenIDs := make(map[uuid.UUID]int, len(inputs))
	out := make([]models.Client, 0, len(inputs))
	for i, input := range inputs {
		if input.ID != uuid.Nil {
			if prev, ok := seenIDs[input.ID]; ok {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "duplicate client id in batch").
					WithDetails(map[string]any{"id": input.ID.String(), "row": i, "first_row": prev})
			}
			seenIDs[input.ID] = i
			stored, err := s.stored(ctx, input.ID)
			if err != nil {
				return nil, err
			}
			if stored {
				continue
			}
		}

		client, err := normalize(input)
		if err != nil {
			return nil, pkgerrors.AddDetail(err, "row", i)
		}
		if prev, ok := seen[client.Name]; ok {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "duplicate client name in batch").
				WithDetails(map[string]any{"name": client.Name, "row": i, "first_row": prev})
		}
		seen[client.Name] = i

		exists, err := s.repo.ExistsByName(ctx, client.Name)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check client name")
		}
		if exists {
			return nil, pkgerrors.AddDetail(duplicateName(client.Name), "row", i)
		}
		out = append(out, client)
	}
	if len(out) == 0 {
		return out, nil
	}

	if err := s.repo.CreateBatch(ctx, out); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create client batch")
	}
	return out, nil
}

func (s *service) stored(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.repo.FindByID(ctx, id)
	if err == nil {
		return true, nil
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return false, nil
	}
	return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check client id")
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client")
	}
	return client, nil
}

func (s *service) List(ctx context.Context) ([]models.Client, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clients")
	}
	if list == nil {
		list = []models.Client{}
	}
	return list, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete client")
	}
	if !deleted {
		return notFound()
	}
	return nil
}

func (s *service) Suggest(ctx context.Context, query, resolvedID string) (*SuggestResult, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	pool := candidates(list)
	if hit, ok := suggest.Resolve(query, resolvedID, pool); ok {
		return &SuggestResult{Resolved: &hit, Matches: []suggest.Match{}}, nil
	}
	return &SuggestResult{Matches: s.suggest.Suggest(query, pool)}, nil
}

func normalize(input CreateClientInput) (models.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Client{}, pkgerrors.New(pkgerrors.CodeValidation, "client name is required").
			WithDetails(map[string]string{"name": "is required"})
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return models.Client{}, pkgerrors.New(pkgerrors.CodeValidation, "client name too long").
			WithDetails(map[string]string{"name": fmt.Sprintf("must be at most %d", maxNameLength)})
	}
	contact := strings.TrimSpace(input.Contact)
	if utf8.RuneCountInString(contact) > maxContactLength {
		return models.Client{}, pkgerrors.New(pkgerrors.CodeValidation, "client contact too long").
			WithDetails(map[string]string{"contact": fmt.Sprintf("must be at most %d", maxContactLength)})
	}
	id := input.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return models.Client{ID: id, Name: name, Contact: contact}, nil
}

func duplicateName(name string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "client name already exists").
		WithDetails(map[string]any{"name": name})
}
