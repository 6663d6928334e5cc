package clients

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/orderdesk/internal/suggest"
	"github.com/angelmondragon/orderdesk/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	clients   []models.Client
	createErr error
	batchErr  error
	listErr   error
	created   int
	batches   int
}

func (s *stubRepo) Create(ctx context.Context, client *models.Client) error {
	s.created++
	if s.createErr != nil {
		return s.createErr
	}
	s.clients = append(s.clients, *client)
	return nil
}

func (s *stubRepo) CreateBatch(ctx context.Context, clients []models.Client) error {
	s.batches++
	if s.batchErr != nil {
		return s.batchErr
	}
	s.clients = append(s.clients, clients...)
	return nil
}

func (s *stubRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	for _, c := range s.clients {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	for _, c := range s.clients {
		if c.ID == id {
			found := c
			return &found, nil
		}
	}
	return nil, notFound()
}

func (s *stubRepo) List(ctx context.Context) ([]models.Client, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]models.Client(nil), s.clients...), nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	for i, c := range s.clients {
		if c.ID == id {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newTestService(t *testing.T, repo *stubRepo) Service {
	t.Helper()
	svc, err := NewService(repo, suggest.DefaultOptions())
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(nil, suggest.DefaultOptions())
	require.Error(t, err)
}

func TestCreateTrimsAndPersists(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	client, err := svc.Create(context.Background(), CreateClientInput{Name: "  Ann  ", Contact: " 555 "})
	require.NoError(t, err)
	assert.Equal(t, "Ann", client.Name)
	assert.Equal(t, "555", client.Contact)
	assert.NotEqual(t, uuid.Nil, client.ID)
	assert.Equal(t, 1, repo.created)
}

func TestCreateRejectsBlankName(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateClientInput{Name: "   "})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, repo.created, "no write on validation failure")
}

func TestCreateRejectsExistingName(t *testing.T) {
	repo := &stubRepo{clients: []models.Client{{ID: uuid.New(), Name: "Ann"}}}
	svc := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateClientInput{Name: "Ann "})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Zero(t, repo.created)
}

func TestCreateWrapsBackendFailure(t *testing.T) {
	repo := &stubRepo{createErr: errors.New("connection reset")}
	svc := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateClientInput{Name: "Ann"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestCreateBatchRejectsDuplicatesWithinBatch(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	_, err := svc.CreateBatch(context.Background(), []CreateClientInput{{Name: "Ann"}, {Name: " Ann"}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Zero(t, repo.batches)
}

func TestCreateBatchReportsRowOnValidationFailure(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	_, err := svc.CreateBatch(context.Background(), []CreateClientInput{{Name: "Ann"}, {Name: ""}})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, details["row"])
	assert.Zero(t, repo.batches)
}

func TestCreateBatchWritesOnce(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	out, err := svc.CreateBatch(context.Background(), []CreateClientInput{{Name: "Ann"}, {Name: "Bob"}})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 1, repo.batches)
	assert.Len(t, repo.clients, 2)
}

func TestCreateBatchKeepsSuppliedIDsAndSkipsStoredOnes(t *testing.T) {
	stored := models.Client{ID: uuid.New(), Name: "Ann"}
	repo := &stubRepo{clients: []models.Client{stored}}
	svc := newTestService(t, repo)
	fresh := uuid.New()

	out, err := svc.CreateBatch(context.Background(), []CreateClientInput{
		{ID: stored.ID, Name: "Ann"},
		{ID: fresh, Name: "Bob"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, fresh, out[0].ID)
	assert.Len(t, repo.clients, 2)

	out, err = svc.CreateBatch(context.Background(), []CreateClientInput{{ID: stored.ID, Name: "Ann"}})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, repo.batches, "nothing to write when every id is stored")

	_, err = svc.CreateBatch(context.Background(), []CreateClientInput{{ID: fresh, Name: "Cleo"}, {ID: fresh, Name: "Dan"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestGetAndDelete(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{clients: []models.Client{{ID: id, Name: "Ann"}}}
	svc := newTestService(t, repo)
	ctx := context.Background()

	client, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ann", client.Name)

	require.NoError(t, svc.Delete(ctx, id))

	err = svc.Delete(ctx, id)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Get(ctx, id)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Get(ctx, uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListNeverNil(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestSuggest(t *testing.T) {
	john := models.Client{ID: uuid.New(), Name: "John"}
	repo := &stubRepo{clients: []models.Client{
		john,
		{ID: uuid.New(), Name: "Jonas"},
		{ID: uuid.New(), Name: "Mary"},
	}}
	svc := newTestService(t, repo)
	ctx := context.Background()

	res, err := svc.Suggest(ctx, "jon", "")
	require.NoError(t, err)
	assert.Nil(t, res.Resolved)
	names := make([]string, 0, len(res.Matches))
	for _, m := range res.Matches {
		names = append(names, m.Item.Name)
	}
	assert.Contains(t, names, "John")
	assert.Contains(t, names, "Jonas")
	assert.NotContains(t, names, "Mary")

	res, err = svc.Suggest(ctx, "John", john.ID.String())
	require.NoError(t, err)
	require.NotNil(t, res.Resolved)
	assert.Equal(t, john.ID.String(), res.Resolved.ID)
	assert.Empty(t, res.Matches)
}

func TestSuggestListFailure(t *testing.T) {
	svc := newTestService(t, &stubRepo{listErr: errors.New("down")})
	_, err := svc.Suggest(context.Background(), "jo", "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
