package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/orderdesk/internal/clients"
	"github.com/angelmondragon/orderdesk/internal/orders"
	"github.com/angelmondragon/orderdesk/internal/transfer"
	"github.com/angelmondragon/orderdesk/pkg/db/models"
	"github.com/angelmondragon/orderdesk/pkg/pagination"
)

var errNotImplemented = errors.New("not implemented")

type stubClients struct {
	created  []clients.CreateClientInput
	deleted  []uuid.UUID
	createFn func(clients.CreateClientInput) (*models.Client, error)
}

func (s *stubClients) Create(_ context.Context, input clients.CreateClientInput) (*models.Client, error) {
	s.created = append(s.created, input)
	if s.createFn != nil {
		return s.createFn(input)
	}
	return &models.Client{ID: uuid.New(), Name: input.Name, Contact: input.Contact}, nil
}

func (s *stubClients) CreateBatch(context.Context, []clients.CreateClientInput) ([]models.Client, error) {
	return nil, errNotImplemented
}

func (s *stubClients) Get(context.Context, uuid.UUID) (*models.Client, error) {
	return nil, errNotImplemented
}

func (s *stubClients) List(context.Context) ([]models.Client, error) {
	return []models.Client{}, nil
}

func (s *stubClients) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubClients) Suggest(_ context.Context, query, _ string) (*clients.SuggestResult, error) {
	return &clients.SuggestResult{}, nil
}

type stubOrders struct {
	advanced     []orders.AdvanceInput
	rollupQuery  orders.RollupQuery
	listByClient uuid.UUID
	submitted    []orders.SubmitInput
}

func (s *stubOrders) Submit(_ context.Context, input orders.SubmitInput) ([]models.Order, error) {
	s.submitted = append(s.submitted, input)
	return []models.Order{{ID: uuid.New(), ClientID: input.ClientID}}, nil
}

func (s *stubOrders) Import(context.Context, []orders.ImportRow) ([]models.Order, error) {
	return nil, errNotImplemented
}

func (s *stubOrders) Get(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, errNotImplemented
}

func (s *stubOrders) List(context.Context) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (s *stubOrders) ListByClient(_ context.Context, clientID uuid.UUID) ([]models.Order, error) {
	s.listByClient = clientID
	return []models.Order{}, nil
}

func (s *stubOrders) ProductRollup(_ context.Context, query orders.RollupQuery) (pagination.Page[orders.ProductCount], error) {
	s.rollupQuery = query
	return pagination.Page[orders.ProductCount]{Items: []orders.ProductCount{}}, nil
}

func (s *stubOrders) ClientRollup(context.Context) ([]orders.ClientSummary, error) {
	return []orders.ClientSummary{}, nil
}

func (s *stubOrders) Advance(_ context.Context, input orders.AdvanceInput) orders.AdvanceResult {
	s.advanced = append(s.advanced, input)
	return orders.AdvanceResult{OrderID: input.OrderID, Outcome: orders.OutcomeNoOp, Reason: orders.ReasonNotFound}
}

type stubTransfer struct {
	imported   string
	importKind transfer.Kind
	restored   string
}

func (s *stubTransfer) Export(_ context.Context, kind transfer.Kind, w io.Writer) (int, error) {
	_, err := io.WriteString(w, "id,name\n1,Ann\n")
	return 1, err
}

func (s *stubTransfer) Import(_ context.Context, kind transfer.Kind, r io.Reader) (transfer.ImportResult, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return transfer.ImportResult{}, err
	}
	s.imported = string(body)
	s.importKind = kind
	return transfer.ImportResult{Kind: kind, Rows: strings.Count(string(body), "\n") - 1}, nil
}

func (s *stubTransfer) Backup(_ context.Context, kind transfer.Kind) (transfer.BackupResult, error) {
	return transfer.BackupResult{Kind: kind, Key: "exports/" + kind.String() + "/x.csv"}, nil
}

func (s *stubTransfer) Restore(_ context.Context, kind transfer.Kind, key string) (transfer.ImportResult, error) {
	s.restored = key
	return transfer.ImportResult{Kind: kind}, nil
}

// withURLParams attaches chi route params the way the router would.
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}
