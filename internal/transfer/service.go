// Package transfer moves clients, products and orders in and out as CSV,
// locally or through the export bucket.
package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/angelmondragon/orderdesk/internal/clients"
	"github.com/angelmondragon/orderdesk/internal/orders"
	"github.com/angelmondragon/orderdesk/internal/products"
	"github.com/angelmondragon/orderdesk/internal/suggest"
	"github.com/angelmondragon/orderdesk/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/storage/s3"
	"go.uber.org/multierr"
)

const csvContentType = "text/csv"

type clientStore interface {
	List(ctx context.Context) ([]models.Client, error)
	CreateBatch(ctx context.Context, inputs []clients.CreateClientInput) ([]models.Client, error)
}

type productStore interface {
	List(ctx context.Context) ([]models.Product, error)
	CreateBatch(ctx context.Context, inputs []products.CreateProductInput) ([]models.Product, error)
}

type orderStore interface {
	List(ctx context.Context) ([]models.Order, error)
	Import(ctx context.Context, rows []orders.ImportRow) ([]models.Order, error)
}

// BlobStore is the object storage used for backups.
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// ServiceParams wires the transfer service. Blob is optional; without it only
// local export and import work.
type ServiceParams struct {
	Clients  clientStore
	Products productStore
	Orders   orderStore
	Blob     BlobStore
	Location *time.Location
	Logger   *logger.Logger
	Now      func() time.Time
}

type Service struct {
	clients  clientStore
	products productStore
	orders   orderStore
	blob     BlobStore
	loc      *time.Location
	logg     *logger.Logger
	now      func() time.Time
}

// ImportResult reports how many records an import wrote. Rows whose id is
// already stored are skipped, so restoring the same export twice is a no-op.
type ImportResult struct {
	Kind    Kind `json:"kind"`
	Rows    int  `json:"rows"`
	Skipped int  `json:"skipped"`
}

// BackupResult reports one uploaded export.
type BackupResult struct {
	Kind Kind   `json:"kind"`
	Key  string `json:"key"`
	Rows int    `json:"rows"`
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Clients == nil || params.Products == nil || params.Orders == nil {
		return nil, fmt.Errorf("clients, products and orders stores are required")
	}
	svc := &Service{
		clients:  params.Clients,
		products: params.Products,
		orders:   params.Orders,
		blob:     params.Blob,
		loc:      params.Location,
		logg:     params.Logger,
		now:      params.Now,
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// Import parses a CSV of kind. Every row is checked before anything is
// written; any failure rejects the whole file.
func (s *Service) Import(ctx context.Context, kind Kind, r io.Reader) (ImportResult, error) {
	t, err := readTable(kind, r)
	if err != nil {
		return ImportResult{}, err
	}
	res := ImportResult{Kind: kind}

	switch kind {
	case KindClients:
		inputs, err := parseClients(t)
		if err != nil {
			return res, err
		}
		created, err := s.clients.CreateBatch(ctx, inputs)
		if err != nil {
			return res, err
		}
		res.Rows, res.Skipped = len(created), len(inputs)-len(created)
	case KindProducts:
		inputs, err := parseProducts(t)
		if err != nil {
			return res, err
		}
		created, err := s.products.CreateBatch(ctx, inputs)
		if err != nil {
			return res, err
		}
		res.Rows, res.Skipped = len(created), len(inputs)-len(created)
	case KindOrders:
		clientPool, productPool, err := s.namePools(ctx)
		if err != nil {
			return res, err
		}
		rows, err := parseOrders(t, s.loc, clientPool, productPool)
		if err != nil {
			return res, err
		}
		created, err := s.orders.Import(ctx, rows)
		if err != nil {
			return res, err
		}
		res.Rows, res.Skipped = len(created), len(rows)-len(created)
	default:
		return res, unknownKind(kind)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"kind": string(kind), "rows": res.Rows, "skipped": res.Skipped}), "transfer.imported")
	return res, nil
}

func (s *Service) namePools(ctx context.Context) ([]suggest.Candidate, []suggest.Candidate, error) {
	clientList, err := s.clients.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	productList, err := s.products.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	clientPool := make([]suggest.Candidate, 0, len(clientList))
	for _, c := range clientList {
		clientPool = append(clientPool, suggest.Candidate{ID: c.ID.String(), Name: c.Name})
	}
	productPool := make([]suggest.Candidate, 0, len(productList))
	for _, p := range productList {
		productPool = append(productPool, suggest.Candidate{ID: p.ID.String(), Name: p.Name})
	}
	return clientPool, productPool, nil
}

// Backup exports kind and uploads it under a timestamped key.
func (s *Service) Backup(ctx context.Context, kind Kind) (BackupResult, error) {
	if s.blob == nil {
		return BackupResult{}, pkgerrors.New(pkgerrors.CodeDependency, "blob storage not configured")
	}
	var buf bytes.Buffer
	rows, err := s.Export(ctx, kind, &buf)
	if err != nil {
		return BackupResult{}, err
	}
	key := s3.ExportKey(string(kind), s.now())
	if err := s.blob.Put(ctx, key, buf.Bytes(), csvContentType); err != nil {
		return BackupResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload export")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"kind": string(kind), "key": key, "rows": rows}), "transfer.backup_uploaded")
	return BackupResult{Kind: kind, Key: key, Rows: rows}, nil
}

// BackupAll uploads every kind, continuing past failures.
func (s *Service) BackupAll(ctx context.Context) ([]BackupResult, error) {
	var errs error
	results := make([]BackupResult, 0, len(Kinds))
	for _, kind := range Kinds {
		res, err := s.Backup(ctx, kind)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", kind, err))
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// Restore imports a previously uploaded export.
func (s *Service) Restore(ctx context.Context, kind Kind, key string) (ImportResult, error) {
	if s.blob == nil {
		return ImportResult{}, pkgerrors.New(pkgerrors.CodeDependency, "blob storage not configured")
	}
	body, err := s.blob.Get(ctx, key)
	if err != nil {
		return ImportResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "download export")
	}
	return s.Import(ctx, kind, bytes.NewReader(body))
}

func unknownKind(kind Kind) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "unknown transfer kind").
		WithDetails(map[string]string{"kind": string(kind)})
}
