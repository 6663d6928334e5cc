package controllers

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/orderdesk/api/responses"
	"github.com/angelmondragon/orderdesk/api/validators"
	"github.com/angelmondragon/orderdesk/internal/transfer"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
)

const (
	maxImportBytes = 10 << 20
	uploadField    = "file"
)

// TransferService is the bulk CSV surface used by the transfer handlers.
type TransferService interface {
	Export(ctx context.Context, kind transfer.Kind, w io.Writer) (int, error)
	Import(ctx context.Context, kind transfer.Kind, r io.Reader) (transfer.ImportResult, error)
	Backup(ctx context.Context, kind transfer.Kind) (transfer.BackupResult, error)
	Restore(ctx context.Context, kind transfer.Kind, key string) (transfer.ImportResult, error)
}

func kindParam(r *http.Request) (transfer.Kind, error) {
	kind, err := transfer.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown transfer kind").
			WithDetails(map[string]string{"kind": chi.URLParam(r, "kind")})
	}
	return kind, nil
}

// TransferExport downloads every record of a kind as CSV.
func TransferExport(svc TransferService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfer service unavailable"))
			return
		}
		kind, err := kindParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var buf bytes.Buffer
		if _, err := svc.Export(r.Context(), kind, &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCSV(w, kind.String()+".csv", buf.Bytes())
	}
}

// TransferImport accepts a CSV either as the raw body or as the "file" part of
// a multipart form. Nothing is written unless every row is valid.
func TransferImport(svc TransferService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfer service unavailable"))
			return
		}
		kind, err := kindParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

		body, closeFn, err := uploadReader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeFn()

		result, err := svc.Import(r.Context(), kind, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// TransferBackup uploads a fresh export of the kind to blob storage.
func TransferBackup(svc TransferService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfer service unavailable"))
			return
		}
		kind, err := kindParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Backup(r.Context(), kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type restoreRequest struct {
	Key string `json:"key" validate:"required,max=512"`
}

// TransferRestore imports a previously uploaded export by object key.
func TransferRestore(svc TransferService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfer service unavailable"))
			return
		}
		kind, err := kindParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload restoreRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		key := strings.TrimSpace(payload.Key)
		if !strings.HasPrefix(key, "exports/"+kind.String()+"/") {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "key does not belong to this kind").
				WithDetails(map[string]string{"key": key, "kind": kind.String()}))
			return
		}
		result, err := svc.Restore(r.Context(), kind, key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func uploadReader(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart upload")
	}
	file, _, err := r.FormFile(uploadField)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "missing file").
			WithDetails(map[string]string{"field": uploadField})
	}
	return file, func() { _ = file.Close() }, nil
}
