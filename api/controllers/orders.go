package controllers

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/orderdesk/api/responses"
	"github.com/angelmondragon/orderdesk/api/validators"
	"github.com/angelmondragon/orderdesk/internal/orders"
	"github.com/angelmondragon/orderdesk/pkg/db/models"
	"github.com/angelmondragon/orderdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/pagination"
)

const maxAdvanceBody = 4 << 10

// OrderList returns every order by delivery time, or only one client's when client_id is set.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		clientID, err := validators.ParseQueryUUID(r, "client_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var list []models.Order
		if clientID != nil {
			list, err = svc.ListByClient(r.Context(), *clientID)
		} else {
			list, err = svc.List(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderSubmit turns a client's cart into one order per line, all or nothing.
func OrderSubmit(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload orders.SubmitInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithClientID(ctx, payload.ClientID.String())
		}
		created, err := svc.Submit(ctx, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type advanceRequest struct {
	ExpectedStatus string `json:"expected_status"`
}

// OrderAdvance moves an order one step. The body is optional; every outcome,
// no-ops included, is reported with 200.
func OrderAdvance(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.AdvanceInput{OrderID: id}
		var payload advanceRequest
		present, err := decodeOptionalJSON(r, &payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if present && strings.TrimSpace(payload.ExpectedStatus) != "" {
			status, parseErr := enums.ParseOrderStatus(payload.ExpectedStatus)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid expected_status").
					WithDetails(map[string]string{"expected_status": payload.ExpectedStatus}))
				return
			}
			input.ExpectedStatus = status
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, id.String())
		}
		responses.WriteSuccess(w, svc.Advance(ctx, input))
	}
}

// OrderRollup pages the per product rollup. sort is one of name, quantity,
// weight, weight_total or status; order=desc flips it.
func OrderRollup(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q := r.URL.Query()
		desc, err := parseSortOrder(q.Get("order"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := orders.RollupQuery{
			SortField: q.Get("sort"),
			Desc:      desc,
			Page:      pagination.Params{Limit: limit, Cursor: q.Get("cursor")},
		}
		if productID != nil {
			query.ProductID = *productID
		}
		page, err := svc.ProductRollup(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ClientSummaryList rolls orders up per client.
func ClientSummaryList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		rows, err := svc.ClientRollup(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func parseSortOrder(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "asc":
		return false, nil
	case "desc":
		return true, nil
	default:
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order must be asc or desc").
			WithDetails(map[string]string{"order": raw})
	}
}

// decodeOptionalJSON decodes the body into dest unless it is empty.
func decodeOptionalJSON(r *http.Request, dest any) (bool, error) {
	if r.Body == nil {
		return false, nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxAdvanceBody))
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return false, nil
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err := validators.DecodeJSONBody(r, dest); err != nil {
		return false, err
	}
	return true, nil
}
