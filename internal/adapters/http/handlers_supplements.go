package web

import (
	"net/http"

	"gymdesk/internal/application/listutil"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
	"gymdesk/internal/domain/account"
)

type supplementBody struct {
	Name        *string   `json:"name"`
	Brand       *string   `json:"brand"`
	Category    *string   `json:"category"`
	Description *string   `json:"description"`
	Price       rupees    `json:"price"`
	Stock       *int      `json:"stock"`
	Barcode     *string   `json:"barcode"`
	ExpiryDate  civilDate `json:"expiryDate"`
}

func (b supplementBody) input() orchestrators.SupplementInput {
	return orchestrators.SupplementInput{
		Name:        b.Name,
		Brand:       b.Brand,
		Category:    b.Category,
		Description: b.Description,
		Price:       b.Price.ptr(),
		Stock:       b.Stock,
		Barcode:     b.Barcode,
		ExpiryDate:  b.ExpiryDate.ptr(),
	}
}

// handleSupplements handles GET (catalog) and POST (create) for /api/supplements
func handleSupplements(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case "GET":
		result, err := projections.QuerySupplementList(ctx, projections.SupplementListQuery{
			Params:      listutil.ParseListParams(r.URL.Query(), nil, projections.SupplementListFilterKeys),
			InStockOnly: sess.Role != account.RoleAdmin,
		}, projections.SupplementListDeps{Supplements: stores.SupplementStore})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case "POST":
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		var in supplementBody
		if !decodeBody(w, r, &in) {
			return
		}
		s, err := orchestrators.ExecuteCreateSupplement(ctx, in.input(), supplementDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, projections.NewSupplementView(s))

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleSupplementByID handles PATCH and DELETE for /api/supplements/{id}
func handleSupplementByID(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	ctx := r.Context()
	id := r.PathValue("id")

	switch r.Method {
	case "PATCH":
		var in supplementBody
		if !decodeBody(w, r, &in) {
			return
		}
		s, err := orchestrators.ExecuteUpdateSupplement(ctx, id, in.input(), supplementDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, projections.NewSupplementView(s))

	case "DELETE":
		if err := orchestrators.ExecuteDeleteSupplement(ctx, id, supplementDeps()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleOrders handles GET (list) and POST (place) for /api/orders. Members
// and walk-in users only see and place their own orders.
func handleOrders(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	isAdmin := sess.Role == account.RoleAdmin

	switch r.Method {
	case "GET":
		q := r.URL.Query()
		dates, err := listutil.ParseDateRange(q, "from", "to")
		if err != nil {
			writeError(w, err)
			return
		}
		query := projections.OrderListQuery{
			Params: listutil.ParseListParams(q, nil, projections.OrderListFilterKeys),
			Dates:  dates,
		}
		if !isAdmin {
			query.PlacedBy = sess.AccountID
		}
		result, err := projections.QueryOrderList(ctx, query, projections.OrderListDeps{Orders: stores.OrderStore})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case "POST":
		var input struct {
			MemberID string `json:"memberId"`
			Items    []struct {
				SupplementID string `json:"supplementId"`
				Quantity     int    `json:"quantity"`
			} `json:"items"`
			PaymentMethod string `json:"paymentMethod"`
		}
		if !decodeBody(w, r, &input) {
			return
		}
		order := orchestrators.CreateOrderInput{
			MemberID:      input.MemberID,
			PaymentMethod: input.PaymentMethod,
		}
		for _, it := range input.Items {
			order.Lines = append(order.Lines, orchestrators.OrderLine{SupplementID: it.SupplementID, Quantity: it.Quantity})
		}
		if !isAdmin {
			order.PlacedBy = sess.AccountID
			order.MemberID = ""
			if sess.Role == account.RoleMember {
				if m, err := ownMember(r, sess); err == nil {
					order.MemberID = m.ID
				}
			}
		}
		o, err := orchestrators.ExecuteCreateOrder(ctx, order, orderDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		countEvent("order_created")
		writeJSON(w, http.StatusCreated, projections.NewOrderView(o))

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleOrderCancel handles POST /api/orders/{id}/cancel
func handleOrderCancel(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	o, err := orchestrators.ExecuteCancelOrder(r.Context(), r.PathValue("id"), orderDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.NewOrderView(o))
}
