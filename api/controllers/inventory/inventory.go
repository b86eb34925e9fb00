package inventory

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Yuriltlef/ApexFlow-sub001/api/responses"
	"github.com/Yuriltlef/ApexFlow-sub001/api/validators"
	internalinventory "github.com/Yuriltlef/ApexFlow-sub001/internal/inventory"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/products"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
)

type createProductRequest struct {
	Name         string          `json:"name" validate:"required,max=255"`
	Category     string          `json:"category" validate:"omitempty,max=64"`
	Price        decimal.Decimal `json:"price" validate:"money"`
	InitialStock int             `json:"initial_stock" validate:"gte=0"`
	ImageURL     *string         `json:"image_url" validate:"omitempty,url,max=512"`
}

type updateProductRequest struct {
	Name     *string          `json:"name" validate:"omitempty,max=255"`
	Category *string          `json:"category" validate:"omitempty,max=64"`
	Price    *decimal.Decimal `json:"price" validate:"omitempty,money"`
	ImageURL *string          `json:"image_url" validate:"omitempty,url,max=512"`
}

type restockRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type adjustRequest struct {
	NewStock *int   `json:"new_stock" validate:"required,gte=0"`
	Reason   string `json:"reason" validate:"required,max=255"`
}

// CreateProduct adds a catalog entry. A positive initial stock is recorded as
// a purchase-in ledger entry.
func CreateProduct(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), internalinventory.CreateProductInput{
			Name:         validators.SanitizeString(req.Name, 255),
			Category:     validators.SanitizeString(req.Category, 64),
			Price:        req.Price,
			InitialStock: req.InitialStock,
			ImageURL:     validators.SanitizeOptional(req.ImageURL, 512),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "create product"))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(product))
	}
}

// ListProducts pages the catalog, optionally by category and listing status.
func ListProducts(svc internalinventory.Service, defaultPageSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		params, err := validators.ParsePage(r, defaultPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := products.ListFilter{Category: validators.SanitizeString(r.URL.Query().Get("category"), 64)}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := parseProductStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.Status = &status
		}

		page, err := svc.ListProducts(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "list products"))
			return
		}
		responses.WriteSuccess(w, productPage(page))
	}
}

// SearchProducts pages products whose name contains the q parameter.
func SearchProducts(svc internalinventory.Service, defaultPageSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		params, err := validators.ParsePage(r, defaultPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.SearchProducts(r.Context(), validators.SanitizeString(r.URL.Query().Get("q"), 255), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "search products"))
			return
		}
		responses.WriteSuccess(w, productPage(page))
	}
}

// UpdateProduct edits name, category, price or image. Stock is not accepted.
func UpdateProduct(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, ok := productIDParam(w, r, svc, logg)
		if !ok {
			return
		}
		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), productID, internalinventory.UpdateProductInput{
			Name:     validators.SanitizeOptional(req.Name, 255),
			Category: req.Category,
			Price:    req.Price,
			ImageURL: validators.SanitizeOptional(req.ImageURL, 512),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "update product"))
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

func parseProductStatus(raw string) (enums.ProductStatus, error) {
	switch strings.ToLower(raw) {
	case "1", "listed":
		return enums.ProductStatusListed, nil
	case "0", "delisted":
		return enums.ProductStatusDelisted, nil
	}
	return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status").WithDetails(map[string]any{"status": raw})
}

func GetProduct(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, ok := productIDParam(w, r, svc, logg)
		if !ok {
			return
		}
		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "load product"))
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// Restock increases stock and returns the purchase-in ledger entry.
func Restock(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, ok := productIDParam(w, r, svc, logg)
		if !ok {
			return
		}
		var req restockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.Restock(r.Context(), productID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "restock product"))
			return
		}
		responses.WriteSuccess(w, newLedgerEntryResponse(entry))
	}
}

// Adjust sets stock to an absolute value after a physical count and returns
// the adjustment entry.
func Adjust(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, ok := productIDParam(w, r, svc, logg)
		if !ok {
			return
		}
		var req adjustRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.Adjust(r.Context(), productID, *req.NewStock, validators.SanitizeString(req.Reason, 255))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "adjust stock"))
			return
		}
		responses.WriteSuccess(w, newLedgerEntryResponse(entry))
	}
}

func Delist(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return setListed(svc, false, logg)
}

func Relist(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return setListed(svc, true, logg)
}

func setListed(svc internalinventory.Service, listed bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, ok := productIDParam(w, r, svc, logg)
		if !ok {
			return
		}
		if err := svc.SetListed(r.Context(), productID, listed); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "update listing"))
			return
		}
		responses.WriteNoContent(w)
	}
}

// ProductLedger pages one product's stock ledger, newest first.
func ProductLedger(svc internalinventory.Service, defaultPageSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, ok := productIDParam(w, r, svc, logg)
		if !ok {
			return
		}
		params, err := validators.ParsePage(r, defaultPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListLedger(r.Context(), productID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "list stock ledger"))
			return
		}
		responses.WriteSuccess(w, ledgerPage(page))
	}
}

// VerifyLedger reports chain gaps where an entry's before-stock does not
// match the previous entry's after-stock.
func VerifyLedger(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, ok := productIDParam(w, r, svc, logg)
		if !ok {
			return
		}
		gaps, err := svc.VerifyLedger(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "verify stock ledger"))
			return
		}
		if gaps == nil {
			gaps = []internalinventory.ChainGap{}
		}
		responses.WriteSuccess(w, map[string]any{
			"product_id": productID,
			"consistent": len(gaps) == 0,
			"gaps":       gaps,
		})
	}
}

// Ledger lists entries across products by order_id or change_type. Exactly
// one of the two is required.
func Ledger(svc internalinventory.Service, defaultPageSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		query := r.URL.Query()
		orderID := validators.SanitizeString(query.Get("order_id"), 50)
		rawType := strings.TrimSpace(query.Get("change_type"))

		switch {
		case orderID != "" && rawType != "":
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "use either order_id or change_type"))
		case orderID != "":
			entries, err := svc.ListLedgerByOrder(r.Context(), orderID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "list order stock ledger"))
				return
			}
			responses.WriteSuccess(w, ledgerList(entries))
		case rawType != "":
			changeType, err := enums.ParseStockChangeType(rawType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid change type"))
				return
			}
			params, err := validators.ParsePage(r, defaultPageSize)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			page, err := svc.ListLedgerByChangeType(r.Context(), changeType, params)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "list stock ledger"))
				return
			}
			responses.WriteSuccess(w, ledgerPage(page))
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order_id or change_type is required"))
		}
	}
}

// LowStock lists listed products below the threshold query parameter,
// or the configured default.
func LowStock(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		threshold, err := validators.ParseQueryInt(r, "threshold", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.LowStock(r.Context(), threshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "list low stock"))
			return
		}
		responses.WriteSuccess(w, productList(rows))
	}
}

func productIDParam(w http.ResponseWriter, r *http.Request, svc internalinventory.Service, logg *logger.Logger) (uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
		return uuid.Nil, false
	}
	productID, err := validators.URLParamUUID(r, "productId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, false
	}
	return productID, true
}
