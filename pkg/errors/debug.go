package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-side view of an error. It is never sent to clients.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`
	Retryable  bool   `json:"retryable"`

	// OrderID and ProductID are lifted from the details of the outermost
	// typed error that carries them.
	OrderID   string `json:"order_id,omitempty"`
	ProductID string `json:"product_id,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
}

// StockConstraintViolated reports whether the database rejected a write on
// the products stock check. It only fires when a stock write bypassed the
// conditional update.
func (d ErrorDump) StockConstraintViolated() bool {
	return d.PGCode == "23514" && d.PGTable == "products"
}

// Dump walks err for logging: the typed code, the wrap chain, order and
// product ids, and the postgres error fields from either driver.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Retryable = MetadataFor(te.Code()).Retryable
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
		if te, ok := e.(*Error); ok {
			d.liftIDs(te.Details())
		}
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGDetail = pgxErr.Detail
	case errors.As(err, &pqErr):
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGDetail = pqErr.Detail
	}
	return d
}

func (d *ErrorDump) liftIDs(details any) {
	m, ok := details.(map[string]any)
	if !ok {
		return
	}
	if d.OrderID == "" {
		if v, ok := m["order_id"]; ok {
			d.OrderID = fmt.Sprint(v)
		}
	}
	if d.ProductID == "" {
		if v, ok := m["product_id"]; ok {
			d.ProductID = fmt.Sprint(v)
		}
	}
}
