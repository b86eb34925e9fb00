package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// IsUniqueViolation reports whether err is a unique constraint violation,
// such as a reused order id or a second shipment for the same order. A
// non-empty constraint narrows the match to that constraint.
func IsUniqueViolation(err error, constraint string) bool {
	return isViolation(err, pgUniqueViolation, constraint, "duplicate key value", "UNIQUE constraint failed")
}

// IsCheckViolation reports whether err is a CHECK constraint violation, such
// as products.stock dropping below zero.
func IsCheckViolation(err error, constraint string) bool {
	return isViolation(err, pgCheckViolation, constraint, "violates check constraint", "CHECK constraint failed")
}

// isViolation prefers the postgres SQLSTATE and falls back to message text,
// which is all the sqlite driver offers.
func isViolation(err error, sqlState, constraint string, markers ...string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlState && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	msg := err.Error()
	if constraint != "" {
		return strings.Contains(msg, constraint)
	}
	for _, m := range markers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
