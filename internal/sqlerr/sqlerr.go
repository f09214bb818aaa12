// Package sqlerr maps PostgreSQL driver errors onto errs.HTTPError.
//
// Store failures end the request with a 500 that keeps the driver's
// message; the SQLSTATE only picks the machine code (TODO_INVALID,
// TODO_REQUIRED and so on).
package sqlerr
