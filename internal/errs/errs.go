// Package errs defines the error body every route answers with.
//
// HTTPError carries the status, a machine code, the message shown to the
// tab, optional field errors and an optional action such as a consent
// prompt.
package errs
