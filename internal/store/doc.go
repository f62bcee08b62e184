// Package store provides the durable compilation ledger: every compile
// request and its outcome (payload or aggregated violations) is recorded in
// SQLite, content-addressed by canonical JSON, so operators can audit what
// an integration block was asked to do and what the engine decided.
//
// The ledger is write-behind with respect to compilation: recording happens
// after the engine has produced its result and never influences it.
package store
