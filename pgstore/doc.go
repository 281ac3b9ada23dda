// Package pgstore provides PostgreSQL-backed implementations of the
// authcore storage contracts: the user store, the refresh token store, and
// a durable audit sink. All repositories operate over DBTX, which is
// satisfied by both *sql.DB and *sql.Tx.
package pgstore
