// Package models holds the GORM persistence models of the ledger and their
// mapping to domain types. Money columns are numeric(18,2); quantities are
// integers.
package models
