// Package repository provides repository interfaces and GORM implementations
// for the annotation schema.
//
// Every repository holds a *gorm.DB. Set bundles one of each so a caller can
// bind the whole group to a transaction handle with NewSet(tx); queries then
// run inside that transaction.
//
// Lookups that find nothing return the sentinel errors in errors.go rather
// than gorm.ErrRecordNotFound.
package repository
