// Package storage persists the world's tables to a single bbolt file.
// See table.go for the generic Table[T] wrapper every table in pkg/world
// is opened as.
package storage
