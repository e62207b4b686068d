// Package events implements the table-subscription broker: every reducer
// commit publishes one Event per touched table, and clients subscribe by
// table name to receive the resulting insert/update/delete stream.
package events
