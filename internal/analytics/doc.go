// Package analytics turns a snapshot of transactions into monthly aggregates,
// a next-month expense forecast and budgeting recommendations.
//
// Every function in this package is a pure computation over its arguments:
// nothing is cached, persisted or shared between calls, and input slices are
// never modified. Callers may run analyses concurrently.
package analytics
