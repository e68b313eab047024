// Package services implements the reconciliation engine: change
// classification, embedding batching, index writing and the run
// coordinator. Services depend only on domain types and driven ports.
package services
