// Package domain contains the core entities of the reconciliation
// engine: documents, fingerprints, change sets, run configuration and
// run reports. It has no dependencies on adapters or services.
package domain
