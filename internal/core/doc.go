// Package core provides the business logic for the ground-truth conversion
// pipeline.
//
// This package is the heart of the converter, containing all domain logic
// independent of any CLI or transport layer. It can be used by commands,
// schedulers, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Parsing: A row-by-row state machine ([Parse]) reconstructs document
//     records from the hierarchical clinical export.
//   - Encoding: [EncodeFlat] renders records as the canonical flat CSV with
//     JSON-array cells; [DecodeFlat] reads it back.
//   - Validation: [Validate] decodes the freshly encoded artifact and diffs
//     it field by field against the parsed records. Any discrepancy blocks
//     persistence.
//   - Service: The main entry point for all operations (convert, publish,
//     run tracking, history).
//
// # The Publish Gate
//
// Nothing durable happens before validation passes. The flow is:
//
//  1. [Service.Convert] reads and parses the hierarchical export
//  2. Records are flat-encoded and round-trip validated
//  3. On success the versioned artifacts and the LATEST pointer are written
//  4. [Service.Publish] additionally uploads both objects, verifies them
//     remotely, and restarts the consuming deployments
//
// A validation failure produces a blocked result carrying every issue found;
// the output directory and the bucket are left exactly as they were.
//
// # Error Handling
//
// Technical errors are mapped to operator-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - INP001-INP002: Input errors (unreadable file, zero documents)
//   - VAL001: Round-trip validation discrepancies
//   - PUB001-PUB004: Publish errors (upload, remote verification)
//   - DEP001-DEP002: Deployment restart errors
//   - RUN001-RUN002: Run lifecycle errors (cancelled, timed out)
//
// # Run History
//
// Every convert and publish run is appended to a local SQLite ledger
// ([HistoryStore]) with its outcome, document count, and artifact digest, so
// operators can answer "what was published, when, and did it validate" long
// after the terminal scrollback is gone.
package core
