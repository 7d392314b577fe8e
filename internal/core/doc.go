// Package core provides the business logic for turning an uploaded CSV into an
// isolated, queryable database instance.
//
// This package contains all domain logic independent of any transport layer.
// It can be used by web handlers, the CLI, or tests without modification. The
// database engines themselves live behind the [Backend] interface so the
// pipeline is identical for the embedded and the container-provisioned engine.
//
// # Import Pipeline
//
// An import is a strictly sequential chain for one dataset:
//
//  1. [ParseCSV] reads the header and records, normalizing column names
//  2. [InferSchema] classifies each column from the first [SampleSize] rows
//  3. [Provisioner.Provision] launches the dataset's instance
//  4. [Waiter.Wait] polls the instance until it accepts connections
//  5. [Loader.Load] recreates the data table and inserts every row
//  6. [Registry.Put] makes the dataset visible to listing and queries
//
// A failure at any step aborts the remaining steps and the dataset is never
// registered.
//
// # Type Inference
//
// Inference is a pure function over the sampled values. Empty values are
// ignored; a single non-conforming value demotes the whole column:
//
//	INTEGER ⊂ BIGINT ⊂ REAL ⊂ TEXT
//
// # Error Handling
//
// Every pipeline stage returns an [*Error] carrying one of the sentinel kinds
// ([ErrValidation], [ErrProvisioning], [ErrConnectionTimeout], [ErrLoad],
// [ErrQuery], [ErrNotFound]). Use errors.Is to classify, and [MapError] to get
// a user-facing message with a support code:
//
//   - VAL001: Validation errors (empty CSV, bad headers)
//   - PRV001-PRV002: Provisioning errors (launch failure, port conflict)
//   - CON001: Connection timeout while waiting for readiness
//   - LOD001: Load errors (parse or insert failure)
//   - QRY001: Query errors (engine message passed through)
//   - NF001: Unknown dataset
//   - UPL002: Too many concurrent imports
package core
