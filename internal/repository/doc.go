// Package repository contains data access implementations for evalpipe.
//
// Repositories provide persistence operations for domain entities,
// abstracting the underlying data stores (PostgreSQL, ClickHouse).
//
// # Architecture
//
// Repository interfaces are defined at the pipeline layer (consumer-defined
// interfaces) following Go's dependency inversion best practices.
// This package contains the concrete implementations.
//
// # Data Stores
//
// The system uses multiple specialized data stores:
//   - PostgreSQL: evaluator catalog and audit log
//   - ClickHouse: traces and evaluation records
//   - Redis: task queue backing store
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use.
// Connection pools are managed at the database layer.
package repository
