// Package domain contains the core business entities and types for evalpipe.
//
// This package defines:
//   - Entity types (Trace, Evaluator, Evaluation, AuditEntry)
//   - Value objects and enums
//   - Domain-level validation rules
//
// # Design Philosophy
//
// Domain types are persistence-agnostic and represent the core
// business concepts independent of how they are stored or transmitted.
//
// # Key Entities
//
//   - Trace: one captured LLM interaction, read-only input to a batch run
//   - Evaluator: a configured scoring job (template reference + execution policy)
//   - Evaluation: the persisted result of one evaluator against one trace
//   - AuditEntry: one summary record per evaluator per batch run
package domain
