// Package errors provides application error types for evalpipe.
//
// This package defines:
//   - AppError type with error classification
//   - Error constructors for common error types
//   - Error type checking helpers
//
// # Error Types
//
//   - CatalogUnavailable: the evaluator catalog query failed (fatal to a batch run)
//   - StoreUnavailable: the evaluation store could not be consulted (unit skipped)
//   - TemplateUnresolved: an evaluator references an unknown scoring capability
//   - NotFound: a point lookup returned no record (a normal negative result)
//   - Validation: invalid evaluator configuration
//   - Internal: unexpected error
//
// # Usage
//
// Create errors using constructor functions:
//
//	return apperrors.CatalogUnavailable(err)
//	return apperrors.NotFound("evaluation")
//
// Check error types:
//
//	if apperrors.IsNotFound(err) {
//	    // Handle not found
//	}
//
// # Error Wrapping
//
// Errors support wrapping with fmt.Errorf:
//
//	return fmt.Errorf("idempotency check failed: %w", apperrors.StoreUnavailable(err))
package errors
