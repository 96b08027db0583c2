package aetherfy

import (
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/schema"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrAuthentication     = domain.ErrAuthentication
	ErrRateLimited        = domain.ErrRateLimited
	ErrServiceUnavailable = domain.ErrServiceUnavailable
	ErrValidation         = domain.ErrValidation
	ErrNotFound           = domain.ErrNotFound
	ErrTimeout            = domain.ErrTimeout
	ErrNetwork            = domain.ErrNetwork
	ErrServer             = domain.ErrServer
	ErrSchemaValidation   = domain.ErrSchemaValidation
	ErrSchemaNotFound     = domain.ErrSchemaNotFound
	ErrVectorDimMismatch  = domain.ErrVectorDimMismatch

	// ErrPreconditionFailed and ErrSchemaChanged also match ErrValidation.
	// ErrSchemaChanged additionally matches ErrPreconditionFailed.
	ErrPreconditionFailed = domain.ErrPreconditionFailed
	ErrSchemaChanged      = domain.ErrSchemaChanged

	ErrEmbedding              = domain.ErrEmbedding
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrEmbedderNotConfigured  = domain.ErrEmbedderNotConfigured
)

// Typed errors. Use errors.As() to inspect them.
type (
	// APIError is an error response from the service.
	APIError = domain.APIError
	// DimensionMismatchError reports a point whose vector length differs
	// from the collection dimensionality.
	DimensionMismatchError = domain.DimensionMismatchError
	// SchemaValidationError lists every point rejected by a strict payload schema.
	SchemaValidationError = schema.SchemaValidationError
	// RecordErrors are the violations of one point.
	RecordErrors = schema.RecordErrors
	// ValidationError is one payload schema violation.
	ValidationError = schema.ValidationError
)
