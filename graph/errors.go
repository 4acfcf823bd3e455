package graph

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kevinaaaquil/bookshelf/service"
)

// Error codes reported in the extensions of GraphQL errors.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeFeatureDisabled = "FEATURE_DISABLED"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

const internalMessage = "internal server error"

// Error is a resolver error with GraphQL extensions. graphql-go copies the
// extensions into the response.
type Error struct {
	Message string
	Code    string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Code}
	if len(e.Fields) > 0 {
		ext["fields"] = e.Fields
	}
	return ext
}

// toGraphQLError maps service errors onto what the caller may see. Anything
// unexpected is logged and replaced by a generic message.
func toGraphQLError(ctx context.Context, logger *slog.Logger, op string, err error) error {
	var ae *service.AuthenticationError
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ae):
		return &Error{Message: ae.Message, Code: CodeUnauthenticated}
	case errors.As(err, &ve):
		return &Error{Message: ve.Message, Code: CodeBadUserInput, Fields: ve.Fields}
	case errors.Is(err, service.ErrExportDisabled):
		return &Error{Message: err.Error(), Code: CodeFeatureDisabled}
	default:
		logger.ErrorContext(ctx, "graphql operation failed", "op", op, "error", err)
		return &Error{Message: internalMessage, Code: CodeInternal}
	}
}
