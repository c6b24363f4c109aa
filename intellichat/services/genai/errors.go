package genai

import (
	"context"
	"errors"
	"fmt"

	"intellichat/intellichat/utils/httputils"
)

// Error kinds attached to InvocationError. They stand in for the remote
// failure's type when the failure is rendered into the conversation.
const (
	KindAPIError      = "APIError"
	KindTransport     = "TransportError"
	KindTimeout       = "TimeoutError"
	KindBlocked       = "BlockedPromptError"
	KindEmptyResponse = "EmptyResponseError"
)

// InvocationError is a structured failure from a generation call. The
// gateway never propagates it to the renderer; it becomes the text of a
// model-role message instead.
type InvocationError struct {
	Kind        string
	Description string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

// wrapTransport normalizes low-level call failures into InvocationError.
func wrapTransport(err error) error {
	var inv *InvocationError
	if errors.As(err, &inv) {
		return inv
	}
	var status *httputils.StatusError
	if errors.As(err, &status) {
		return &InvocationError{
			Kind:        KindAPIError,
			Description: fmt.Sprintf("service returned status %d: %s", status.Code, status.Body),
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &InvocationError{Kind: KindTimeout, Description: err.Error()}
	}
	return &InvocationError{Kind: KindTransport, Description: err.Error()}
}
