package http

import (
	"errors"
	"io"
	"net/http"

	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
	"github.com/AlibekovAA/relay-hub/internal/common/validation"
)

// DecodeAndValidate reads a JSON body into v and checks its validate tags.
func DecodeAndValidate(r *http.Request, v any) error {
	if err := DecodeJSON(r, v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return commonerrors.ErrInvalidPayload.WithCause(err)
		case errors.Is(err, io.EOF):
			return commonerrors.ErrInvalidJSON.WithCause(errors.New("empty body"))
		default:
			return commonerrors.ErrInvalidJSON.WithCause(err)
		}
	}
	return validation.Struct(v)
}
