package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/envelope"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 16 << 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a JSON body into dst and validates it. Failures are
// returned as 400 INVALID_REQUEST.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return envelope.InvalidRequest("request body is required")
		case errors.As(err, &maxErr):
			return envelope.InvalidRequest("request body is too large")
		default:
			return envelope.InvalidRequest("request body is not valid JSON").Wrap(err)
		}
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return envelope.InvalidRequest(describeFieldError(verrs[0])).Wrap(err)
		}
		return envelope.InvalidRequest("invalid request").Wrap(err)
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// principalFrom returns the principal the gateway placed on the context.
// Handlers behind a non-public route can rely on it being present.
func principalFrom(r *http.Request) (auth.Principal, error) {
	p, ok := auth.GetPrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, envelope.ErrUnauthenticated.Wrap(errNoPrincipal)
	}
	return p, nil
}
