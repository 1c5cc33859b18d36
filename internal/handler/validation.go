package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"propsearch/internal/model"
)

// RegisterValidation makes validation errors report JSON field names.
// Call once at startup.
func RegisterValidation() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// fieldErrors maps a binding error to per-field messages. ok is false when
// the error is not a validation failure.
func fieldErrors(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fieldPath(fe)] = describe(fe)
		}
		return out, true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return map[string]string{typeErr.Field: "must be a " + typeErr.Type.String()}, true
	}
	return nil, false
}

// fieldPath strips the struct name: "SearchRequest.priceRange[0]" -> "priceRange[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "len":
		return fmt.Sprintf("must have exactly %s elements", fe.Param())
	case "uuid":
		return "must be a UUID"
	default:
		return "is invalid"
	}
}

// validateSearch checks rules struct tags cannot express.
func validateSearch(req *model.SearchRequest, maxLimit int) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(req.Query) == "" {
		fields["query"] = "is required"
	}
	if req.Limit > maxLimit {
		fields["limit"] = fmt.Sprintf("must be at most %d", maxLimit)
	}
	if len(req.PriceRange) == 2 && req.PriceRange[0] > req.PriceRange[1] {
		fields["priceRange"] = "min must not exceed max"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
