// Package errors derives low-cardinality error classes for metric tags and alerts.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
)

// Classify returns a normalized error class suitable for tagging metrics/logs.
// Processor errors are tagged by their decline or failure code, application
// errors by their code, and anything else by its innermost concrete type.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var perr *model.ProcessorError
	if goerrors.As(err, &perr) {
		switch {
		case perr.Temporary:
			return "processor_unavailable"
		case perr.Code != "":
			return "processor_" + normalize(perr.Code)
		default:
			return "processor_error"
		}
	}

	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}

	// Unwrap to the innermost error for better signal.
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	return normalize(t.String())
}

func normalize(s string) string {
	name := strings.ToLower(strings.ReplaceAll(s, "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
