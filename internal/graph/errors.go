package graph

import (
	"fmt"
	"regexp"
	"strings"

	"productapi/internal/services"
	"productapi/pkg/logger"

	gqlerrors "github.com/graph-gophers/graphql-go/errors"
)

// CodeValidationFailed marks documents the engine rejected before execution.
const CodeValidationFailed = "GRAPHQL_VALIDATION_FAILED"

// Validation rules that reject argument or variable values rather than the
// shape of the document.
var inputRules = map[string]bool{
	"ArgumentsOfCorrectType": true,
	"VariablesOfCorrectType": true,
}

// Messages of argument coercion failures raised while binding variables to
// resolver arguments. These carry no rule.
var coercionMessages = []string{
	"could not unmarshal ",
	"got null for non-null",
	"not a 32-bit integer",
	"wrong type for ",
}

var argumentName = regexp.MustCompile(`^Argument "(\w+)" has invalid value`)

// RedactedMessage replaces internal error messages in production.
const RedactedMessage = "internal server error"

// ErrorFormatter fills in error codes the resolvers did not set and hides
// internal failure details when redact is on.
type ErrorFormatter struct {
	redact bool
	log    *logger.Logger
}

// NewErrorFormatter creates an ErrorFormatter.
func NewErrorFormatter(redact bool, log *logger.Logger) *ErrorFormatter {
	if log == nil {
		log = logger.Nop()
	}
	return &ErrorFormatter{redact: redact, log: log}
}

// Format rewrites errs in place.
func (f *ErrorFormatter) Format(errs []*gqlerrors.QueryError) {
	for _, qe := range errs {
		if qe == nil {
			continue
		}
		if qe.ResolverError == nil && len(qe.Path) == 0 {
			if qe.Extensions == nil {
				qe.Extensions = requestErrorExtensions(qe)
			}
			continue
		}

		cause := qe.ResolverError
		if cause == nil {
			cause = qe
		}
		if services.KindOf(cause) != services.KindInternal {
			continue
		}
		if qe.Extensions == nil {
			qe.Extensions = map[string]interface{}{}
		}
		qe.Extensions["code"] = services.CodeInternal

		if f.redact {
			f.log.Error().
				Stack().
				Err(cause).
				Str("path", pathString(qe.Path)).
				Msg("internal error hidden from client")
			qe.Message = RedactedMessage
		}
	}
}

// requestErrorExtensions classifies an error raised before any resolver ran.
// Bad argument values are the client's input; everything else is a malformed
// document.
func requestErrorExtensions(qe *gqlerrors.QueryError) map[string]interface{} {
	if !isInputError(qe) {
		return map[string]interface{}{"code": CodeValidationFailed}
	}
	ext := map[string]interface{}{"code": services.CodeBadUserInput}
	if m := argumentName.FindStringSubmatch(qe.Message); m != nil {
		ext["field"] = m[1]
	}
	return ext
}

func isInputError(qe *gqlerrors.QueryError) bool {
	if inputRules[qe.Rule] {
		return true
	}
	if qe.Rule != "" || qe.Err == nil {
		return false
	}
	for _, fragment := range coercionMessages {
		if strings.Contains(qe.Message, fragment) {
			return true
		}
	}
	return false
}

func pathString(path []interface{}) string {
	parts := make([]string, 0, len(path))
	for _, p := range path {
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, ".")
}
