package validation

import (
	"errors"
	"fmt"
	"net"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	scopePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+(:[A-Za-z0-9_.\-]+)*$`)
)

func init() {
	Validate = validator.New()
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := Validate.RegisterValidation("auth_domain", validateAuthDomain); err != nil {
		panic(fmt.Sprintf("failed to register auth_domain validator: %v", err))
	}
	if err := Validate.RegisterValidation("scope_name", validateScopeName); err != nil {
		panic(fmt.Sprintf("failed to register scope_name validator: %v", err))
	}
}

// validateAuthDomain accepts a bare host or host:port (no scheme, path or spaces)
func validateAuthDomain(fl validator.FieldLevel) bool {
	return IsAuthDomain(fl.Field().String())
}

func validateScopeName(fl validator.FieldLevel) bool {
	return scopePattern.MatchString(fl.Field().String())
}

// IsAuthDomain reports whether value is a usable authorization server host
func IsAuthDomain(value string) bool {
	if value == "" || strings.ContainsAny(value, "/ \t?#@") {
		return false
	}
	host := value
	if h, _, err := net.SplitHostPort(value); err == nil {
		host = h
	}
	return host != ""
}

// FieldErrors flattens validator errors into readable messages keyed by the
// struct field's json name, e.g. "domain is required".
func FieldErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err == nil {
			return nil
		}
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required", fe.Field()))
		case "auth_domain":
			out = append(out, fmt.Sprintf("%s must be a host name such as tenant.auth0.com", fe.Field()))
		default:
			out = append(out, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return out
}
