// Package identity validates the format of jurisdiction-specific identity
// numbers and generic document numbers.
package identity

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names reported in Result.FieldResults.
const (
	FieldBVN            = "bvn"
	FieldNIN            = "nin"
	FieldSAIDNumber     = "saIdNumber"
	FieldGhanaCard      = "ghanaCard"
	FieldDocumentNumber = "documentNumber"
)

// Field outcomes.
const (
	FieldValid   = "valid"
	FieldInvalid = "invalid"
)

var ghanaCardPattern = regexp.MustCompile(`^GHA-\d{9}-\d$`)

// Subject is the identity data supplied for a verification. Empty fields are
// treated as absent.
type Subject struct {
	FirstName       string
	LastName        string
	DateOfBirth     string
	Nationality     string
	DocumentType    string
	DocumentNumber  string
	DocumentCountry string
	BVN             string
	NIN             string
	SAIDNumber      string
	GhanaCard       string
}

// HasJurisdictionID reports whether any jurisdiction-specific number is present.
func (s Subject) HasJurisdictionID() bool {
	return s.BVN != "" || s.NIN != "" || s.SAIDNumber != "" || s.GhanaCard != ""
}

// Result is the outcome of validating a Subject. Every applicable rule runs;
// Errors holds one message per failing field.
type Result struct {
	Valid        bool
	Errors       []string
	FieldResults map[string]string
}

// Err returns a *ValidationFailure when the result is invalid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationFailure{Details: r.Errors}
}

// ValidationFailure reports identity documents that failed format checks.
type ValidationFailure struct {
	Details []string
}

func (e *ValidationFailure) Error() string {
	return "Invalid ID format: " + strings.Join(e.Details, "; ")
}

// AsValidationFailure extracts a *ValidationFailure from err's chain.
func AsValidationFailure(err error) (*ValidationFailure, bool) {
	var vf *ValidationFailure
	ok := errors.As(err, &vf)
	return vf, ok
}

type rule struct {
	field    string
	value    func(Subject) string
	tags     string
	messages map[string]string
	fallback string
}

// Validator checks identity number formats.
type Validator struct {
	validate *validator.Validate
	rules    []rule
	document rule
}

// Option configures the Validator.
type Option func(*options)

type options struct {
	enforceSAIDChecksum bool
}

// WithSAIDChecksum toggles the South Africa ID Luhn check. Enabled by default.
func WithSAIDChecksum(enabled bool) Option {
	return func(o *options) { o.enforceSAIDChecksum = enabled }
}

// NewValidator builds a Validator with its custom tags registered.
func NewValidator(opts ...Option) *Validator {
	o := options{enforceSAIDChecksum: true}
	for _, opt := range opts {
		opt(&o)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	// registration only fails for empty tags or nil funcs
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return isASCIIDigits(fl.Field().String())
	})
	_ = v.RegisterValidation("ghana_card", func(fl validator.FieldLevel) bool {
		return ghanaCardPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("za_id_checksum", func(fl validator.FieldLevel) bool {
		return LuhnValid(fl.Field().String())
	})

	saTags := "len=13,digits"
	if o.enforceSAIDChecksum {
		saTags += ",za_id_checksum"
	}

	return &Validator{
		validate: v,
		rules: []rule{
			{
				field:    FieldBVN,
				value:    func(s Subject) string { return s.BVN },
				tags:     "len=11,digits",
				fallback: "BVN must be exactly 11 digits",
			},
			{
				field:    FieldNIN,
				value:    func(s Subject) string { return s.NIN },
				tags:     "len=11,digits",
				fallback: "NIN must be exactly 11 digits",
			},
			{
				field:    FieldSAIDNumber,
				value:    func(s Subject) string { return s.SAIDNumber },
				tags:     saTags,
				messages: map[string]string{"za_id_checksum": "South Africa ID checksum is invalid"},
				fallback: "South Africa ID must be exactly 13 digits",
			},
			{
				field:    FieldGhanaCard,
				value:    func(s Subject) string { return s.GhanaCard },
				tags:     "ghana_card",
				fallback: "Ghana Card must match format GHA-#########-#",
			},
		},
		document: rule{
			field:    FieldDocumentNumber,
			value:    func(s Subject) string { return s.DocumentNumber },
			tags:     "min=5,max=20",
			fallback: "Document number must be between 5 and 20 characters",
		},
	}
}

// Validate applies every rule whose field is present. The generic document
// number is only checked when no jurisdiction-specific number was supplied.
func (v *Validator) Validate(s Subject) Result {
	res := Result{
		Errors:       []string{},
		FieldResults: map[string]string{},
	}

	applicable := v.rules
	if !s.HasJurisdictionID() {
		applicable = []rule{v.document}
	}
	for _, r := range applicable {
		value := r.value(s)
		if value == "" {
			continue
		}
		if msg, ok := v.check(r, value); !ok {
			res.Errors = append(res.Errors, msg)
			res.FieldResults[r.field] = FieldInvalid
			continue
		}
		res.FieldResults[r.field] = FieldValid
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func (v *Validator) check(r rule, value string) (string, bool) {
	err := v.validate.Var(value, r.tags)
	if err == nil {
		return "", true
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if msg, ok := r.messages[fieldErrs[0].Tag()]; ok {
			return msg, false
		}
	}
	return r.fallback, false
}

func isASCIIDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
