package forms

import (
	"context"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// ErrInvalid is matched by every FieldErrors value.
	ErrInvalid = errors.New("form is invalid")

	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// custom validation tags
const (
	clockTag      = "hhmm"
	notPastTag    = "notpast"
	afterStartTag = "after_start"
	imageTag      = "image"
	fileSizeTag   = "filesize"
	datetimeTag   = "datetime"
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Report JSON field names, which are also the multipart field names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(clockTag, clockValidation)
	Validate.RegisterStructValidationCtx(eventStructValidation, EventFields{})

	RegisterCustomTranslation(clockTag, "{0} must be a time in HH:MM format")
	RegisterCustomTranslation(datetimeTag, "{0} must be a date in YYYY-MM-DD format")
	RegisterCustomTranslation(notPastTag, "date cannot be in the past")
	RegisterCustomTranslation(afterStartTag, "end time must be after start time")
	RegisterCustomTranslation(imageTag, "please select a valid image")
	RegisterCustomTranslation(fileSizeTag, "{0} must not exceed {1}")
}

// RegisterCustomTranslation sets the message of a tag. {0} is the field
// name and {1} the tag parameter.
func RegisterCustomTranslation(tag, text string) {
	registerFn := func(ut.Translator) error { return nil }
	translateFn := func(_ ut.Translator, fe validator.FieldError) string {
		msg := strings.ReplaceAll(text, "{0}", fe.Field())
		return strings.ReplaceAll(msg, "{1}", fe.Param())
	}
	_ = Validate.RegisterTranslation(tag, Translator, registerFn, translateFn)
}

// FieldErrors maps a field name to its first error message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := fe.Fields()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Fields returns the names of the invalid fields, sorted.
func (fe FieldErrors) Fields() []string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (fe FieldErrors) Is(target error) bool {
	return target == ErrInvalid
}

type todayKey struct{}

// withToday carries the reference day for the not-in-the-past rule.
func withToday(ctx context.Context, now time.Time) context.Context {
	y, m, d := now.Date()
	return context.WithValue(ctx, todayKey{}, time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
}

func validateStruct(ctx context.Context, v any) FieldErrors {
	err := Validate.StructCtx(ctx, v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"form": err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = fe.Translate(Translator)
		}
	}
	return out
}

func clockValidation(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return clockPattern.MatchString(s)
	}
	return false
}

func isClock(s string) bool {
	return clockPattern.MatchString(s)
}
