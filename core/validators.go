package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "{0} may only contain alphanumeric characters and underscores"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	notBlankTag  = "notblank"
	notBlankText = "{0} cannot be blank"

	academicYearTag   = "academic_year"
	academicYearText  = "{0} must be formatted as YYYY-YYYY"
	academicYearRegex = regexp.MustCompile(`^\d{4}-\d{4}$`)

	hhmmTag   = "hhmm"
	hhmmText  = "{0} must be a time formatted as HH:MM"
	hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

	phoneTag   = "phone"
	phoneText  = "{0} must be a valid phone number"
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

	// messages for the builtin tags used by the rule sets; {0} is the field, {1} the tag param.
	builtinTexts = map[string]string{
		"required": "{0} is required",
		"min":      "{0} must be at least {1}",
		"max":      "{0} may not be greater than {1}",
		"gt":       "{0} must be greater than {1}",
		"gte":      "{0} must be greater than or equal to {1}",
		"lt":       "{0} must be less than {1}",
		"lte":      "{0} must be less than or equal to {1}",
		"len":      "{0} must be {1} characters long",
		"oneof":    "{0} must be one of [{1}]",
		"email":    "{0} must be a valid email address",
		"numeric":  "{0} must be numeric",
		"number":   "{0} must be a number",
		"alpha":    "{0} may only contain letters",
		"alphanum": "{0} may only contain letters and numbers",
		"unique":   "{0} may not contain duplicate values",
	}
)

// Instantiate the validator for use.
func init() {
	Validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = Validate.RegisterValidation(alphaNumUnderTag, regexValidation(alphaNumUnderRegex))
	_ = Validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = Validate.RegisterValidation(academicYearTag, regexValidation(academicYearRegex))
	_ = Validate.RegisterValidation(hhmmTag, regexValidation(hhmmRegex))
	_ = Validate.RegisterValidation(phoneTag, regexValidation(phoneRegex))

	RegisterCustomTranslation(alphaNumUnderTag, alphaNumUnderText)
	RegisterCustomTranslation(notBlankTag, notBlankText)
	RegisterCustomTranslation(academicYearTag, academicYearText)
	RegisterCustomTranslation(hhmmTag, hhmmText)
	RegisterCustomTranslation(phoneTag, phoneText)
	for tag, text := range builtinTexts {
		RegisterCustomTranslation(tag, text)
	}
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
// Custom translations always override the default ones.
func RegisterCustomTranslation(tag, text string) {
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field(), fe.Param())
			return s
		},
	)
}

// FieldMessage translates a validation failure on a value that is not part of a struct,
// using `field` as the field name.
func FieldMessage(field string, fe validator.FieldError) string {
	return Translate(fe.Tag(), field, fe.Param())
}

// Translate renders the message registered for tag.
func Translate(tag, field string, param ...string) string {
	p := ""
	if len(param) > 0 {
		p = param[0]
	}
	if msg, err := Translator.T(tag, field, p); err == nil && msg != "" {
		return msg
	}
	return field + " is invalid"
}

// Custom Global Validators

func regexValidation(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}
