package core

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	timeHHMMTag   = "hhmm"
	timeHHMMText  = "must be a valid 24h time in HH:MM format"
	timeHHMMRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	dateYMDTag  = "dateymd"
	dateYMDText = "must be a valid date in YYYY-MM-DD format"

	colorTag   = "colortoken"
	colorText  = "must be a display color token"
	colorRegex = regexp.MustCompile(`^[#a-zA-Z][\w#-]*$`)

	requiredTag  = "required"
	requiredText = "this field is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(timeHHMMTag, timeHHMMValidation)
	RegisterCustomTranslation(validate, translator, timeHHMMTag, timeHHMMText)

	_ = validate.RegisterValidation(dateYMDTag, dateYMDValidation)
	RegisterCustomTranslation(validate, translator, dateYMDTag, dateYMDText)

	_ = validate.RegisterValidation(colorTag, colorValidation)
	RegisterCustomTranslation(validate, translator, colorTag, colorText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// timeHHMMValidation allows 24h wall-clock times such as "08:30".
func timeHHMMValidation(fl validator.FieldLevel) bool {
	return timeHHMMRegex.MatchString(fl.Field().String())
}

// dateYMDValidation allows calendar dates such as "2021-09-13".
func dateYMDValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

// colorValidation allows hex colors and named theme tokens.
func colorValidation(fl validator.FieldLevel) bool {
	return colorRegex.MatchString(fl.Field().String())
}
