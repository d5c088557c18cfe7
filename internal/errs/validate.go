package errs

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	en_translations.RegisterDefaultTranslations(validate, translator)

	//using json tag names instead of field names
	validate.RegisterTagNameFunc(jsonTagName)
}

// Check validates the value using the "validate" struct tags and returns the
// translated message of every field that failed, nil when value is valid.
func Check(value any) map[string]string {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	verrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"err": err.Error()}
	}

	return Fields(verrors, translator)
}

// Fields translates validation errors into a field name to message map.
func Fields(verrors validator.ValidationErrors, trans ut.Translator) map[string]string {
	fieldErrs := make(map[string]string, len(verrors))
	for _, e := range verrors {
		fieldErrs[e.Field()] = e.Translate(trans)
	}

	return fieldErrs
}

func jsonTagName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	name := strings.SplitN(tag, ",", 2)[0]

	if name == "-" {
		return ""
	}
	return name
}
