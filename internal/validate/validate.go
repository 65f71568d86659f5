package validate

import (
	"errors"
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
	validate = validator.New()

	// Messages name fields the way clients send them.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)
}

// Check validates val's struct tags and returns the first failure as a
// readable English message.
func Check(val any) error {
	if err := validate.Struct(val); err != nil {
		var verrors validator.ValidationErrors
		if !errors.As(err, &verrors) {
			return err
		}
		if len(verrors) < 1 {
			return nil
		}
		return errors.New(verrors[0].Translate(translator))
	}
	return nil
}

// Fields returns every failure keyed by the client-facing field name.
func Fields(val any) map[string]string {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}
	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) {
		return map[string]string{"": err.Error()}
	}
	out := make(map[string]string, len(verrors))
	for _, fe := range verrors {
		out[fe.Field()] = fe.Translate(translator)
	}
	return out
}
