// Package validator wraps go-playground/validator with translated messages
// and the connection-string rules used by data source descriptors.
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Supported message languages.
const (
	LangEN = "en"
	LangZH = "zh"
)

// Validator checks descriptor structs and reports one FieldError per
// failed rule.
type Validator struct {
	validate *validator.Validate
	trans    map[string]ut.Translator
}

var (
	global     *Validator
	globalOnce sync.Once
)

// Global returns the shared validator.
func Global() *Validator {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}

// New creates a validator with en and zh messages and the custom rules.
func New() *Validator {
	v := &Validator{
		validate: validator.New(),
		trans:    make(map[string]ut.Translator, 2),
	}

	// Messages name the config key, not the Go field.
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	uni := ut.New(en.New(), en.New(), zh.New())
	enTrans, _ := uni.GetTranslator(LangEN)
	_ = en_translations.RegisterDefaultTranslations(v.validate, enTrans)
	zhTrans, _ := uni.GetTranslator(LangZH)
	_ = zh_translations.RegisterDefaultTranslations(v.validate, zhTrans)
	v.trans[LangEN] = enTrans
	v.trans[LangZH] = zhTrans

	for _, r := range rules {
		v.register(r)
	}
	return v
}

// Struct validates s and returns the failures as FieldErrors, in field
// order. It returns nil when s is valid.
func (v *Validator) Struct(s interface{}, lang string) []error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []error{err}
	}

	trans := v.translator(lang)
	out := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, &FieldError{
			Field:   fe.Namespace(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: fe.Translate(trans),
		})
	}
	return out
}

// Var validates a single value against tag.
func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

func (v *Validator) translator(lang string) ut.Translator {
	if t, ok := v.trans[lang]; ok {
		return t
	}
	return v.trans[LangEN]
}

func (v *Validator) register(r rule) {
	_ = v.validate.RegisterValidation(r.tag, r.fn)
	for lang, msg := range r.messages {
		trans, ok := v.trans[lang]
		if !ok {
			continue
		}
		tag, msg := r.tag, msg
		_ = v.validate.RegisterTranslation(tag, trans,
			func(t ut.Translator) error {
				return t.Add(tag, msg, true)
			},
			func(t ut.Translator, fe validator.FieldError) string {
				s, _ := t.T(tag, fe.Field())
				return s
			},
		)
	}
}

// Struct validates s with the shared validator.
func Struct(s interface{}, lang string) []error {
	return Global().Struct(s, lang)
}

// Var validates a single value with the shared validator.
func Var(field interface{}, tag string) error {
	return Global().Var(field, tag)
}
