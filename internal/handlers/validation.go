package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"
	"github.com/shenal-anthony/TMS-sub000/pkg/validator"
)

// RegisterValidators adds the custom binding tags used by request models and
// reports field errors under their JSON names
func RegisterValidators(contacts *validator.ContactValidator) error {
	engine, ok := binding.Validator.Engine().(*playground.Validate)
	if !ok {
		return errors.New("gin binding engine is not validator/v10")
	}

	engine.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return contacts.Register(engine)
}
