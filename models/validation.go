package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const MaxTagLength = 32

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the custom binding rules used by request models to
// gin's validator engine. Safe to call more than once; every call returns the
// outcome of the first.
func RegisterValidators() error {
	registerOnce.Do(func() {
		registerErr = registerOn(binding.Validator.Engine())
	})
	return registerErr
}

func registerOn(engine interface{}) error {
	v, ok := engine.(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	if err := v.RegisterValidation("tag", validateTag); err != nil {
		return fmt.Errorf("register tag validation: %w", err)
	}
	return nil
}

func validateTag(fl validator.FieldLevel) bool {
	tag := strings.TrimSpace(fl.Field().String())
	return tag != "" && len(tag) <= MaxTagLength
}
