package handlers

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerValidatorsOnce sync.Once

// RegisterValidators adds the ledger's custom binding tags to gin's validator engine.
// It is safe to call more than once.
func RegisterValidators() error {
	var err error
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("movement_type", validateMovementType); err != nil {
			return
		}
		err = v.RegisterValidation("reference_type", validateReferenceType)
	})
	return err
}

func validateMovementType(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	return domain.MovementType(field.String()).IsValid()
}

func validateReferenceType(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	return domain.ReferenceType(field.String()).IsValid()
}
