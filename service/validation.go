package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"debt-planner/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so errors match the wire format.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateDebt checks a single debt the way the add-debt form does.
func ValidateDebt(debt domain.Debt) error {
	if err := validate.Struct(debt); err != nil {
		return translateValidation(err)
	}
	if strings.TrimSpace(debt.Name) == "" {
		return invalid("name", "debt name cannot be empty")
	}
	if debt.Balance > MaxDebtAmount {
		return invalid("balance", "balance exceeds the maximum of %.2f", MaxDebtAmount)
	}
	if debt.InterestRate > MaxInterestRate {
		return invalid("interestRate", "interest rate exceeds the maximum of %.2f%%", MaxInterestRate)
	}
	if math.IsInf(debt.MinPayment, 0) {
		return invalid("minPayment", "minimum payment must be finite")
	}
	return nil
}

// ValidateDebts checks a whole debt set: non-empty, bounded, unique names.
func ValidateDebts(debts []domain.Debt) error {
	if len(debts) == 0 {
		return invalid("debts", "at least one debt is required")
	}
	if len(debts) > MaxDebtsPerPlanner {
		return invalid("debts", "number of debts exceeds the maximum of %d", MaxDebtsPerPlanner)
	}

	names := make(map[string]bool, len(debts))
	for i, debt := range debts {
		if err := ValidateDebt(debt); err != nil {
			return fmt.Errorf("debt %d: %w", i, err)
		}
		if names[debt.Name] {
			return invalid("name", "duplicate debt name %q", debt.Name)
		}
		names[debt.Name] = true
	}
	return nil
}

// ValidateStruct runs tag validation on request DTOs.
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return translateValidation(err)
	}
	return nil
}

func translateValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return invalid(field, "is required")
	case "gt":
		return invalid(field, "must be greater than %s", fe.Param())
	case "gte":
		return invalid(field, "cannot be negative")
	case "oneof":
		return invalid(field, "must be one of: %s", fe.Param())
	case "datetime":
		return invalid(field, "must be a date formatted as %s", fe.Param())
	default:
		return invalid(field, "failed %s validation", fe.Tag())
	}
}
