package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with the request rules of the session service
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents one failed field rule
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// New creates a validator with the answer shape rules registered
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterStructValidation(answerShape, SubmitAnswerRequest{})

	return &Validator{validate: validate}
}

// Validate checks s against its struct tags and struct-level rules. The returned
// error is a ValidationErrors when the input is invalid.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validator failure: %w", err)
	}

	result := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		result = append(result, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return result
}

// answerShape allows at most one value group per submission. A column only makes
// sense together with a row, and a non-reset submission must carry a value.
func answerShape(sl validator.StructLevel) {
	req := sl.Current().Interface().(SubmitAnswerRequest)

	groups := 0
	if req.OptionID != nil {
		groups++
	}
	if req.RowID != nil {
		groups++
	}
	if req.NumberValue != nil {
		groups++
	}
	if req.BoolValue != nil {
		groups++
	}

	if groups > 1 {
		sl.ReportError(req.QuestionID, "question_id", "QuestionID", "single_value", "")
	}
	if req.ColumnID != nil && req.RowID == nil {
		sl.ReportError(req.ColumnID, "column_id", "ColumnID", "required_with_row", "")
	}
	if !req.Reset && groups == 0 {
		sl.ReportError(req.QuestionID, "question_id", "QuestionID", "value_required", "")
	}
	if !req.Reset && req.RowID != nil && req.ColumnID == nil {
		sl.ReportError(req.ColumnID, "column_id", "ColumnID", "required_with_row", "")
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "single_value":
		return "only one answer value may be submitted"
	case "value_required":
		return "an answer value is required unless resetting"
	case "required_with_row":
		return "row and column must be submitted together"
	case "min", "gte":
		return "must be at least " + fe.Param()
	default:
		return "failed rule " + fe.Tag()
	}
}
