package registry

import (
	"strings"

	"github.com/suteetoe/metacore/internal/apperr"
	"github.com/suteetoe/metacore/internal/model"
)

// constraintCategories maps each constraint attribute to the field
// category it is legal for. Attributes shared by every category
// (required, unique, visibility flags, audit_changes) are not listed.
var constraintCategories = map[string]model.FieldCategory{
	"min_length":         model.CategoryText,
	"max_length":         model.CategoryText,
	"decimals":           model.CategoryNumeric,
	"max_file_size":      model.CategoryFile,
	"min_file_count":     model.CategoryFile,
	"max_file_count":     model.CategoryFile,
	"allowed_file_types": model.CategoryFile,
	"value_list_id":      model.CategoryChoice,
	"min_selected_items": model.CategoryChoice,
	"max_selected_items": model.CategoryChoice,
}

// ValidateFieldDefinition runs the two validation phases on a field
// definition: structural validation of the populated bounds first,
// then type-consistency of every populated constraint against the
// field type's category. Nothing may be persisted before both pass.
func ValidateFieldDefinition(field *model.DynamicObjectField) error {
	if strings.TrimSpace(field.FieldKey) == "" {
		return apperr.Validation("field_key", "must not be empty")
	}
	if strings.TrimSpace(field.Label) == "" {
		return apperr.Validation("label", "must not be empty")
	}
	if !field.Type.Valid() {
		return apperr.Validationf("type", "unknown field type %q", field.Type)
	}

	if err := validateStructural(field); err != nil {
		return err
	}
	return validateTypeConsistency(field)
}

// validateStructural checks that populated values are non-negative
// and that every populated min/max pair satisfies min <= max.
func validateStructural(field *model.DynamicObjectField) error {
	nonNegative := []struct {
		name  string
		value *int
	}{
		{"min_length", field.MinLength},
		{"max_length", field.MaxLength},
		{"decimals", field.Decimals},
		{"min_file_count", field.MinFileCount},
		{"max_file_count", field.MaxFileCount},
		{"min_selected_items", field.MinSelectedItems},
		{"max_selected_items", field.MaxSelectedItems},
	}
	for _, attr := range nonNegative {
		if attr.value != nil && *attr.value < 0 {
			return apperr.Validation(attr.name, "must not be negative")
		}
	}
	if field.MaxFileSize != nil && *field.MaxFileSize <= 0 {
		return apperr.Validation("max_file_size", "must be positive")
	}

	bounds := []struct {
		name     string
		min, max *int
	}{
		{"max_length", field.MinLength, field.MaxLength},
		{"max_file_count", field.MinFileCount, field.MaxFileCount},
		{"max_selected_items", field.MinSelectedItems, field.MaxSelectedItems},
	}
	for _, pair := range bounds {
		if pair.min != nil && pair.max != nil && *pair.min > *pair.max {
			return apperr.Validationf(pair.name, "must be >= the corresponding minimum (%d > %d)", *pair.min, *pair.max)
		}
	}
	return nil
}

// validateTypeConsistency rejects any populated constraint attribute
// that is not legal for the field type's category.
func validateTypeConsistency(field *model.DynamicObjectField) error {
	category := field.Type.Category()
	for _, attr := range populatedConstraints(field) {
		if legal := constraintCategories[attr]; legal != category {
			return apperr.Validationf(attr, "not allowed for field type %q", field.Type)
		}
	}
	return nil
}

// populatedConstraints lists the constraint attributes set on the
// definition, by the names used in error reporting and JSON.
func populatedConstraints(field *model.DynamicObjectField) []string {
	var populated []string
	add := func(name string, set bool) {
		if set {
			populated = append(populated, name)
		}
	}
	add("min_length", field.MinLength != nil)
	add("max_length", field.MaxLength != nil)
	add("decimals", field.Decimals != nil)
	add("max_file_size", field.MaxFileSize != nil)
	add("min_file_count", field.MinFileCount != nil)
	add("max_file_count", field.MaxFileCount != nil)
	add("allowed_file_types", field.AllowedFileTypes != "")
	add("value_list_id", field.ValueListID != nil)
	add("min_selected_items", field.MinSelectedItems != nil)
	add("max_selected_items", field.MaxSelectedItems != nil)
	return populated
}
