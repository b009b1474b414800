package model

// FieldType identifies one of the supported field kinds. The catalog
// is fixed in code; tenants pick from it when defining fields.
type FieldType string

const (
	FieldTypeText         FieldType = "text"
	FieldTypeTextArea     FieldType = "textarea"
	FieldTypeEmail        FieldType = "email"
	FieldTypeNumber       FieldType = "number"
	FieldTypeDecimal      FieldType = "decimal"
	FieldTypeCurrency     FieldType = "currency"
	FieldTypeDate         FieldType = "date"
	FieldTypeDateTime     FieldType = "datetime"
	FieldTypeCheckbox     FieldType = "checkbox"
	FieldTypeFile         FieldType = "file"
	FieldTypeSingleSelect FieldType = "single_select"
	FieldTypeMultiSelect  FieldType = "multi_select"
)

// FieldCategory groups field types that share the same set of legal
// structural constraints.
type FieldCategory string

const (
	CategoryText     FieldCategory = "text"
	CategoryNumeric  FieldCategory = "numeric"
	CategoryTemporal FieldCategory = "temporal"
	CategoryBoolean  FieldCategory = "boolean"
	CategoryFile     FieldCategory = "file"
	CategoryChoice   FieldCategory = "choice"
)

var fieldCategories = map[FieldType]FieldCategory{
	FieldTypeText:         CategoryText,
	FieldTypeTextArea:     CategoryText,
	FieldTypeEmail:        CategoryText,
	FieldTypeNumber:       CategoryNumeric,
	FieldTypeDecimal:      CategoryNumeric,
	FieldTypeCurrency:     CategoryNumeric,
	FieldTypeDate:         CategoryTemporal,
	FieldTypeDateTime:     CategoryTemporal,
	FieldTypeCheckbox:     CategoryBoolean,
	FieldTypeFile:         CategoryFile,
	FieldTypeSingleSelect: CategoryChoice,
	FieldTypeMultiSelect:  CategoryChoice,
}

// Valid reports whether the field type is part of the catalog.
func (t FieldType) Valid() bool {
	_, ok := fieldCategories[t]
	return ok
}

// Category returns the constraint category for the field type.
func (t FieldType) Category() FieldCategory {
	return fieldCategories[t]
}
