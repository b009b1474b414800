package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/suteetoe/metacore/internal/apperr"
	"github.com/suteetoe/metacore/internal/model"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
func uintPtr(v uint) *uint    { return &v }

func TestValidateFieldDefinition(t *testing.T) {
	tests := []struct {
		name     string
		field    model.DynamicObjectField
		wantAttr string
	}{
		{
			name: "plain text field",
			field: model.DynamicObjectField{
				FieldKey: "title", Label: "Title", Type: model.FieldTypeText,
			},
		},
		{
			name: "text bounds in order",
			field: model.DynamicObjectField{
				FieldKey: "title", Label: "Title", Type: model.FieldTypeText,
				MinLength: intPtr(3), MaxLength: intPtr(5),
			},
		},
		{
			name: "text bounds inverted",
			field: model.DynamicObjectField{
				FieldKey: "title", Label: "Title", Type: model.FieldTypeText,
				MinLength: intPtr(5), MaxLength: intPtr(3),
			},
			wantAttr: "max_length",
		},
		{
			name: "equal bounds allowed",
			field: model.DynamicObjectField{
				FieldKey: "code", Label: "Code", Type: model.FieldTypeText,
				MinLength: intPtr(4), MaxLength: intPtr(4),
			},
		},
		{
			name: "negative min length",
			field: model.DynamicObjectField{
				FieldKey: "title", Label: "Title", Type: model.FieldTypeText,
				MinLength: intPtr(-1),
			},
			wantAttr: "min_length",
		},
		{
			name: "missing field key",
			field: model.DynamicObjectField{
				Label: "Title", Type: model.FieldTypeText,
			},
			wantAttr: "field_key",
		},
		{
			name: "missing label",
			field: model.DynamicObjectField{
				FieldKey: "title", Type: model.FieldTypeText,
			},
			wantAttr: "label",
		},
		{
			name: "unknown type",
			field: model.DynamicObjectField{
				FieldKey: "title", Label: "Title", Type: "hologram",
			},
			wantAttr: "type",
		},
		{
			name: "file size on text field",
			field: model.DynamicObjectField{
				FieldKey: "title", Label: "Title", Type: model.FieldTypeText,
				MaxFileSize: int64Ptr(1024),
			},
			wantAttr: "max_file_size",
		},
		{
			name: "selection bound on text field",
			field: model.DynamicObjectField{
				FieldKey: "title", Label: "Title", Type: model.FieldTypeText,
				MaxSelectedItems: intPtr(2),
			},
			wantAttr: "max_selected_items",
		},
		{
			name: "length bound on number field",
			field: model.DynamicObjectField{
				FieldKey: "amount", Label: "Amount", Type: model.FieldTypeNumber,
				MaxLength: intPtr(10),
			},
			wantAttr: "max_length",
		},
		{
			name: "decimals on decimal field",
			field: model.DynamicObjectField{
				FieldKey: "amount", Label: "Amount", Type: model.FieldTypeDecimal,
				Decimals: intPtr(2),
			},
		},
		{
			name: "decimals on file field",
			field: model.DynamicObjectField{
				FieldKey: "attachment", Label: "Attachment", Type: model.FieldTypeFile,
				Decimals: intPtr(2),
			},
			wantAttr: "decimals",
		},
		{
			name: "full file constraints",
			field: model.DynamicObjectField{
				FieldKey: "attachment", Label: "Attachment", Type: model.FieldTypeFile,
				MaxFileSize: int64Ptr(10 << 20), MinFileCount: intPtr(1),
				MaxFileCount: intPtr(5), AllowedFileTypes: "pdf,png",
			},
		},
		{
			name: "file count bounds inverted",
			field: model.DynamicObjectField{
				FieldKey: "attachment", Label: "Attachment", Type: model.FieldTypeFile,
				MinFileCount: intPtr(4), MaxFileCount: intPtr(2),
			},
			wantAttr: "max_file_count",
		},
		{
			name: "zero max file size",
			field: model.DynamicObjectField{
				FieldKey: "attachment", Label: "Attachment", Type: model.FieldTypeFile,
				MaxFileSize: int64Ptr(0),
			},
			wantAttr: "max_file_size",
		},
		{
			name: "choice constraints on multi select",
			field: model.DynamicObjectField{
				FieldKey: "tags", Label: "Tags", Type: model.FieldTypeMultiSelect,
				ValueListID: uintPtr(9), MinSelectedItems: intPtr(1), MaxSelectedItems: intPtr(3),
			},
		},
		{
			name: "selection bounds inverted",
			field: model.DynamicObjectField{
				FieldKey: "tags", Label: "Tags", Type: model.FieldTypeMultiSelect,
				MinSelectedItems: intPtr(3), MaxSelectedItems: intPtr(1),
			},
			wantAttr: "max_selected_items",
		},
		{
			name: "value list on date field",
			field: model.DynamicObjectField{
				FieldKey: "due", Label: "Due", Type: model.FieldTypeDate,
				ValueListID: uintPtr(9),
			},
			wantAttr: "value_list_id",
		},
		{
			name: "allowed file types on choice field",
			field: model.DynamicObjectField{
				FieldKey: "tags", Label: "Tags", Type: model.FieldTypeSingleSelect,
				AllowedFileTypes: "pdf",
			},
			wantAttr: "allowed_file_types",
		},
		{
			name: "bare date field",
			field: model.DynamicObjectField{
				FieldKey: "due", Label: "Due", Type: model.FieldTypeDate,
			},
		},
		{
			name: "bare checkbox field",
			field: model.DynamicObjectField{
				FieldKey: "done", Label: "Done", Type: model.FieldTypeCheckbox,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFieldDefinition(&tt.field)
			if tt.wantAttr == "" {
				require.NoError(t, err)
				return
			}
			verr, ok := apperr.AsValidation(err)
			require.True(t, ok, "expected a validation error, got %v", err)
			require.Equal(t, tt.wantAttr, verr.Attribute)
		})
	}
}
