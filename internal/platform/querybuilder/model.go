package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

type modelColumn struct {
	name  string
	key   bool
	value any
}

// InsertModel renders an INSERT of every db-tagged field of model.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, err := modelColumns(model)
	if err != nil {
		return "", nil, err
	}
	b := InsertInto(table).Suffix(suffix)
	names := make([]string, 0, len(cols))
	values := make([]any, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.name)
		values = append(values, c.value)
	}
	return b.Columns(names...).Values(values...).ToSQL()
}

// UpdateModel starts an UPDATE that sets every db-tagged column of model.
// Columns tagged with the "key" option are left out of the SET list.
func UpdateModel(table string, model any) (*UpdateBuilder, error) {
	cols, err := modelColumns(model)
	if err != nil {
		return nil, err
	}
	b := Update(table)
	for _, c := range cols {
		if !c.key {
			b.Set(c.name, c.value)
		}
	}
	if len(b.sets) == 0 {
		return nil, fmt.Errorf("model has only key columns")
	}
	return b, nil
}

func modelColumns(model any) ([]modelColumn, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	out := make([]modelColumn, 0, typ.NumField())
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		out = append(out, modelColumn{
			name:  name,
			key:   strings.Contains(","+opts+",", ",key,"),
			value: value.Field(i).Interface(),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("model has no db columns")
	}
	return out, nil
}
