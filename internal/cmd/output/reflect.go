package output

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/staymap/internal/cmd/table"
)

var titleCaser = cases.Title(language.English)

// reflectTable turns a struct into a Property/Value table and a non-empty
// slice of structs into one row per element. Unexported fields and fields
// tagged json:"-" are left out.
func reflectTable(data any) (table.Data, bool) {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return table.Data{}, false
		}
		v = v.Elem()
	}

	switch {
	case v.Kind() == reflect.Struct:
		fields := visibleFields(v.Type())
		tbl := table.Data{Headers: []string{"Property", "Value"}}
		for _, f := range fields {
			tbl.Rows = append(tbl.Rows, []string{columnName(f), fmt.Sprint(v.FieldByIndex(f.Index).Interface())})
		}
		return tbl, true

	case v.Kind() == reflect.Slice && v.Len() > 0 && v.Type().Elem().Kind() == reflect.Struct:
		fields := visibleFields(v.Type().Elem())
		tbl := table.Data{}
		for _, f := range fields {
			tbl.Headers = append(tbl.Headers, columnName(f))
		}
		for i := range v.Len() {
			elem := v.Index(i)
			row := make([]string, len(fields))
			for j, f := range fields {
				row[j] = fmt.Sprint(elem.FieldByIndex(f.Index).Interface())
			}
			tbl.Rows = append(tbl.Rows, row)
		}
		return tbl, true
	}
	return table.Data{}, false
}

func visibleFields(t reflect.Type) []reflect.StructField {
	var out []reflect.StructField
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("json") == "-" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// columnName title-cases the json name, or falls back to the field name.
func columnName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return f.Name
	}
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}
