package output

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// Tabler is implemented by values with a custom table layout.
type Tabler interface {
	Table() *Table
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) *Table {
	t.Rows = append(t.Rows, cells)
	return t
}

// Render writes the table with aligned columns.
func (t *Table) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(t.Headers) > 0 {
		if _, err := fmt.Fprintln(tw, strings.Join(t.Headers, "\t")); err != nil {
			return err
		}
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// TableFormatter formats data as an aligned text table.
type TableFormatter struct{}

// Format renders Tabler values and *Table directly; structs become
// FIELD/VALUE rows, slices of structs one row each, maps sorted KEY/VALUE.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}
	switch v := data.(type) {
	case Tabler:
		return v.Table().Render(w)
	case *Table:
		return v.Render(w)
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	}

	t, err := reflectTable(reflect.ValueOf(data))
	if err != nil {
		return (&JSONFormatter{}).Format(w, data)
	}
	return t.Render(w)
}

func reflectTable(v reflect.Value) (*Table, error) {
	v = deref(v)
	switch v.Kind() {
	case reflect.Struct:
		t := NewTable("FIELD", "VALUE")
		for _, f := range visibleFields(v.Type()) {
			t.AddRow(f.name, cell(v.Field(f.index)))
		}
		return t, nil
	case reflect.Slice, reflect.Array:
		return sliceTable(v)
	case reflect.Map:
		t := NewTable("KEY", "VALUE")
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			t.AddRow(cell(k), cell(v.MapIndex(k)))
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", v.Kind())
	}
}

func sliceTable(v reflect.Value) (*Table, error) {
	elem := v.Type().Elem()
	for elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		t := NewTable("VALUE")
		for i := 0; i < v.Len(); i++ {
			t.AddRow(cell(v.Index(i)))
		}
		return t, nil
	}

	fields := visibleFields(elem)
	t := &Table{}
	for _, f := range fields {
		t.Headers = append(t.Headers, strings.ToUpper(f.name))
	}
	for i := 0; i < v.Len(); i++ {
		item := deref(v.Index(i))
		row := make([]string, len(fields))
		for j, f := range fields {
			if item.IsValid() {
				row[j] = cell(item.Field(f.index))
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

type field struct {
	name  string
	index int
}

// visibleFields lists exported fields by json name, skipping json:"-" and
// table:"-".
func visibleFields(t reflect.Type) []field {
	var out []field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("table") == "-" {
			continue
		}
		name := sf.Name
		if tag, _, _ := strings.Cut(sf.Tag.Get("json"), ","); tag == "-" {
			continue
		} else if tag != "" {
			name = tag
		}
		out = append(out, field{name: name, index: i})
	}
	return out
}

func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

var timeType = reflect.TypeOf(time.Time{})

// cell formats one value for a table cell. Empty values print as "-".
func cell(v reflect.Value) string {
	v = deref(v)
	if !v.IsValid() {
		return "-"
	}
	if v.Type() == timeType {
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format("2006-01-02 15:04")
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}

	switch v.Kind() {
	case reflect.String:
		if v.String() == "" {
			return "-"
		}
		return v.String()
	case reflect.Bool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%.2f", v.Float())
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = cell(v.Index(i))
		}
		return strings.Join(parts, ",")
	case reflect.Map, reflect.Struct:
		return fmt.Sprintf("%v", v.Interface())
	default:
		return fmt.Sprint(v.Interface())
	}
}
