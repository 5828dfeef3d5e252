package executor

import (
	"bytes"
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/satishbabariya/prisma-query-engine/query/domain"
)

// Record is one result row with its columns in select order.
type Record struct {
	Columns []string
	Values  []interface{}
}

// Get returns the value of a column.
func (r Record) Get(column string) (interface{}, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the record as an unordered map.
func (r Record) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}

// MarshalJSON writes the record as an object whose keys keep select order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal column %s: %w", c, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode maps the record onto a struct. Columns are matched against the
// `db` tag, falling back to the snake_case field name.
func (r Record) Decode(dest interface{}) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dest must be a pointer to struct")
	}
	v = v.Elem()
	t := v.Type()

	columnMap := make(map[string]int, len(r.Columns))
	for i, col := range r.Columns {
		columnMap[strings.ToLower(col)] = i
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)
		if !fieldValue.CanSet() {
			continue
		}

		columnName := field.Tag.Get("db")
		if columnName == "-" {
			continue
		}
		if columnName == "" {
			columnName = toSnakeCase(field.Name)
		}

		idx, ok := columnMap[strings.ToLower(columnName)]
		if !ok {
			continue
		}
		if err := setFieldValue(fieldValue, r.Values[idx]); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}
	return nil
}

// DecodeAll maps records onto a pointer to a slice of structs or struct
// pointers.
func DecodeAll(records []Record, dest interface{}) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Ptr || destValue.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("dest must be a pointer to slice")
	}

	sliceValue := destValue.Elem()
	elemType := sliceValue.Type().Elem()
	isPtr := elemType.Kind() == reflect.Ptr
	if isPtr {
		elemType = elemType.Elem()
	}

	out := reflect.MakeSlice(sliceValue.Type(), 0, len(records))
	for _, rec := range records {
		elem := reflect.New(elemType)
		if err := rec.Decode(elem.Interface()); err != nil {
			return err
		}
		if isPtr {
			out = reflect.Append(out, elem)
		} else {
			out = reflect.Append(out, elem.Elem())
		}
	}
	sliceValue.Set(out)
	return nil
}

func setFieldValue(fieldValue reflect.Value, value interface{}) error {
	fieldType := fieldValue.Type()

	if value == nil {
		fieldValue.Set(reflect.Zero(fieldType))
		return nil
	}

	if fieldType.Kind() == reflect.Ptr {
		elem := reflect.New(fieldType.Elem()).Elem()
		if err := setFieldValue(elem, value); err != nil {
			return err
		}
		fieldValue.Set(elem.Addr())
		return nil
	}

	valueValue := reflect.ValueOf(value)
	valueType := valueValue.Type()
	if valueType.AssignableTo(fieldType) {
		fieldValue.Set(valueValue)
		return nil
	}
	// string and numeric kinds convert into each other through reflect in
	// ways that are never wanted here (int64 -> string yields a rune)
	if (valueType.Kind() == reflect.String) != (fieldType.Kind() == reflect.String) {
		return fmt.Errorf("cannot convert %s to %s", valueType, fieldType)
	}
	if valueType.ConvertibleTo(fieldType) {
		fieldValue.Set(valueValue.Convert(fieldType))
		return nil
	}
	return fmt.Errorf("cannot convert %s to %s", valueType, fieldType)
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}

// scanRecords reads every row. Driver byte slices are copied into strings
// since the driver reuses their backing arrays.
func scanRecords(rows *sql.Rows) ([]Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var records []Record
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		records = append(records, Record{Columns: columns, Values: values})
	}
	return records, rows.Err()
}

// ReadOptions describes the post-processing a read needs after fetching.
type ReadOptions struct {
	Direction domain.TakeDirection
	// Distinct names the columns rows are deduplicated on in memory.
	Distinct []string
	// Skip and Take apply after deduplication. They are left empty when
	// the statement already paginates.
	Skip int
	Take *int
}

// postProcess applies in-memory distinct and pagination to rows in query
// order, then restores the requested order for backward reads.
func postProcess(records []Record, opts ReadOptions) ([]Record, error) {
	if len(opts.Distinct) > 0 {
		var err error
		if records, err = distinct(records, opts.Distinct); err != nil {
			return nil, err
		}
	}
	records = paginate(records, opts.Skip, opts.Take)
	if opts.Direction == domain.Backward {
		reverse(records)
	}
	return records, nil
}

func distinct(records []Record, columns []string) ([]Record, error) {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	key := make([]interface{}, len(columns))
	for _, rec := range records {
		for i, c := range columns {
			v, ok := rec.Get(c)
			if !ok {
				return nil, fmt.Errorf("distinct column %s is not selected", c)
			}
			key[i] = v
		}
		b, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("failed to build distinct key: %w", err)
		}
		if _, dup := seen[string(b)]; dup {
			continue
		}
		seen[string(b)] = struct{}{}
		out = append(out, rec)
	}
	return out, nil
}

func paginate(records []Record, skip int, take *int) []Record {
	if skip > 0 {
		if skip >= len(records) {
			return nil
		}
		records = records[skip:]
	}
	if take != nil && *take < len(records) {
		records = records[:*take]
	}
	return records
}

func reverse(records []Record) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}
