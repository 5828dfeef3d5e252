// Package document parses JSON query documents into domain queries.
//
// A document names a model, an action and the action's arguments:
//
//	{"model":"User","action":"findMany",
//	 "args":{"where":{"age":{"gt":30}},"orderBy":[{"name":"asc"}],"take":-5}}
//
// Arguments are applied through the builder package, so field names,
// values and relation paths are validated against the catalog.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/segmentio/encoding/json"
	"github.com/spf13/afero"

	"github.com/satishbabariya/prisma-query-engine/internal/debug"
	"github.com/satishbabariya/prisma-query-engine/query/builder"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// Action is the read a document performs.
type Action string

const (
	ActionFindMany  Action = "findMany"
	ActionFindFirst Action = "findFirst"
	ActionAggregate Action = "aggregate"
	ActionGroupBy   Action = "groupBy"
)

// ErrUnknownAction is returned for actions other than the four reads.
var ErrUnknownAction = errors.New("unknown action")

// Operation is a parsed document. Query holds a domain.FindManyQuery for
// findMany and findFirst, a domain.AggregateQuery or a domain.GroupByQuery.
type Operation struct {
	Model  string
	Action Action
	Query  interface{}
}

// ParseError locates a problem in a document.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("document: %v", e.Err)
	}
	return fmt.Sprintf("document: %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func errorf(path, format string, args ...interface{}) *ParseError {
	return &ParseError{Path: path, Err: fmt.Errorf(format, args...)}
}

type rawDocument struct {
	Model  string                 `json:"model"`
	Action Action                 `json:"action"`
	Args   map[string]interface{} `json:"args"`
}

// ParseFile reads and parses the document at path.
func ParseFile(fs afero.Fs, catalog *schema.Catalog, path string) (*Operation, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query document: %w", err)
	}
	return Parse(catalog, data)
}

// Parse parses one document. Numbers keep their text so decimals and
// 64-bit integers survive decoding.
func Parse(catalog *schema.Catalog, data []byte) (*Operation, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw rawDocument
	if err := dec.Decode(&raw); err != nil {
		return nil, &ParseError{Err: err}
	}
	if raw.Model == "" {
		return nil, errorf("model", "model is required")
	}
	if _, err := catalog.Model(raw.Model); err != nil {
		return nil, &ParseError{Path: "model", Err: err}
	}

	debug.Component("document").Debug("parsing query document", "model", raw.Model, "action", raw.Action)

	op := &Operation{Model: raw.Model, Action: raw.Action}
	var err error
	switch raw.Action {
	case ActionFindMany, ActionFindFirst:
		op.Query, err = parseFindMany(catalog, raw)
	case ActionAggregate:
		op.Query, err = parseAggregate(catalog, raw, false)
	case ActionGroupBy:
		op.Query, err = parseAggregate(catalog, raw, true)
	default:
		return nil, &ParseError{Path: "action", Err: fmt.Errorf("%w: %q", ErrUnknownAction, raw.Action)}
	}
	if err != nil {
		return nil, err
	}
	return op, nil
}

var (
	readArgs      = []string{"where", "orderBy", "cursor", "skip", "take", "distinct"}
	findManyArgs  = append(append([]string{}, readArgs...), "select")
	aggregateArgs = append(append([]string{}, readArgs...), "_count", "_sum", "_avg", "_min", "_max")
	groupByArgs   = append(append([]string{}, aggregateArgs...), "by", "having")
)

func checkArgs(args map[string]interface{}, allowed []string) error {
	known := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		known[k] = true
	}
	for _, k := range sortedKeys(args) {
		if !known[k] {
			return errorf("args."+k, "unknown argument")
		}
	}
	return nil
}

func parseFindMany(catalog *schema.Catalog, raw rawDocument) (interface{}, error) {
	if err := checkArgs(raw.Args, findManyArgs); err != nil {
		return nil, err
	}
	qb := builder.NewQueryBuilder(catalog, raw.Model)
	p := &parser{catalog: catalog}
	if err := p.readArgs(qb, raw.Args); err != nil {
		return nil, err
	}
	if v, ok := raw.Args["select"]; ok {
		if err := p.selection(qb, v); err != nil {
			return nil, err
		}
	}
	if raw.Action == ActionFindFirst {
		n := 1
		if t, ok := raw.Args["take"]; ok {
			if i, _ := toInt(t); i < 0 {
				n = -1
			}
		}
		qb.Take(n)
	}

	q, err := qb.Build()
	if err != nil {
		return nil, &ParseError{Path: "args", Err: err}
	}
	return q, nil
}

func parseAggregate(catalog *schema.Catalog, raw rawDocument, grouped bool) (interface{}, error) {
	allowed := aggregateArgs
	if grouped {
		allowed = groupByArgs
	}
	if err := checkArgs(raw.Args, allowed); err != nil {
		return nil, err
	}

	ab := builder.NewAggregateBuilder(catalog, raw.Model)
	p := &parser{catalog: catalog}
	if grouped {
		// by must come first so orderBy and having see the grouping.
		if v, ok := raw.Args["by"]; ok {
			names, err := stringList("args.by", v)
			if err != nil {
				return nil, err
			}
			ab.GroupBy(names...)
		}
	}
	if err := p.readArgs(ab.QueryBuilder, raw.Args); err != nil {
		return nil, err
	}
	if err := p.aggregates(ab, raw.Args); err != nil {
		return nil, err
	}
	if grouped {
		if v, ok := raw.Args["having"]; ok {
			obj, err := object("args.having", v)
			if err != nil {
				return nil, err
			}
			w := ab.NewWhere()
			if err := p.where(w, "args.having", obj, true); err != nil {
				return nil, err
			}
			ab.Having(w)
			if err := check(ab.QueryBuilder, "args.having"); err != nil {
				return nil, err
			}
		}
		q, err := ab.BuildGroupBy()
		if err != nil {
			return nil, &ParseError{Path: "args", Err: err}
		}
		return q, nil
	}

	q, err := ab.BuildAggregate()
	if err != nil {
		return nil, &ParseError{Path: "args", Err: err}
	}
	return q, nil
}

// check surfaces an error the builder recorded while applying one argument.
func check(qb *builder.QueryBuilder, path string) error {
	if _, err := qb.Args(); err != nil {
		return &ParseError{Path: path, Err: err}
	}
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func object(path string, v interface{}) (map[string]interface{}, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, errorf(path, "expected an object, got %T", v)
	}
	return obj, nil
}

func stringList(path string, v interface{}) ([]string, error) {
	if s, ok := v.(string); ok {
		return []string{s}, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, errorf(path, "expected a list of field names, got %T", v)
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, errorf(fmt.Sprintf("%s[%d]", path, i), "expected a field name, got %T", item)
		}
		out[i] = s
	}
	return out, nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}
