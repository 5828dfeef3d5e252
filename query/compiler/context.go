// Package compiler turns validated query arguments into Select statement
// trees. Compilation is pure: it reads the immutable catalog and connector
// capabilities from a Context and never performs I/O.
package compiler

import (
	"github.com/google/uuid"
	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/connector"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// Context carries the read-only inputs every compilation step needs.
type Context struct {
	Catalog   *schema.Catalog
	Connector *connector.Connector
	// SchemaName is the connection's default database schema, used for
	// tables and enums that do not name one.
	SchemaName string
	// TraceID is attached to rendered statements as a comment when set.
	TraceID string
}

// Option configures a Context.
type Option func(*Context)

// WithSchemaName sets the default database schema.
func WithSchemaName(name string) Option {
	return func(c *Context) {
		c.SchemaName = name
	}
}

// WithTraceID sets the trace id.
func WithTraceID(id string) Option {
	return func(c *Context) {
		c.TraceID = id
	}
}

// WithNewTraceID assigns a fresh random trace id.
func WithNewTraceID() Option {
	return func(c *Context) {
		c.TraceID = uuid.NewString()
	}
}

// NewContext builds a compilation context.
func NewContext(catalog *schema.Catalog, conn *connector.Connector, opts ...Option) *Context {
	c := &Context{
		Catalog:   catalog,
		Connector: conn,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Derive returns a copy of the context with extra options applied.
func (c *Context) Derive(opts ...Option) *Context {
	cp := *c
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

func (c *Context) capabilities() connector.Capabilities {
	if c.Connector == nil {
		return connector.Capabilities{}
	}
	return c.Connector.Capabilities
}

func (c *Context) comment() string {
	if c.TraceID == "" {
		return ""
	}
	return "traceparent=" + c.TraceID
}

// modelTable is the FROM source for a model, qualified by its schema or
// the connection default.
func (c *Context) modelTable(m *schema.Model) ast.Table {
	s := m.Schema
	if s == "" {
		s = c.SchemaName
	}
	return ast.TableRef(s, m.DBName)
}

// enumName qualifies an enum's database name.
func (c *Context) enumName(e *schema.Enum) ast.EnumName {
	s := e.Schema
	if s == "" {
		s = c.SchemaName
	}
	return ast.EnumName{Name: e.DBName, Schema: s}
}
