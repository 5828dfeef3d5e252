package schema

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// nativeTypeLexer tokenizes annotations like VarChar(255), Decimal(10, 2),
// Geometry(Point, 4326) or NVarChar(max).
var nativeTypeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Number", Pattern: `-?\d+`},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

type rawNativeType struct {
	Pos  lexer.Position
	Name string   `@Ident`
	Args []string `( "(" ( @(Ident | Number) ( "," @(Ident | Number) )* )? ")" )?`
}

var nativeTypeParser = participle.MustBuild[rawNativeType](
	participle.Lexer(nativeTypeLexer),
	participle.Elide("Whitespace"),
)

// ParseNativeType parses a native type annotation. A leading "@db." prefix,
// as written on schema fields, is accepted and dropped.
func ParseNativeType(s string) (*NativeType, error) {
	src := strings.TrimSpace(s)
	if i := strings.Index(src, "."); i >= 0 && strings.HasPrefix(src, "@") {
		src = src[i+1:]
	}

	raw, err := nativeTypeParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("invalid native type %q: %w", s, err)
	}

	return &NativeType{Name: raw.Name, Args: raw.Args}, nil
}
