package sql

import (
	"strconv"
	"strings"

	"github.com/syssam/entgroup/dialect"
)

// Builder is a minimal statement builder. It accumulates SQL text and
// arguments, applying the dialect's identifier quoting and placeholder
// numbering, so the engines never branch on the target database when
// composing statements.
type Builder struct {
	sb      strings.Builder
	dialect string
	args    []any
}

// NewBuilder returns a Builder for the given dialect name.
func NewBuilder(dialect string) *Builder {
	return &Builder{dialect: dialect}
}

// Dialect returns the dialect of the builder.
func (b *Builder) Dialect() string {
	return b.dialect
}

// Quote returns the given identifier quoted with the dialect's quote
// string. MySQL uses backticks; the rest use double quotes.
func (b *Builder) Quote(ident string) string {
	quote := `"`
	if b.dialect == dialect.MySQL {
		quote = "`"
	}
	return quote + ident + quote
}

// Ident appends the given identifier, quoted.
func (b *Builder) Ident(s string) *Builder {
	b.sb.WriteString(b.Quote(s))
	return b
}

// IdentComma appends the given identifiers, quoted and comma-separated.
func (b *Builder) IdentComma(s ...string) *Builder {
	for i := range s {
		if i > 0 {
			b.Comma()
		}
		b.Ident(s[i])
	}
	return b
}

// WriteString appends the given raw string.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Comma appends a comma separator.
func (b *Builder) Comma() *Builder {
	b.sb.WriteString(", ")
	return b
}

// Pad appends a single space.
func (b *Builder) Pad() *Builder {
	b.sb.WriteByte(' ')
	return b
}

// Arg appends an argument placeholder and records the argument value.
// Postgres placeholders are numbered ($1, $2, ...); the rest use "?".
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	if b.dialect == dialect.Postgres {
		b.sb.WriteByte('$')
		b.sb.WriteString(strconv.Itoa(len(b.args)))
	} else {
		b.sb.WriteByte('?')
	}
	return b
}

// Args appends a comma-separated list of argument placeholders.
func (b *Builder) Args(vs ...any) *Builder {
	for i := range vs {
		if i > 0 {
			b.Comma()
		}
		b.Arg(vs[i])
	}
	return b
}

// Nested appends a parenthesized section built by f.
func (b *Builder) Nested(f func(*Builder)) *Builder {
	b.sb.WriteByte('(')
	f(b)
	b.sb.WriteByte(')')
	return b
}

// String returns the accumulated SQL text.
func (b *Builder) String() string {
	return b.sb.String()
}

// Query returns the accumulated SQL text and its arguments.
func (b *Builder) Query() (string, []any) {
	return b.sb.String(), b.args
}
