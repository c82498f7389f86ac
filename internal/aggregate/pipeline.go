package aggregate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrConfidentialField is returned when a pipeline tries to project a column that must
// never leave the process, such as the password verifier or the stored refresh token.
var ErrConfidentialField = errors.New("confidential field in projection")

// Collection describes a table a pipeline can read from.
type Collection struct {
	Table        string
	Confidential []string
}

func (c Collection) isConfidential(column string) bool {
	for _, name := range c.Confidential {
		if name == column {
			return true
		}
	}
	return false
}

// Collections known to the engine.
var (
	Accounts      = Collection{Table: "accounts", Confidential: []string{"password_hash", "refresh_token"}}
	Subscriptions = Collection{Table: "subscriptions"}
	Videos        = Collection{Table: "videos"}
	Likes         = Collection{Table: "likes"}
	Comments      = Collection{Table: "comments"}
	Tweets        = Collection{Table: "tweets"}
)

var confidentialColumns = func() []string {
	var cols []string
	for _, c := range []Collection{Accounts, Subscriptions, Videos, Likes, Comments, Tweets} {
		cols = append(cols, c.Confidential...)
	}
	return cols
}()

// Field is one projected output column. Fragments use ? placeholders.
type Field struct {
	alias  string
	column string
	expr   string
	sub    *Pipeline
	wrap   string
	args   []any
	as     string
}

// Column projects alias.column.
func Column(alias, column string) Field {
	return Field{alias: alias, column: column}
}

// Expr projects a raw SQL expression.
func Expr(expr string, args ...any) Field {
	return Field{expr: expr, args: args}
}

// Count projects the cardinality of a correlated sub-pipeline.
func Count(sub *Pipeline) Field {
	return Field{sub: sub, wrap: "COUNT(*)"}
}

// Sum projects the sum of expr over a correlated sub-pipeline, zero when it is empty.
func Sum(sub *Pipeline, expr string) Field {
	return Field{sub: sub, wrap: "COALESCE(SUM(" + expr + "), 0)::BIGINT"}
}

// Exists projects whether a correlated sub-pipeline yields any row.
func Exists(sub *Pipeline) Field {
	return Field{sub: sub, wrap: "EXISTS"}
}

// As names the output column.
func (f Field) As(name string) Field {
	f.as = name
	return f
}

type joinKind int

const (
	innerJoin joinKind = iota
	unwind
)

type join struct {
	kind       joinKind
	collection Collection
	alias      string
	on         string
	args       []any
	// unwind only
	array   string
	columns [2]string
}

type predicate struct {
	cond string
	args []any
}

// Page selects a 1-indexed window of results.
type Page struct {
	Number int
	Limit  int
}

// Offset returns the number of rows skipped before the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// valid reports whether the page is 1-indexed, non-empty and its offset does not overflow.
func (p Page) valid() bool {
	return p.Number >= 1 && p.Limit >= 1 && p.Number-1 <= math.MaxInt/p.Limit
}

// Pipeline is a read-only query: a base collection, ordered join steps, match
// conditions, a projection and optional sorting and pagination. Grouped counts and
// sums are expressed as Count and Sum fields over correlated sub-pipelines.
type Pipeline struct {
	base    Collection
	alias   string
	joins   []join
	matches []predicate
	fields  []Field
	sort    []string
	page    *Page
}

// From starts a pipeline over a base collection.
func From(base Collection, alias string) *Pipeline {
	return &Pipeline{base: base, alias: alias}
}

// Match adds a filter condition. Conditions are combined with AND.
func (p *Pipeline) Match(cond string, args ...any) *Pipeline {
	p.matches = append(p.matches, predicate{cond: cond, args: args})
	return p
}

// Join adds an inner join; rows without a partner are dropped.
func (p *Pipeline) Join(c Collection, alias, on string, args ...any) *Pipeline {
	p.joins = append(p.joins, join{kind: innerJoin, collection: c, alias: alias, on: on, args: args})
	return p
}

// Unwind expands an array column into one row per element. The element and its
// 1-based position are exposed as alias.value and alias.ordinal.
func (p *Pipeline) Unwind(array, alias, value, ordinal string) *Pipeline {
	p.joins = append(p.joins, join{kind: unwind, alias: alias, array: array, columns: [2]string{value, ordinal}})
	return p
}

// Project sets the output columns.
func (p *Pipeline) Project(fields ...Field) *Pipeline {
	p.fields = append(p.fields, fields...)
	return p
}

// Sort orders rows by the given expressions.
func (p *Pipeline) Sort(exprs ...string) *Pipeline {
	p.sort = append(p.sort, exprs...)
	return p
}

// Paginate restricts the result to one page.
func (p *Pipeline) Paginate(page Page) *Pipeline {
	p.page = &page
	return p
}

// Build compiles the pipeline into a PostgreSQL statement with numbered placeholders.
func (p *Pipeline) Build() (string, []any, error) {
	var (
		b    strings.Builder
		args []any
	)
	if err := p.compile(&b, &args); err != nil {
		return "", nil, err
	}
	return numberPlaceholders(b.String()), args, nil
}

func (p *Pipeline) compile(b *strings.Builder, args *[]any) error {
	if len(p.fields) == 0 {
		return errors.New("pipeline has no projection")
	}

	sources := map[string]Collection{p.alias: p.base}
	for _, j := range p.joins {
		if _, dup := sources[j.alias]; dup {
			return fmt.Errorf("duplicate alias %q", j.alias)
		}
		sources[j.alias] = j.collection
	}

	b.WriteString("SELECT ")
	for i, f := range p.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := f.compile(b, args, sources); err != nil {
			return err
		}
	}

	p.compileFrom(b, args)
	return p.compileTail(b, args)
}

func (p *Pipeline) compileFrom(b *strings.Builder, args *[]any) {
	fmt.Fprintf(b, " FROM %s AS %s", p.base.Table, p.alias)
	for _, j := range p.joins {
		switch j.kind {
		case innerJoin:
			fmt.Fprintf(b, " JOIN %s AS %s ON %s", j.collection.Table, j.alias, j.on)
			*args = append(*args, j.args...)
		case unwind:
			fmt.Fprintf(b, " CROSS JOIN LATERAL unnest(%s) WITH ORDINALITY AS %s (%s, %s)",
				j.array, j.alias, j.columns[0], j.columns[1])
		}
	}
}

func (p *Pipeline) compileTail(b *strings.Builder, args *[]any) error {
	if len(p.matches) > 0 {
		b.WriteString(" WHERE ")
		for i, m := range p.matches {
			if i > 0 {
				b.WriteString(" AND ")
			}
			b.WriteString("(" + m.cond + ")")
			*args = append(*args, m.args...)
		}
	}
	if len(p.sort) > 0 {
		b.WriteString(" ORDER BY " + strings.Join(p.sort, ", "))
	}
	if p.page != nil {
		if !p.page.valid() {
			return fmt.Errorf("%w: page %d, limit %d", ErrInvalidArgument, p.page.Number, p.page.Limit)
		}
		b.WriteString(" LIMIT ? OFFSET ?")
		*args = append(*args, p.page.Limit, p.page.Offset())
	}
	return nil
}

// compileAggregate renders the sub-pipeline as a scalar subquery whose select list is wrap.
func (p *Pipeline) compileAggregate(b *strings.Builder, args *[]any, wrap string) error {
	if wrap == "EXISTS" {
		b.WriteString("EXISTS (SELECT 1")
	} else {
		b.WriteString("(SELECT " + wrap)
	}
	p.compileFrom(b, args)
	if err := p.compileTail(b, args); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func (f Field) compile(b *strings.Builder, args *[]any, sources map[string]Collection) error {
	switch {
	case f.sub != nil:
		if err := f.sub.compileAggregate(b, args, f.wrap); err != nil {
			return err
		}
	case f.column != "":
		source, ok := sources[f.alias]
		if !ok {
			return fmt.Errorf("unknown alias %q", f.alias)
		}
		if f.column == "*" && len(source.Confidential) > 0 {
			return fmt.Errorf("%w: %s.*", ErrConfidentialField, source.Table)
		}
		if source.isConfidential(f.column) {
			return fmt.Errorf("%w: %s.%s", ErrConfidentialField, source.Table, f.column)
		}
		b.WriteString(f.alias + "." + f.column)
	default:
		for _, col := range confidentialColumns {
			if strings.Contains(f.expr, col) {
				return fmt.Errorf("%w: %s", ErrConfidentialField, col)
			}
		}
		b.WriteString(f.expr)
		*args = append(*args, f.args...)
	}
	if f.as != "" {
		b.WriteString(" AS " + f.as)
	}
	return nil
}

func numberPlaceholders(query string) string {
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
