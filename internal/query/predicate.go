package query

import (
	"fmt"
	"strings"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

// Args collects positional parameters for a PostgreSQL statement
type Args struct {
	values []any
}

// Add appends a parameter and returns its placeholder
func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

// Values returns the collected parameters
func (a *Args) Values() []any {
	return a.values
}

// Len returns the number of parameters
func (a *Args) Len() int {
	return len(a.values)
}

// Predicate is a composable filter over tasks. It renders to SQL and
// evaluates in memory with SQL NULL semantics.
type Predicate interface {
	SQL(args *Args) string
	Match(t *domain.Task) bool
}

// And matches when every child matches
type And []Predicate

func (p And) SQL(args *Args) string {
	if len(p) == 0 {
		return "TRUE"
	}
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.SQL(args)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts, " AND ")
}

func (p And) Match(t *domain.Task) bool {
	for _, c := range p {
		if !c.Match(t) {
			return false
		}
	}
	return true
}

// Or matches when any child matches
type Or []Predicate

func (p Or) SQL(args *Args) string {
	if len(p) == 0 {
		return "FALSE"
	}
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.SQL(args)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func (p Or) Match(t *domain.Task) bool {
	for _, c := range p {
		if c.Match(t) {
			return true
		}
	}
	return false
}

// Op is a comparison operator
type Op string

const (
	OpEq      Op = "="
	OpNotEq   Op = "<>"
	OpLess    Op = "<"
	OpAtMost  Op = "<="
	OpAtLeast Op = ">="
)

// Cmp compares a field with a value
type Cmp struct {
	Field Field
	Op    Op
	Value any
}

func Eq(f Field, v any) Cmp      { return Cmp{Field: f, Op: OpEq, Value: normalize(v)} }
func NotEq(f Field, v any) Cmp   { return Cmp{Field: f, Op: OpNotEq, Value: normalize(v)} }
func Less(f Field, v any) Cmp    { return Cmp{Field: f, Op: OpLess, Value: normalize(v)} }
func AtMost(f Field, v any) Cmp  { return Cmp{Field: f, Op: OpAtMost, Value: normalize(v)} }
func AtLeast(f Field, v any) Cmp { return Cmp{Field: f, Op: OpAtLeast, Value: normalize(v)} }

func (p Cmp) SQL(args *Args) string {
	return fmt.Sprintf("%s %s %s", p.Field.Column, p.Op, args.Add(p.Value))
}

func (p Cmp) Match(t *domain.Task) bool {
	v := p.Field.Value(t)
	if v == nil || p.Value == nil {
		return false
	}
	c, ok := compare(v, p.Value)
	if !ok {
		return false
	}
	switch p.Op {
	case OpEq:
		return c == 0
	case OpNotEq:
		return c != 0
	case OpLess:
		return c < 0
	case OpAtMost:
		return c <= 0
	case OpAtLeast:
		return c >= 0
	}
	return false
}

// In matches when the field equals one of the values
type In struct {
	Field  Field
	Values []any
}

// InValues builds an In predicate from any slice of values
func InValues[T any](f Field, values []T) In {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = normalize(v)
	}
	return In{Field: f, Values: vs}
}

func (p In) SQL(args *Args) string {
	if len(p.Values) == 0 {
		return "FALSE"
	}
	placeholders := make([]string, len(p.Values))
	for i, v := range p.Values {
		placeholders[i] = args.Add(v)
	}
	return fmt.Sprintf("%s IN (%s)", p.Field.Column, strings.Join(placeholders, ", "))
}

func (p In) Match(t *domain.Task) bool {
	v := p.Field.Value(t)
	if v == nil {
		return false
	}
	for _, want := range p.Values {
		if c, ok := compare(v, want); ok && c == 0 {
			return true
		}
	}
	return false
}

// ContainsFold is a case-insensitive substring match
type ContainsFold struct {
	Field Field
	Term  string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (p ContainsFold) SQL(args *Args) string {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(p.Term)) + "%"
	return fmt.Sprintf(`LOWER(%s) LIKE %s ESCAPE '\'`, p.Field.Column, args.Add(pattern))
}

func (p ContainsFold) Match(t *domain.Task) bool {
	s, ok := p.Field.Value(t).(string)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(p.Term))
}

// IsNull matches when the field has no value
type IsNull struct {
	Field Field
}

func (p IsNull) SQL(_ *Args) string {
	return p.Field.Column + " IS NULL"
}

func (p IsNull) Match(t *domain.Task) bool {
	return p.Field.Value(t) == nil
}
