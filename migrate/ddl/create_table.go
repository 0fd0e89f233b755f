package ddl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// ConstraintKind identifies a column or table constraint clause
type ConstraintKind int

const (
	ConstraintPrimaryKey ConstraintKind = iota
	ConstraintNotNull
	ConstraintNull
	ConstraintUnique
	ConstraintCheck
	ConstraintDefault
	ConstraintCollate
	ConstraintReferences
	ConstraintGenerated
	ConstraintForeignKey
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintPrimaryKey:
		return "PRIMARY KEY"
	case ConstraintNotNull:
		return "NOT NULL"
	case ConstraintNull:
		return "NULL"
	case ConstraintUnique:
		return "UNIQUE"
	case ConstraintCheck:
		return "CHECK"
	case ConstraintDefault:
		return "DEFAULT"
	case ConstraintCollate:
		return "COLLATE"
	case ConstraintReferences:
		return "REFERENCES"
	case ConstraintGenerated:
		return "GENERATED"
	case ConstraintForeignKey:
		return "FOREIGN KEY"
	default:
		return fmt.Sprintf("ConstraintKind(%d)", int(k))
	}
}

// Constraint is one clause of a column definition, or a whole table
// constraint. SQL is the original text of the clause.
type Constraint struct {
	Kind   ConstraintKind
	SQL    string
	tokens []lexer.Token
}

// Element is one comma separated entry of the CREATE TABLE body
type Element struct {
	// Column is false for table constraints
	Column bool
	// Name is the unquoted column name
	Name string
	// NameSQL is the column name as written
	NameSQL string
	// TypeName is the declared type as written, possibly empty
	TypeName    string
	Constraints []Constraint
	SQL         string

	start, end int
}

// Has reports whether the element carries a clause of the given kind
func (e *Element) Has(kind ConstraintKind) bool {
	for _, c := range e.Constraints {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// CreateTable is a parsed CREATE TABLE statement. It keeps the original
// text so rewrites leave everything they do not touch byte-identical.
type CreateTable struct {
	SQL      string
	Name     string
	Elements []Element

	nameStart, nameEnd int
}

// ParseCreateTable parses the CREATE TABLE text stored in sqlite_master
func ParseCreateTable(sql string) (*CreateTable, error) {
	tokens, err := tokenize(sql)
	if err != nil {
		return nil, err
	}

	p := 0
	accept := func(keyword string) bool {
		if p < len(tokens) && isKeyword(tokens[p], keyword) {
			p++
			return true
		}
		return false
	}

	if !accept("CREATE") {
		return nil, fmt.Errorf("%w: expected CREATE", ErrSyntax)
	}
	if !accept("TEMP") {
		accept("TEMPORARY")
	}
	if !accept("TABLE") {
		return nil, fmt.Errorf("%w: expected TABLE", ErrSyntax)
	}
	if accept("IF") {
		if !accept("NOT") || !accept("EXISTS") {
			return nil, fmt.Errorf("%w: expected IF NOT EXISTS", ErrSyntax)
		}
	}

	if p >= len(tokens) || !isName(tokens[p]) {
		return nil, fmt.Errorf("%w: expected table name", ErrSyntax)
	}
	nameTok := tokens[p]
	p++
	// schema qualified: keep the last part
	if p+1 < len(tokens) && tokens[p].Value == "." && isName(tokens[p+1]) {
		nameTok = tokens[p+1]
		p += 2
	}

	ct := &CreateTable{
		SQL:       sql,
		Name:      Unquote(nameTok.Value),
		nameStart: nameTok.Pos.Offset,
		nameEnd:   tokenEnd(nameTok),
	}

	if p >= len(tokens) || tokens[p].Type != tokLParen {
		return nil, fmt.Errorf("%w: table %s has no column list", ErrSyntax, ct.Name)
	}
	p++

	depth := 0
	elemStart := p
	closed := false
	for ; p < len(tokens) && !closed; p++ {
		switch tokens[p].Type {
		case tokLParen:
			depth++
		case tokRParen:
			if depth > 0 {
				depth--
				continue
			}
			closed = true
			fallthrough
		case tokComma:
			if depth > 0 {
				continue
			}
			if p == elemStart {
				return nil, fmt.Errorf("%w: empty element in table %s", ErrSyntax, ct.Name)
			}
			elem, err := parseElement(sql, tokens[elemStart:p])
			if err != nil {
				return nil, err
			}
			ct.Elements = append(ct.Elements, elem)
			elemStart = p + 1
		}
	}
	if !closed {
		return nil, fmt.Errorf("%w: unterminated column list in table %s", ErrSyntax, ct.Name)
	}

	return ct, nil
}

var tableConstraintKinds = map[string]ConstraintKind{
	"PRIMARY": ConstraintPrimaryKey,
	"UNIQUE":  ConstraintUnique,
	"CHECK":   ConstraintCheck,
	"FOREIGN": ConstraintForeignKey,
}

func parseElement(sql string, tokens []lexer.Token) (Element, error) {
	first := tokens[0]
	elem := Element{
		start: first.Pos.Offset,
		end:   tokenEnd(tokens[len(tokens)-1]),
	}
	elem.SQL = sql[elem.start:elem.end]

	if first.Type == tokIdent {
		upper := strings.ToUpper(first.Value)
		if upper == "CONSTRAINT" {
			if len(tokens) < 3 {
				return Element{}, fmt.Errorf("%w: incomplete constraint %q", ErrSyntax, elem.SQL)
			}
			upper = strings.ToUpper(tokens[2].Value)
		}
		if kind, ok := tableConstraintKinds[upper]; ok {
			elem.Constraints = []Constraint{{Kind: kind, SQL: elem.SQL, tokens: tokens}}
			return elem, nil
		}
	}

	if !isName(first) {
		return Element{}, fmt.Errorf("%w: expected column name in %q", ErrSyntax, elem.SQL)
	}
	elem.Column = true
	elem.Name = Unquote(first.Value)
	elem.NameSQL = first.Value

	i := 1
	for i < len(tokens) && tokens[i].Type == tokIdent && !isClauseStart(tokens, i) {
		i++
	}
	if i > 1 && i < len(tokens) && tokens[i].Type == tokLParen {
		end := matchParen(tokens, i)
		if end < 0 {
			return Element{}, fmt.Errorf("%w: unbalanced type arguments in %q", ErrSyntax, elem.SQL)
		}
		i = end + 1
	}
	if i > 1 {
		elem.TypeName = sql[tokens[1].Pos.Offset:tokenEnd(tokens[i-1])]
	}

	// split the remaining tokens into clauses at depth 0
	depth := 0
	segStart := -1
	flush := func(end int) {
		if segStart < 0 {
			return
		}
		seg := tokens[segStart:end]
		elem.Constraints = append(elem.Constraints, Constraint{
			Kind:   clauseKind(seg),
			SQL:    sql[seg[0].Pos.Offset:tokenEnd(seg[len(seg)-1])],
			tokens: seg,
		})
	}
	for j := i; j < len(tokens); j++ {
		switch tokens[j].Type {
		case tokLParen:
			depth++
			continue
		case tokRParen:
			depth--
			continue
		}
		if depth > 0 || !isClauseStart(tokens, j) {
			continue
		}
		// CONSTRAINT name binds to the clause that follows it
		if segStart >= 0 && isKeyword(tokens[segStart], "CONSTRAINT") && j-segStart <= 2 {
			continue
		}
		flush(j)
		segStart = j
	}
	if segStart < 0 && i < len(tokens) {
		return Element{}, fmt.Errorf("%w: unexpected %q in column %s", ErrSyntax, tokens[i].Value, elem.Name)
	}
	flush(len(tokens))

	return elem, nil
}

func isClauseStart(tokens []lexer.Token, j int) bool {
	tok := tokens[j]
	if tok.Type != tokIdent {
		return false
	}
	prev := ""
	if j > 0 && tokens[j-1].Type == tokIdent {
		prev = strings.ToUpper(tokens[j-1].Value)
	}
	switch strings.ToUpper(tok.Value) {
	case "CONSTRAINT", "PRIMARY", "UNIQUE", "CHECK", "COLLATE", "REFERENCES", "GENERATED":
		return true
	case "NOT":
		return j+1 < len(tokens) && isKeyword(tokens[j+1], "NULL")
	case "NULL":
		return prev != "NOT" && prev != "SET" && prev != "DEFAULT"
	case "DEFAULT":
		return prev != "SET"
	case "AS":
		return prev != "ALWAYS"
	}
	return false
}

func clauseKind(seg []lexer.Token) ConstraintKind {
	head := seg[0]
	if isKeyword(head, "CONSTRAINT") && len(seg) > 2 {
		head = seg[2]
	}
	switch strings.ToUpper(head.Value) {
	case "PRIMARY":
		return ConstraintPrimaryKey
	case "NOT":
		return ConstraintNotNull
	case "NULL":
		return ConstraintNull
	case "UNIQUE":
		return ConstraintUnique
	case "CHECK":
		return ConstraintCheck
	case "DEFAULT":
		return ConstraintDefault
	case "COLLATE":
		return ConstraintCollate
	case "REFERENCES":
		return ConstraintReferences
	default:
		return ConstraintGenerated
	}
}

func matchParen(tokens []lexer.Token, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch tokens[i].Type {
		case tokLParen:
			depth++
		case tokRParen:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Column returns the column element with the given name
func (ct *CreateTable) Column(name string) (*Element, bool) {
	for i := range ct.Elements {
		if ct.Elements[i].Column && strings.EqualFold(ct.Elements[i].Name, name) {
			return &ct.Elements[i], true
		}
	}
	return nil, false
}

// InvolvedIn reports whether the column carries a constraint of the given
// kind, or appears in such a constraint elsewhere in the table.
func (ct *CreateTable) InvolvedIn(column string, kind ConstraintKind) bool {
	for _, elem := range ct.Elements {
		if elem.Column && strings.EqualFold(elem.Name, column) && elem.Has(kind) {
			return true
		}
		for _, c := range elem.Constraints {
			if c.Kind == kind && mentions(c.tokens, column) {
				return true
			}
		}
	}
	return false
}

// ColumnChange describes the new definition of a column. Nil fields keep
// the clauses currently declared.
type ColumnChange struct {
	Type    string
	NotNull *bool
	Default *string
}

type edit struct {
	start, end int
	text       string
}

// Rewrite returns the statement with the table renamed to tableName and the
// definition of column replaced according to change. Constraints other than
// nullability and default are carried over as written.
func (ct *CreateTable) Rewrite(tableName, column string, change ColumnChange) (string, error) {
	elem, ok := ct.Column(column)
	if !ok {
		return "", fmt.Errorf("%w: column %s not found in table %s", ErrSyntax, column, ct.Name)
	}

	parts := []string{elem.NameSQL}
	if change.Type != "" {
		parts = append(parts, change.Type)
	} else if elem.TypeName != "" {
		parts = append(parts, elem.TypeName)
	}
	if change.NotNull != nil && *change.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if change.Default != nil {
		parts = append(parts, "DEFAULT "+*change.Default)
	}
	for _, c := range elem.Constraints {
		switch c.Kind {
		case ConstraintNotNull, ConstraintNull:
			if change.NotNull != nil {
				continue
			}
		case ConstraintDefault:
			if change.Default != nil {
				continue
			}
		}
		parts = append(parts, c.SQL)
	}

	edits := []edit{
		{start: ct.nameStart, end: ct.nameEnd, text: quoteIdent(tableName)},
		{start: elem.start, end: elem.end, text: strings.Join(parts, " ")},
	}
	return applyEdits(ct.SQL, edits), nil
}

func applyEdits(sql string, edits []edit) string {
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	for _, e := range edits {
		sql = sql[:e.start] + e.text + sql[e.end:]
	}
	return sql
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
