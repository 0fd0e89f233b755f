// Package ddl reads the CREATE statements SQLite keeps in sqlite_master and
// rewrites them structurally.
package ddl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// ErrSyntax is returned for statements the parser does not understand
var ErrSyntax = errors.New("ddl: unsupported statement syntax")

// sqlLexer tokenizes SQLite DDL. Rules are tried in order.
var sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Comment", Pattern: `--[^\n]*|/\*(?:[^*]|\*+[^*/])*\*+/`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "QuotedIdent", Pattern: "\"(?:[^\"]|\"\")*\"|`(?:[^`]|``)*`|\\[[^\\]]*\\]"},
	{Name: "Number", Pattern: `(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_$]*`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Punct", Pattern: `\S`},
})

var (
	symbols = sqlLexer.Symbols()

	tokWhitespace  = symbols["Whitespace"]
	tokComment     = symbols["Comment"]
	tokString      = symbols["String"]
	tokQuotedIdent = symbols["QuotedIdent"]
	tokIdent       = symbols["Ident"]
	tokLParen      = symbols["LParen"]
	tokRParen      = symbols["RParen"]
	tokComma       = symbols["Comma"]
)

// tokenize returns the significant tokens of sql, dropping whitespace and
// comments. Token offsets index into sql.
func tokenize(sql string) ([]lexer.Token, error) {
	lex, err := sqlLexer.LexString("", sql)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	all, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	tokens := make([]lexer.Token, 0, len(all))
	for _, tok := range all {
		if tok.EOF() {
			break
		}
		if tok.Type == tokWhitespace || tok.Type == tokComment {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func tokenEnd(tok lexer.Token) int {
	return tok.Pos.Offset + len(tok.Value)
}

func isKeyword(tok lexer.Token, keyword string) bool {
	return tok.Type == tokIdent && strings.EqualFold(tok.Value, keyword)
}

func isName(tok lexer.Token) bool {
	return tok.Type == tokIdent || tok.Type == tokQuotedIdent || tok.Type == tokString
}

// Unquote strips SQLite identifier quoting
func Unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	inner := s[1 : len(s)-1]
	switch {
	case s[0] == '"' && s[len(s)-1] == '"':
		return strings.ReplaceAll(inner, `""`, `"`)
	case s[0] == '`' && s[len(s)-1] == '`':
		return strings.ReplaceAll(inner, "``", "`")
	case s[0] == '[' && s[len(s)-1] == ']':
		return inner
	case s[0] == '\'' && s[len(s)-1] == '\'':
		return strings.ReplaceAll(inner, "''", "'")
	}
	return s
}

// mentions reports whether any name token equals name
func mentions(tokens []lexer.Token, name string) bool {
	for _, tok := range tokens {
		if tok.Type != tokIdent && tok.Type != tokQuotedIdent {
			continue
		}
		if strings.EqualFold(Unquote(tok.Value), name) {
			return true
		}
	}
	return false
}

// References reports whether the statement mentions name as an identifier.
// Used to find views and triggers that depend on a table.
func References(sql, name string) (bool, error) {
	tokens, err := tokenize(sql)
	if err != nil {
		return false, err
	}
	return mentions(tokens, name), nil
}

// SplitStatements splits a script into statements at top-level semicolons.
// Semicolons inside strings, comments and trigger bodies do not split.
func SplitStatements(script string) ([]string, error) {
	tokens, err := tokenize(script)
	if err != nil {
		return nil, err
	}

	var (
		out     []string
		first   = -1
		trigger bool
		depth   int
	)
	flush := func(end int) {
		if first >= 0 {
			out = append(out, strings.TrimSpace(script[first:end]))
		}
		first, trigger, depth = -1, false, 0
	}

	for _, tok := range tokens {
		if tok.Value == ";" && depth == 0 {
			flush(tok.Pos.Offset)
			continue
		}
		if first < 0 {
			first = tok.Pos.Offset
		}
		switch {
		case isKeyword(tok, "TRIGGER"):
			trigger = true
		case trigger && (isKeyword(tok, "BEGIN") || isKeyword(tok, "CASE")):
			depth++
		case trigger && isKeyword(tok, "END") && depth > 0:
			depth--
		}
	}
	if first >= 0 {
		if depth > 0 {
			return nil, fmt.Errorf("%w: unterminated trigger body", ErrSyntax)
		}
		flush(len(script))
	}
	return out, nil
}
