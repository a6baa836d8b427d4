// Package parser implements the recursive-descent parser that turns a
// token stream into an *ast.CommandAST, grounded on the structure of
// command_parser.py and expression_parser.py from the original source:
// a dispatch table keyed by pipe-command keyword, each entry parsing its
// own argument grammar, sharing one expression grammar for everything
// that isn't a bare field-list.
package parser

import (
	"strconv"
	"strings"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/token"
)

// Parse tokenizes and parses a complete command string ("source | cmd |
// cmd ..."), returning the resulting CommandAST.
func Parse(src string) (*ast.CommandAST, error) {
	toks, err := token.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	return p.parseCommand()
}

// Parser holds the token stream and current read position.
type Parser struct {
	toks []token.Token
	pos  int
}

func baseAt(offset int) ast.Base { return ast.Base{Position: offset} }

func locOf(t token.Token) perr.Location {
	return perr.Location{Offset: t.Offset, Line: t.Line, Column: t.Column}
}

func (p *Parser) cur() token.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return token.Token{Kind: token.EOF}
}

func (p *Parser) peek(n int) token.Token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return token.Token{Kind: token.EOF}
}

func (p *Parser) atEnd() bool { return p.cur().Kind == token.EOF }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind, what string) (token.Token, error) {
	if p.cur().Kind != k {
		return token.Token{}, perr.Syntax("expected "+what, p.cur().Value, locOf(p.cur()))
	}
	return p.advance(), nil
}

func (p *Parser) expectIdent(name string) error {
	if p.cur().Kind != token.IDENT || !strings.EqualFold(p.cur().Value, name) {
		return perr.Syntax("expected '"+name+"'", p.cur().Value, locOf(p.cur()))
	}
	p.advance()
	return nil
}

func (p *Parser) matchIdent(name string) bool {
	if p.cur().Kind == token.IDENT && strings.EqualFold(p.cur().Value, name) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) peekIdentIs(name string) bool {
	return p.cur().Kind == token.IDENT && strings.EqualFold(p.cur().Value, name)
}

// parseCommand parses: source (PIPE pipe_command)*
func (p *Parser) parseCommand() (*ast.CommandAST, error) {
	startPos := p.cur().Offset
	src, err := p.parseSource()
	if err != nil {
		return nil, err
	}
	cmd := &ast.CommandAST{Base: baseAt(startPos), Source: src}
	for p.cur().Kind == token.PIPE {
		p.advance()
		pc, err := p.parsePipeCommand()
		if err != nil {
			return nil, err
		}
		cmd.PipeChain = append(cmd.PipeChain, pc)
	}
	if !p.atEnd() {
		return nil, perr.Syntax("unexpected trailing input", p.cur().Value, locOf(p.cur()))
	}
	return cmd, nil
}

// parseSource parses the initial table-producing clause:
//
//	'(' source (OR source)+ ')'     -- multi source
//	'search' search_args            -- search source, with index=/latest=/earliest=
//	IDENT '=' value                 -- keyword source, e.g. cache=orders
//	IDENT                           -- bare default source name
func (p *Parser) parseSource() (*ast.SourceNode, error) {
	pos := p.cur().Offset
	if p.cur().Kind == token.LPAREN {
		return p.parseMultiSource()
	}
	if p.peekIdentIs("search") {
		p.advance()
		return p.parseSearchSource(pos)
	}
	if p.cur().Kind != token.IDENT {
		return nil, perr.Syntax("expected a source", p.cur().Value, locOf(p.cur()))
	}
	name := p.advance().Value
	if p.cur().Kind == token.EQUALS {
		p.advance()
		val, err := p.parseSourceValue()
		if err != nil {
			return nil, err
		}
		return &ast.SourceNode{Base: baseAt(pos), SourceType: name, SourceName: val}, nil
	}
	return &ast.SourceNode{Base: baseAt(pos), SourceType: "default", SourceName: name}, nil
}

func (p *Parser) parseSourceValue() (string, error) {
	t := p.cur()
	if t.Kind == token.STRING || t.Kind == token.IDENT || t.Kind == token.NUMBER || t.Kind == token.DURATION {
		p.advance()
		return t.Value, nil
	}
	return "", perr.Syntax("expected a source name", t.Value, locOf(t))
}

// parseMultiSource parses '(' source (OR source)+ ')', producing a
// synthetic SourceNode of type "multi" whose Sources holds each branch.
// Each branch is parsed with the full source grammar, so heterogeneous
// source types (cache vs search vs default) may be combined.
func (p *Parser) parseMultiSource() (*ast.SourceNode, error) {
	pos := p.advance().Offset // '('
	var branches []*ast.SourceNode
	for {
		b, err := p.parseSource()
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
		if p.cur().Kind == token.OR {
			p.advance()
			continue
		}
		break
	}
	if len(branches) < 2 {
		return nil, perr.Syntax("a multi-source group requires at least two OR-joined sources", p.cur().Value, locOf(p.cur()))
	}
	if _, err := p.expect(token.RPAREN, "')' to close a multi-source group"); err != nil {
		return nil, err
	}
	return &ast.SourceNode{Base: baseAt(pos), SourceType: "multi", Sources: branches}, nil
}

// parseSearchSource parses the argument grammar following a bare `search`
// keyword: index="name" plus optional latest=/earliest= time bounds and
// any number of additional key=value filters, stored in Parameters.
func (p *Parser) parseSearchSource(pos int) (*ast.SourceNode, error) {
	node := &ast.SourceNode{Base: baseAt(pos), SourceType: "search", Parameters: map[string]interface{}{}}
	for p.cur().Kind == token.IDENT {
		key := p.cur().Value
		// Stop at the first pipe-command-looking bare identifier only
		// when it isn't followed by '='; search arguments are always
		// key=value pairs.
		if p.peek(1).Kind != token.EQUALS {
			break
		}
		p.advance()
		p.advance() // '='
		val, err := p.parseSourceValue()
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(key) {
		case "index":
			node.SourceName = val
		default:
			node.Parameters[strings.ToLower(key)] = val
		}
	}
	if node.SourceName == "" {
		node.SourceName = "*"
	}
	return node, nil
}

// pipeCommandParsers dispatches on the lower-cased command keyword to its
// dedicated argument-grammar parser. Unlisted commands fall back to
// parseGenericArguments, mirroring the Python dispatch table's default
// branch.
var pipeCommandParsers map[string]func(*Parser, *ast.PipeCommandNode) error

func init() {
	pipeCommandParsers = map[string]func(*Parser, *ast.PipeCommandNode) error{
		"stats":      (*Parser).parseStatsArguments,
		"eventstats": (*Parser).parseStatsArguments,
		"sort":       (*Parser).parseSortArguments,
		"join":       (*Parser).parseJoinArguments,
		"append":     (*Parser).parseJoinArguments,
		"head":       (*Parser).parseHeadArguments,
		"tail":       (*Parser).parseHeadArguments,
		"limit":      (*Parser).parseHeadArguments,
		"filter":     (*Parser).parseFilterArguments,
		"where":      (*Parser).parseFilterArguments,
		"bucket":     (*Parser).parseBucketArguments,
		"bin":        (*Parser).parseBucketArguments,
		"transaction": (*Parser).parseTransactionArguments,
	}
}

// parsePipeCommand parses a single `command args...` stage following a
// pipe, dispatching to the keyword's dedicated grammar when one exists.
func (p *Parser) parsePipeCommand() (*ast.PipeCommandNode, error) {
	pos := p.cur().Offset
	if p.cur().Kind != token.IDENT {
		return nil, perr.Syntax("expected a command name", p.cur().Value, locOf(p.cur()))
	}
	name := strings.ToLower(p.advance().Value)
	node := &ast.PipeCommandNode{Base: baseAt(pos), Name: name}
	if fn, ok := pipeCommandParsers[name]; ok {
		if err := fn(p, node); err != nil {
			return nil, err
		}
		return node, nil
	}
	if err := p.parseGenericArguments(node); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) atArgEnd() bool {
	return p.cur().Kind == token.PIPE || p.cur().Kind == token.RBRACKET || p.atEnd()
}

// parseStatsArguments parses both `stats` and `eventstats`:
//
//	agg(field) [as alias] (',' agg(field) [as alias])* ['by' field (',' field)*]
func (p *Parser) parseStatsArguments(node *ast.PipeCommandNode) error {
	for {
		agg, err := p.parseAggregation()
		if err != nil {
			return err
		}
		node.Aggregations = append(node.Aggregations, agg)
		if p.cur().Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if p.cur().Kind == token.BY {
		p.advance()
		fields, err := p.parseFieldList()
		if err != nil {
			return err
		}
		node.ByFields = fields
	}
	return nil
}

// parseAggregation parses `func(field)`, `func(field) as alias`, or the
// field-less spelling `func`/`func as alias` that spec.md's grammar note
// "count[(field)]" singles out for count (and which this parser extends
// to every aggregation name, since dc/values/etc. are equally sensible
// without an explicit field in a by-less stats).
func (p *Parser) parseAggregation() (*ast.FunctionCall, error) {
	pos := p.cur().Offset
	if p.cur().Kind != token.IDENT {
		return nil, perr.Syntax("expected an aggregation function", p.cur().Value, locOf(p.cur()))
	}
	name := p.advance().Value
	var args []ast.Node
	if p.cur().Kind == token.LPAREN {
		p.advance()
		if p.cur().Kind != token.RPAREN {
			if p.cur().Kind == token.STAR {
				pos2 := p.advance().Offset
				args = append(args, &ast.Identifier{Base: baseAt(pos2), Name: "*"})
			} else {
				arg, consumed, err := ParseExpression(p.toks, p.pos)
				if err != nil {
					return nil, err
				}
				p.pos += consumed
				args = append(args, arg)
			}
		}
		if _, err := p.expect(token.RPAREN, "')' to close aggregation arguments"); err != nil {
			return nil, err
		}
	}
	alias := ""
	if p.cur().Kind == token.AS {
		p.advance()
		t, err := p.expect(token.IDENT, "an alias name after 'as'")
		if err != nil {
			return nil, err
		}
		alias = t.Value
	}
	return &ast.FunctionCall{Base: baseAt(pos), Name: name, Arguments: args, Alias: alias}, nil
}

func (p *Parser) parseFieldList() ([]string, error) {
	var fields []string
	for {
		t, err := p.expect(token.IDENT, "a field name")
		if err != nil {
			return nil, err
		}
		fields = append(fields, t.Value)
		if p.cur().Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	return fields, nil
}

// parseSortArguments parses: field ['asc'|'desc'] (',' field ['asc'|'desc'])*
// A leading '-' on a field name is sugar for descending order.
func (p *Parser) parseSortArguments(node *ast.PipeCommandNode) error {
	for {
		desc := false
		if p.cur().Kind == token.MINUS {
			p.advance()
			desc = true
		}
		t, err := p.expect(token.IDENT, "a field name")
		if err != nil {
			return err
		}
		field := t.Value
		if p.matchIdent("desc") {
			desc = true
		} else {
			p.matchIdent("asc")
		}
		key := field
		if desc {
			key = "-" + field
		}
		node.Arguments = append(node.Arguments, &ast.PositionalArgument{
			Base:  baseAt(t.Offset),
			Value: &ast.Literal{Base: baseAt(t.Offset), Value: key, Type: "string"},
		})
		if p.cur().Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	return nil
}

// parseHeadArguments parses `head`/`tail`/`limit` with an optional bare
// row-count, defaulting to the operator's own default when omitted.
func (p *Parser) parseHeadArguments(node *ast.PipeCommandNode) error {
	if p.atArgEnd() {
		return nil
	}
	if p.cur().Kind == token.NUMBER {
		t := p.advance()
		n, _ := strconv.ParseInt(t.Value, 10, 64)
		node.Arguments = append(node.Arguments, &ast.PositionalArgument{
			Base:  baseAt(t.Offset),
			Value: &ast.Literal{Base: baseAt(t.Offset), Value: n, Type: "number"},
		})
		return nil
	}
	return p.parseGenericArguments(node)
}

// parseFilterArguments parses the full boolean expression following
// `filter`/`where` using the shared expression grammar, storing it as a
// single positional argument holding the expression AST.
func (p *Parser) parseFilterArguments(node *ast.PipeCommandNode) error {
	if p.atArgEnd() {
		return perr.Syntax("filter requires a boolean expression", p.cur().Value, locOf(p.cur()))
	}
	pos := p.cur().Offset
	expr, consumed, err := ParseExpression(p.toks, p.pos)
	if err != nil {
		return err
	}
	p.pos += consumed
	node.Arguments = append(node.Arguments, &ast.PositionalArgument{Base: baseAt(pos), Value: expr})
	return nil
}

// parseBucketArguments parses `bucket field [span=value]` / `bin ...`.
func (p *Parser) parseBucketArguments(node *ast.PipeCommandNode) error {
	t, err := p.expect(token.IDENT, "a field name")
	if err != nil {
		return err
	}
	node.Arguments = append(node.Arguments, &ast.PositionalArgument{
		Base:  baseAt(t.Offset),
		Value: &ast.Identifier{Base: baseAt(t.Offset), Name: t.Value},
	})
	return p.parseGenericArguments(node)
}

// parseTransactionArguments parses `transaction field [maxspan=value]`.
func (p *Parser) parseTransactionArguments(node *ast.PipeCommandNode) error {
	t, err := p.expect(token.IDENT, "a group-by field name")
	if err != nil {
		return err
	}
	node.Arguments = append(node.Arguments, &ast.PositionalArgument{
		Base:  baseAt(t.Offset),
		Value: &ast.Identifier{Base: baseAt(t.Offset), Name: t.Value},
	})
	return p.parseGenericArguments(node)
}

// parseJoinArguments parses `join field [subquery]` and `append
// [subquery]`, where subquery is a bracketed nested command. join is
// always a left-join; there is no type= option.
func (p *Parser) parseJoinArguments(node *ast.PipeCommandNode) error {
	for p.cur().Kind == token.IDENT && p.peek(1).Kind != token.EQUALS && p.cur().Kind != token.LBRACKET {
		t := p.advance()
		node.Arguments = append(node.Arguments, &ast.PositionalArgument{
			Base:  baseAt(t.Offset),
			Value: &ast.Identifier{Base: baseAt(t.Offset), Name: t.Value},
		})
		if p.cur().Kind != token.COMMA {
			break
		}
		p.advance()
	}
	if err := p.parseGenericArguments(node); err != nil {
		return err
	}
	return nil
}

// parseSubquery parses a bracketed nested command: '[' command ']'.
func (p *Parser) parseSubquery() (*ast.Subquery, error) {
	pos := p.cur().Offset
	if _, err := p.expect(token.LBRACKET, "'[' to start a subquery"); err != nil {
		return nil, err
	}
	inner := &Parser{toks: p.toks, pos: p.pos}
	cmd, err := inner.parseSubCommand()
	if err != nil {
		return nil, err
	}
	p.pos = inner.pos
	if _, err := p.expect(token.RBRACKET, "']' to close a subquery"); err != nil {
		return nil, err
	}
	return &ast.Subquery{Base: baseAt(pos), Command: cmd}, nil
}

// parseSubCommand parses a command that terminates at ']' rather than EOF.
func (p *Parser) parseSubCommand() (*ast.CommandAST, error) {
	startPos := p.cur().Offset
	src, err := p.parseSource()
	if err != nil {
		return nil, err
	}
	cmd := &ast.CommandAST{Base: baseAt(startPos), Source: src}
	for p.cur().Kind == token.PIPE {
		p.advance()
		pc, err := p.parsePipeCommand()
		if err != nil {
			return nil, err
		}
		cmd.PipeChain = append(cmd.PipeChain, pc)
	}
	return cmd, nil
}

// parseGenericArguments is the fallback argument grammar, covering every
// command without a dedicated parser (select, rename, eval, lookup,
// dedup, fillnull, replace, mvexpand, rex, sample, top/rare, ...): a
// mixture of bare positional values, key=value pairs (value parsed with
// the shared expression grammar), trailing 'by' field lists, and
// bracketed subqueries.
func (p *Parser) parseGenericArguments(node *ast.PipeCommandNode) error {
	for !p.atArgEnd() {
		// A bare `as name` (e.g. `cache as results`) is treated as the
		// keyword argument as=name, since "as" only attaches as an
		// alias when it immediately follows a value the generic loop
		// has already consumed (handled further below).
		if p.cur().Kind == token.AS {
			pos := p.advance().Offset
			t, err := p.expect(token.IDENT, "a name after 'as'")
			if err != nil {
				return err
			}
			node.Arguments = append(node.Arguments, &ast.KeywordArgument{
				Base: baseAt(pos), Key: "as",
				Value: &ast.Literal{Base: baseAt(t.Offset), Value: t.Value, Type: "string"},
			})
			continue
		}
		if p.cur().Kind == token.BY {
			p.advance()
			fields, err := p.parseFieldList()
			if err != nil {
				return err
			}
			node.ByFields = append(node.ByFields, fields...)
			continue
		}
		if p.cur().Kind == token.LBRACKET {
			sq, err := p.parseSubquery()
			if err != nil {
				return err
			}
			node.Subqueries = append(node.Subqueries, sq)
			continue
		}
		if p.cur().Kind == token.IDENT && p.peek(1).Kind == token.EQUALS {
			key := p.advance().Value
			valPos := p.advance().Offset // '='
			val, consumed, err := ParseExpression(p.toks, p.pos)
			if err != nil {
				return err
			}
			p.pos += consumed
			node.Arguments = append(node.Arguments, &ast.KeywordArgument{
				Base: baseAt(valPos), Key: key, Value: val,
			})
			if p.cur().Kind == token.COMMA {
				p.advance()
			}
			continue
		}
		pos := p.cur().Offset
		val, consumed, err := ParseExpression(p.toks, p.pos)
		if err != nil {
			return err
		}
		if consumed == 0 {
			return perr.Syntax("unable to parse command arguments", p.cur().Value, locOf(p.cur()))
		}
		p.pos += consumed
		node.Arguments = append(node.Arguments, &ast.PositionalArgument{Base: baseAt(pos), Value: val})
		if p.cur().Kind == token.COMMA {
			p.advance()
		}
		if p.cur().Kind == token.AS {
			p.advance()
			t, err := p.expect(token.IDENT, "an alias after 'as'")
			if err != nil {
				return err
			}
			// Kept as its own positional argument (not discarded): this
			// is how `rename old as new` pairs its two names, since bare
			// `as` between identifiers isn't part of the expression
			// grammar.
			node.Arguments = append(node.Arguments, &ast.PositionalArgument{
				Base:  baseAt(t.Offset),
				Value: &ast.Identifier{Base: baseAt(t.Offset), Name: t.Value},
			})
		}
	}
	return nil
}
