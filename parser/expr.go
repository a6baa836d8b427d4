package parser

// Shared expression-grammar parsing: or_expr > and_expr > not_expr >
// comparison > add_expr > mul_expr > primary, as specified in spec.md
// §4.2. This single grammar backs both the `filter`/`where` boolean
// expression and the right-hand side of `eval` assignments, since
// spec.md §9 requires the same grammar for both rather than routing
// either through the host language's native eval.

import (
	"strconv"
	"strings"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/token"
)

// ParseExpression parses a single expression starting at the or_expr
// production and returns the resulting node plus the number of tokens
// consumed from toks[start:].
func ParseExpression(toks []token.Token, start int) (ast.Node, int, error) {
	p := &exprParser{toks: toks, pos: start}
	node, err := p.orExpr()
	if err != nil {
		return nil, 0, err
	}
	return node, p.pos - start, nil
}

type exprParser struct {
	toks []token.Token
	pos  int
}

func (p *exprParser) cur() token.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return token.Token{Kind: token.EOF}
}

func (p *exprParser) peekIdent(lower string) bool {
	t := p.cur()
	return t.Kind == token.IDENT && strings.EqualFold(t.Value, lower)
}

func (p *exprParser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *exprParser) orExpr() (ast.Node, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.OR {
		pos := p.advance().Offset
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Operator: "or", Right: right, Base: ast.Base{Position: pos}}
	}
	return left, nil
}

func (p *exprParser) andExpr() (ast.Node, error) {
	left, err := p.notExpr()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.AND {
		pos := p.advance().Offset
		right, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Operator: "and", Right: right, Base: ast.Base{Position: pos}}
	}
	return left, nil
}

func (p *exprParser) notExpr() (ast.Node, error) {
	if p.peekIdent("not") {
		pos := p.advance().Offset
		operand, err := p.comparison()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Operator: "not", Operand: operand, Base: ast.Base{Position: pos}}, nil
	}
	return p.comparison()
}

var cmpOps = map[token.Kind]string{
	token.GT:  ">",
	token.LT:  "<",
	token.GTE: ">=",
	token.LTE: "<=",
	token.EQ:  "==",
	token.NEQ: "!=",
}

func (p *exprParser) comparison() (ast.Node, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}

	// x NOT IN (...)
	if p.peekIdent("not") && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.IN {
		pos := p.cur().Offset
		p.advance() // not
		p.advance() // in
		list, err := p.parenList()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Left: left, Operator: "not_in", Right: list, Base: ast.Base{Position: pos}}, nil
	}
	if p.cur().Kind == token.IN {
		pos := p.advance().Offset
		list, err := p.parenList()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Left: left, Operator: "in", Right: list, Base: ast.Base{Position: pos}}, nil
	}
	if p.peekIdent("like") {
		pos := p.advance().Offset
		pattern, err := p.additive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Left: left, Operator: "like", Right: pattern, Base: ast.Base{Position: pos}}, nil
	}
	if op, ok := cmpOps[p.cur().Kind]; ok {
		pos := p.advance().Offset
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Left: left, Operator: op, Right: right, Base: ast.Base{Position: pos}}, nil
	}
	if p.cur().Kind == token.EQUALS {
		pos := p.advance().Offset
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Left: left, Operator: "==", Right: right, Base: ast.Base{Position: pos}}, nil
	}
	return left, nil
}

// parenList parses '(' expr (',' expr)* ')' and returns a synthetic
// FunctionCall node named "__list__" carrying the elements as arguments,
// a lightweight container since ast has no dedicated list node.
func (p *exprParser) parenList() (ast.Node, error) {
	if p.cur().Kind != token.LPAREN {
		return nil, perr.Syntax("expected '(' to start a value list", p.cur().Value, locOf(p.cur()))
	}
	pos := p.advance().Offset
	var items []ast.Node
	if p.cur().Kind != token.RPAREN {
		for {
			v, err := p.additive()
			if err != nil {
				return nil, err
			}
			items = append(items, v)
			if p.cur().Kind == token.COMMA {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur().Kind != token.RPAREN {
		return nil, perr.Syntax("expected ')' to close a value list", p.cur().Value, locOf(p.cur()))
	}
	p.advance()
	return &ast.FunctionCall{Name: "__list__", Arguments: items, Base: ast.Base{Position: pos}}, nil
}

func (p *exprParser) additive() (ast.Node, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.PLUS || p.cur().Kind == token.MINUS {
		op := "+"
		if p.cur().Kind == token.MINUS {
			op = "-"
		}
		pos := p.advance().Offset
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Operator: op, Right: right, Base: ast.Base{Position: pos}}
	}
	return left, nil
}

func (p *exprParser) multiplicative() (ast.Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.STAR || p.cur().Kind == token.SLASH {
		op := "*"
		if p.cur().Kind == token.SLASH {
			op = "/"
		}
		pos := p.advance().Offset
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Operator: op, Right: right, Base: ast.Base{Position: pos}}
	}
	return left, nil
}

func (p *exprParser) unary() (ast.Node, error) {
	if p.cur().Kind == token.MINUS {
		pos := p.advance().Offset
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Operator: "-", Operand: operand, Base: ast.Base{Position: pos}}, nil
	}
	return p.primary()
}

func (p *exprParser) primary() (ast.Node, error) {
	t := p.cur()
	switch t.Kind {
	case token.LPAREN:
		p.advance()
		inner, err := p.orExpr()
		if err != nil {
			return nil, err
		}
		if p.cur().Kind != token.RPAREN {
			return nil, perr.Syntax("expected ')'", p.cur().Value, locOf(p.cur()))
		}
		p.advance()
		return inner, nil
	case token.STRING:
		p.advance()
		return &ast.Literal{Value: t.Value, Type: "string", Base: ast.Base{Position: t.Offset}}, nil
	case token.NUMBER:
		p.advance()
		return &ast.Literal{Value: parseNumber(t.Value), Type: "number", Base: ast.Base{Position: t.Offset}}, nil
	case token.DURATION:
		p.advance()
		return &ast.Literal{Value: t.Value, Type: "string", Base: ast.Base{Position: t.Offset}}, nil
	case token.IDENT:
		p.advance()
		if strings.EqualFold(t.Value, "true") || strings.EqualFold(t.Value, "false") {
			return &ast.Literal{Value: strings.EqualFold(t.Value, "true"), Type: "boolean", Base: ast.Base{Position: t.Offset}}, nil
		}
		if p.cur().Kind == token.LPAREN {
			p.advance()
			var args []ast.Node
			if p.cur().Kind != token.RPAREN {
				for {
					a, err := p.orExpr()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if p.cur().Kind == token.COMMA {
						p.advance()
						continue
					}
					break
				}
			}
			if p.cur().Kind != token.RPAREN {
				return nil, perr.Syntax("expected ')' to close function call", p.cur().Value, locOf(p.cur()))
			}
			p.advance()
			return &ast.FunctionCall{Name: t.Value, Arguments: args, Base: ast.Base{Position: t.Offset}}, nil
		}
		return &ast.Identifier{Name: t.Value, Base: ast.Base{Position: t.Offset}}, nil
	default:
		return nil, perr.Syntax("unexpected token in expression", t.Value, locOf(t))
	}
}

func parseNumber(s string) interface{} {
	if strings.Contains(s, ".") {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	return n
}
