// Package parser builds an ast.Program from Datalog source by recursive
// descent over the token stream. Grammar errors and semantic violations are
// returned as errors tagged with the source line, never panics.
package parser

import (
	"fmt"

	"strata/internal/ast"
	"strata/internal/lexer"
)

// Parse tokenizes src, parses it, and validates predicate declarations.
func Parse(src string) (*ast.Program, error) {
	p := New(lexer.Tokenize(src))
	prog, err := p.Program()
	if err != nil {
		return nil, err
	}
	if err := Validate(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// Parser consumes a token slice produced by lexer.Tokenize.
type Parser struct {
	toks []lexer.Token
	pos  int
}

func New(toks []lexer.Token) *Parser {
	return &Parser{toks: toks}
}

func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return tok
}

func describe(tok lexer.Token) string {
	if tok.Kind == lexer.EOF {
		return "end of input"
	}
	return "'" + tok.Text + "'"
}

func (p *Parser) expect(kind lexer.Kind) (lexer.Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return tok, fmt.Errorf("line %d: expected %s, found %s", tok.Line, kind, describe(tok))
	}
	return p.advance(), nil
}

// Program parses the four mandatory sections in order.
func (p *Parser) Program() (*ast.Program, error) {
	prog := &ast.Program{}

	if _, err := p.expect(lexer.Schemes); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return nil, err
	}
	// At least one scheme.
	s, err := p.scheme()
	if err != nil {
		return nil, err
	}
	prog.Schemes = append(prog.Schemes, s)
	for p.peek().Kind == lexer.Ident {
		s, err := p.scheme()
		if err != nil {
			return nil, err
		}
		prog.Schemes = append(prog.Schemes, s)
	}

	if _, err := p.expect(lexer.Facts); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return nil, err
	}
	for p.peek().Kind == lexer.Ident {
		f, err := p.fact()
		if err != nil {
			return nil, err
		}
		prog.Facts = append(prog.Facts, f)
	}

	if _, err := p.expect(lexer.Rules); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return nil, err
	}
	for p.peek().Kind == lexer.Ident {
		r, err := p.rule()
		if err != nil {
			return nil, err
		}
		r.ID = len(prog.Rules)
		prog.Rules = append(prog.Rules, r)
	}

	if _, err := p.expect(lexer.Queries); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return nil, err
	}
	// At least one query.
	q, err := p.query()
	if err != nil {
		return nil, err
	}
	prog.Queries = append(prog.Queries, q)
	for p.peek().Kind == lexer.Ident {
		q, err := p.query()
		if err != nil {
			return nil, err
		}
		prog.Queries = append(prog.Queries, q)
	}

	if _, err := p.expect(lexer.EOF); err != nil {
		return nil, err
	}
	return prog, nil
}

// scheme := ID '(' ID idList ')'
func (p *Parser) scheme() (ast.Scheme, error) {
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return ast.Scheme{}, err
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return ast.Scheme{}, err
	}
	attr, err := p.expect(lexer.Ident)
	if err != nil {
		return ast.Scheme{}, err
	}
	attrs := []string{attr.Text}
	for p.peek().Kind == lexer.Comma {
		p.advance()
		attr, err := p.expect(lexer.Ident)
		if err != nil {
			return ast.Scheme{}, err
		}
		attrs = append(attrs, attr.Text)
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return ast.Scheme{}, err
	}
	return ast.Scheme{
		Pred:  ast.PredicateSym{Name: name.Text, Arity: len(attrs)},
		Attrs: attrs,
	}, nil
}

// fact := ID '(' STRING stringList ')' '.'
func (p *Parser) fact() (ast.Fact, error) {
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return ast.Fact{}, err
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return ast.Fact{}, err
	}
	val, err := p.expect(lexer.Str)
	if err != nil {
		return ast.Fact{}, err
	}
	values := []string{val.Text}
	for p.peek().Kind == lexer.Comma {
		p.advance()
		val, err := p.expect(lexer.Str)
		if err != nil {
			return ast.Fact{}, err
		}
		values = append(values, val.Text)
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return ast.Fact{}, err
	}
	if _, err := p.expect(lexer.Period); err != nil {
		return ast.Fact{}, err
	}
	return ast.Fact{
		Pred:   ast.PredicateSym{Name: name.Text, Arity: len(values)},
		Values: values,
	}, nil
}

// rule := predicate ':-' predicate predicateList '.'
func (p *Parser) rule() (ast.Rule, error) {
	head, err := p.predicate()
	if err != nil {
		return ast.Rule{}, err
	}
	if _, err := p.expect(lexer.ColonDash); err != nil {
		return ast.Rule{}, err
	}
	body, err := p.predicate()
	if err != nil {
		return ast.Rule{}, err
	}
	atoms := []ast.Atom{body}
	for p.peek().Kind == lexer.Comma {
		p.advance()
		body, err := p.predicate()
		if err != nil {
			return ast.Rule{}, err
		}
		atoms = append(atoms, body)
	}
	if _, err := p.expect(lexer.Period); err != nil {
		return ast.Rule{}, err
	}
	return ast.Rule{Head: head, Body: atoms}, nil
}

// query := predicate '?'
func (p *Parser) query() (ast.Query, error) {
	atom, err := p.predicate()
	if err != nil {
		return ast.Query{}, err
	}
	if _, err := p.expect(lexer.Question); err != nil {
		return ast.Query{}, err
	}
	return ast.Query{Atom: atom}, nil
}

// predicate := ID '(' parameter parameterList ')'
func (p *Parser) predicate() (ast.Atom, error) {
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return ast.Atom{}, err
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return ast.Atom{}, err
	}
	arg, err := p.parameter()
	if err != nil {
		return ast.Atom{}, err
	}
	args := []ast.Term{arg}
	for p.peek().Kind == lexer.Comma {
		p.advance()
		arg, err := p.parameter()
		if err != nil {
			return ast.Atom{}, err
		}
		args = append(args, arg)
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return ast.Atom{}, err
	}
	return ast.Atom{
		Pred: ast.PredicateSym{Name: name.Text, Arity: len(args)},
		Args: args,
	}, nil
}

// parameter := STRING | ID
func (p *Parser) parameter() (ast.Term, error) {
	tok := p.peek()
	switch tok.Kind {
	case lexer.Str:
		p.advance()
		return ast.NewConstant(tok.Text), nil
	case lexer.Ident:
		p.advance()
		return ast.NewVariable(tok.Text), nil
	}
	return ast.Term{}, fmt.Errorf("line %d: expected identifier or string, found %s", tok.Line, describe(tok))
}

// ParseQuery parses a single standalone query such as "anc('a',X)?". Used by
// the interactive loop for ad-hoc queries against an already loaded program.
func ParseQuery(src string) (ast.Query, error) {
	p := New(lexer.Tokenize(src))
	q, err := p.query()
	if err != nil {
		return ast.Query{}, err
	}
	if _, err := p.expect(lexer.EOF); err != nil {
		return ast.Query{}, err
	}
	return q, nil
}
