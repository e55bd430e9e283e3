package tl

import (
	"fmt"
	"strings"
)

// SyntaxError reports a formula that does not fit the grammar.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

// UnknownPrimitiveError reports a NAME that is neither a known predicate nor
// a known action.
type UnknownPrimitiveError struct {
	Token string
	Pos   int
}

func (e *UnknownPrimitiveError) Error() string {
	return fmt.Sprintf("unknown primitive %q at offset %d", e.Token, e.Pos)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "then": true,
	"until": true, "always": true, "eventually": true, "implies": true,
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// lex splits src into tokens. Identifiers may carry one dotted suffix
// (apple.12); anything else outside the token set is an error.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++
		case isIdentChar(c):
			start := i
			for i < len(src) && isIdentChar(src[i]) {
				i++
			}
			if i < len(src) && src[i] == '.' {
				i++
				segStart := i
				for i < len(src) && isIdentChar(src[i]) {
					i++
				}
				if i == segStart {
					return nil, &SyntaxError{Pos: start, Msg: fmt.Sprintf("malformed reference %q", src[start:i])}
				}
				if i < len(src) && src[i] == '.' {
					return nil, &SyntaxError{Pos: start, Msg: fmt.Sprintf("malformed reference %q", src[start:i+1])}
				}
			}
			toks = append(toks, token{tokIdent, src[start:i], start})
		default:
			return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	toks = append(toks, token{tokEOF, "", len(src)})
	return toks, nil
}

// Parser parses formulas over a fixed set of terminals.
type Parser struct {
	predicates map[string]bool
	actions    map[string]bool
}

// NewParser creates a parser whose primitives are the given predicate and
// action names.
func NewParser(predicates, actions []string) *Parser {
	p := &Parser{
		predicates: make(map[string]bool, len(predicates)),
		actions:    make(map[string]bool, len(actions)),
	}
	for _, name := range predicates {
		p.predicates[name] = true
	}
	for _, name := range actions {
		p.actions[name] = true
	}
	return p
}

// Parse is a convenience wrapper around NewParser(...).Parse(src).
func Parse(src string, predicates, actions []string) (Expr, error) {
	return NewParser(predicates, actions).Parse(src)
}

// Parse parses one formula.
func (p *Parser) Parse(src string) (Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &SyntaxError{Pos: 0, Msg: "empty formula"}
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	st := &state{parser: p, toks: toks}
	e, err := st.parseImplies()
	if err != nil {
		return nil, err
	}
	if tok := st.peek(); tok.kind != tokEOF {
		return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %q", tok.text)}
	}
	return e, nil
}

type state struct {
	parser *Parser
	toks   []token
	pos    int
}

func (s *state) peek() token { return s.toks[s.pos] }

func (s *state) next() token {
	t := s.toks[s.pos]
	if t.kind != tokEOF {
		s.pos++
	}
	return t
}

func (s *state) atKeyword(kw string) bool {
	t := s.peek()
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (s *state) parseImplies() (Expr, error) {
	left, err := s.parseThen()
	if err != nil {
		return nil, err
	}
	if !s.atKeyword("implies") {
		return left, nil
	}
	s.next()
	right, err := s.parseImplies()
	if err != nil {
		return nil, err
	}
	return &Implies{Antecedent: left, Consequent: right}, nil
}

func (s *state) parseThen() (Expr, error) {
	first, err := s.parseUntil()
	if err != nil {
		return nil, err
	}
	steps := []Expr{first}
	for s.atKeyword("then") {
		s.next()
		e, err := s.parseUntil()
		if err != nil {
			return nil, err
		}
		steps = append(steps, e)
	}
	if len(steps) == 1 {
		return first, nil
	}
	return &Then{Steps: steps}, nil
}

func (s *state) parseUntil() (Expr, error) {
	left, err := s.parseOr()
	if err != nil {
		return nil, err
	}
	if !s.atKeyword("until") {
		return left, nil
	}
	s.next()
	right, err := s.parseOr()
	if err != nil {
		return nil, err
	}
	return &Until{Left: left, Right: right}, nil
}

func (s *state) parseOr() (Expr, error) {
	first, err := s.parseAnd()
	if err != nil {
		return nil, err
	}
	ops := []Expr{first}
	for s.atKeyword("or") {
		s.next()
		e, err := s.parseAnd()
		if err != nil {
			return nil, err
		}
		ops = append(ops, e)
	}
	if len(ops) == 1 {
		return first, nil
	}
	return &Or{Operands: ops}, nil
}

func (s *state) parseAnd() (Expr, error) {
	first, err := s.parseUnary()
	if err != nil {
		return nil, err
	}
	ops := []Expr{first}
	for s.atKeyword("and") {
		s.next()
		e, err := s.parseUnary()
		if err != nil {
			return nil, err
		}
		ops = append(ops, e)
	}
	if len(ops) == 1 {
		return first, nil
	}
	return &And{Operands: ops}, nil
}

func (s *state) parseUnary() (Expr, error) {
	switch {
	case s.atKeyword("not"):
		s.next()
		x, err := s.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{X: x}, nil
	case s.atKeyword("always"):
		s.next()
		x, err := s.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Always{X: x}, nil
	case s.atKeyword("eventually"):
		s.next()
		x, err := s.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Eventually{X: x}, nil
	}
	return s.parsePrimary()
}

func (s *state) parsePrimary() (Expr, error) {
	tok := s.next()
	switch tok.kind {
	case tokLParen:
		e, err := s.parseImplies()
		if err != nil {
			return nil, err
		}
		if closing := s.next(); closing.kind != tokRParen {
			return nil, &SyntaxError{Pos: closing.pos, Msg: "expected ')'"}
		}
		return e, nil
	case tokIdent:
		if keywords[strings.ToLower(tok.text)] {
			return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected keyword %q", tok.text)}
		}
		return s.parseApplication(tok)
	case tokEOF:
		return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected end of formula"}
	default:
		return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %q", tok.text)}
	}
}

// isPrimitiveName reports whether a bare token is spelled like a primitive:
// upper case letters, digits and underscores, starting with a letter.
func isPrimitiveName(text string) bool {
	if text == "" || text[0] < 'A' || text[0] > 'Z' {
		return false
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}

func (s *state) parseApplication(name token) (Expr, error) {
	isPred := s.parser.predicates[name.text]
	isAction := s.parser.actions[name.text]
	hasArgs := s.peek().kind == tokLParen

	if !isPred && !isAction {
		if !hasArgs && !isPrimitiveName(name.text) {
			return nil, &SyntaxError{Pos: name.pos, Msg: fmt.Sprintf("expected predicate or action, got %q", name.text)}
		}
		return nil, &UnknownPrimitiveError{Token: name.text, Pos: name.pos}
	}
	var args []Ref
	if hasArgs {
		s.next()
		if s.peek().kind == tokRParen {
			s.next()
		} else {
			for {
				arg := s.next()
				if arg.kind != tokIdent || keywords[strings.ToLower(arg.text)] {
					return nil, &SyntaxError{Pos: arg.pos, Msg: fmt.Sprintf("expected object reference, got %q", arg.text)}
				}
				args = append(args, ParseRef(arg.text))
				sep := s.next()
				if sep.kind == tokRParen {
					break
				}
				if sep.kind != tokComma {
					return nil, &SyntaxError{Pos: sep.pos, Msg: "expected ',' or ')'"}
				}
			}
		}
	}

	// A name in both sets is read as a predicate.
	if isPred {
		return &Predicate{Name: name.text, Args: args}, nil
	}
	return &Action{Name: name.text, Args: args}, nil
}
