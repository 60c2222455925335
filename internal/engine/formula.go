package engine

import (
	"strconv"
	"strings"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
)

// Formula is a parsed numeric rule value. Content authors write small
// expressions like max(@actor.level, 2) or
// ternary(gte(@actor.system.proficiencies.defenses.light.rank, 1), 2, 1).
// Parsing happens once when the rule is parsed; evaluation walks the AST
// against the current state. Anything unrecognized evaluates to 0.
type Formula interface {
	Eval(st *State) int
}

type literal int

func (l literal) Eval(*State) int { return int(l) }

type pathRef string

func (p pathRef) Eval(st *State) int {
	return st.actorPath(string(p))
}

type call struct {
	fn   string
	args []Formula
}

func (c *call) Eval(st *State) int {
	switch c.fn {
	case "max":
		if len(c.args) == 0 {
			return 0
		}
		best := c.args[0].Eval(st)
		for _, arg := range c.args[1:] {
			if v := arg.Eval(st); v > best {
				best = v
			}
		}
		return best
	case "min":
		if len(c.args) == 0 {
			return 0
		}
		best := c.args[0].Eval(st)
		for _, arg := range c.args[1:] {
			if v := arg.Eval(st); v < best {
				best = v
			}
		}
		return best
	case "ternary":
		if len(c.args) != 3 {
			return 0
		}
		if c.args[0].Eval(st) != 0 {
			return c.args[1].Eval(st)
		}
		return c.args[2].Eval(st)
	case "gte":
		if len(c.args) != 2 {
			return 0
		}
		if c.args[0].Eval(st) >= c.args[1].Eval(st) {
			return 1
		}
		return 0
	}
	return 0
}

// actorPath resolves an @actor reference. Unknown paths are 0.
func (st *State) actorPath(path string) int {
	path = strings.TrimPrefix(path, "@actor.")
	path = strings.TrimPrefix(path, "system.")
	parts := strings.Split(path, ".")
	if len(parts) == 1 && parts[0] == "level" {
		return st.Level
	}
	if len(parts) >= 3 && parts[0] == "proficiencies" {
		switch parts[1] {
		case "defenses":
			return int(st.Derived.ArmorProficiencies[pf2e.ArmorCategory(parts[2])])
		case "attacks":
			return int(st.Derived.WeaponProficiencies[pf2e.WeaponCategory(parts[2])])
		}
	}
	return 0
}

// ParseFormula parses a formula string into an AST. Malformed input
// yields a zero-valued formula rather than an error; a bad rule must
// never abort recalculation.
func ParseFormula(src string) Formula {
	p := &formulaParser{src: strings.TrimSpace(src)}
	expr := p.parseExpr()
	p.skipSpace()
	if expr == nil || p.pos != len(p.src) {
		return literal(0)
	}
	return expr
}

type formulaParser struct {
	src string
	pos int
}

func (p *formulaParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *formulaParser) parseExpr() Formula {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil
	}

	c := p.src[p.pos]
	switch {
	case c == '@':
		return pathRef(p.readToken())
	case c == '-' || c >= '0' && c <= '9':
		token := p.readToken()
		n, err := strconv.Atoi(token)
		if err != nil {
			return nil
		}
		return literal(n)
	case isIdentStart(c):
		name := p.readIdent()
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != '(' {
			// Bare identifiers are unknown tokens.
			return literal(0)
		}
		p.pos++ // consume '('
		node := &call{fn: name}
		for {
			arg := p.parseExpr()
			if arg == nil {
				return nil
			}
			node.args = append(node.args, arg)
			p.skipSpace()
			if p.pos >= len(p.src) {
				return nil
			}
			switch p.src[p.pos] {
			case ',':
				p.pos++
			case ')':
				p.pos++
				return node
			default:
				return nil
			}
		}
	}
	return nil
}

// readToken reads up to a delimiter (comma, paren, space).
func (p *formulaParser) readToken() string {
	start := p.pos
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ',', '(', ')', ' ':
			return p.src[start:p.pos]
		}
		p.pos++
	}
	return p.src[start:]
}

func (p *formulaParser) readIdent() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}
