package sugarcube

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ============================================
// TOKENIZER + PARSER RICORSIVO DISCENDENTE
// ============================================
// Valuta un'espressione già normalizzata (operatori simbolici, variabili
// e funzioni già sostituite) con le precedenze standard:
//   not unario > * / % > + - > confronti > and > or

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokBool
	tokOp    // + - * / % == != > >= < <= ( )
	tokWord  // and, or, not
	tokEnd
)

type token struct {
	kind tokenKind
	text string
	num  interface{} // int o float64 per tokNumber, bool per tokBool
}

// tokenize converte l'espressione in una sequenza di token
func tokenize(expr string) ([]token, error) {
	tokens := []token{}
	runes := []rune(expr)
	i := 0

	for i < len(runes) {
		c := runes[i]

		if unicode.IsSpace(c) {
			i++
			continue
		}

		// Stringhe con quotes singole o doppie
		if c == '"' || c == '\'' {
			quote := c
			j := i + 1
			var sb strings.Builder
			closed := false
			for j < len(runes) {
				if runes[j] == '\\' && j+1 < len(runes) {
					sb.WriteRune(runes[j+1])
					j += 2
					continue
				}
				if runes[j] == quote {
					closed = true
					break
				}
				sb.WriteRune(runes[j])
				j++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string literal")
			}
			tokens = append(tokens, token{kind: tokString, text: sb.String()})
			i = j + 1
			continue
		}

		// Numeri (int o float)
		if unicode.IsDigit(c) || (c == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])) {
			j := i
			isFloat := false
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				if runes[j] == '.' {
					isFloat = true
				}
				j++
			}
			text := string(runes[i:j])
			if isFloat {
				num, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, fmt.Errorf("invalid number: %s", text)
				}
				tokens = append(tokens, token{kind: tokNumber, num: num})
			} else {
				num, err := strconv.Atoi(text)
				if err != nil {
					return nil, fmt.Errorf("invalid number: %s", text)
				}
				tokens = append(tokens, token{kind: tokNumber, num: num})
			}
			i = j
			continue
		}

		// Parole chiave: true, false, and, or, not
		if unicode.IsLetter(c) || c == '_' {
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			word := string(runes[i:j])
			switch strings.ToLower(word) {
			case "true":
				tokens = append(tokens, token{kind: tokBool, num: true})
			case "false":
				tokens = append(tokens, token{kind: tokBool, num: false})
			case "and", "or", "not":
				tokens = append(tokens, token{kind: tokWord, text: strings.ToLower(word)})
			default:
				return nil, fmt.Errorf("unexpected identifier: %s", word)
			}
			i = j
			continue
		}

		// Operatori a due caratteri
		if i+1 < len(runes) {
			two := string(runes[i : i+2])
			switch two {
			case "==", "!=", ">=", "<=":
				tokens = append(tokens, token{kind: tokOp, text: two})
				i += 2
				continue
			}
		}

		// Operatori a un carattere
		switch c {
		case '+', '-', '*', '/', '%', '>', '<', '(', ')':
			tokens = append(tokens, token{kind: tokOp, text: string(c)})
			i++
			continue
		}

		return nil, fmt.Errorf("unexpected character: %q", c)
	}

	tokens = append(tokens, token{kind: tokEnd})
	return tokens, nil
}

// exprParser valuta i token con precedenze standard
type exprParser struct {
	tokens []token
	pos    int
}

// evalExpression valuta l'espressione normalizzata in un valore tipizzato
func evalExpression(expr string) (interface{}, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}

	// Un'espressione vuota (es. una variabile non risolta da sola)
	// vale stringa vuota: è il default del linguaggio, non un errore
	if tokens[0].kind == tokEnd {
		return "", nil
	}

	p := &exprParser{tokens: tokens}
	result, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current().kind != tokEnd {
		return nil, fmt.Errorf("unexpected token after expression")
	}
	return result, nil
}

func (p *exprParser) current() token {
	return p.tokens[p.pos]
}

func (p *exprParser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEnd {
		p.pos++
	}
	return tok
}

// parseOr: livello più basso di precedenza
func (p *exprParser) parseOr() (interface{}, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current().kind == tokWord && p.current().text == "or" {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = toBool(left) || toBool(right)
	}
	return left, nil
}

func (p *exprParser) parseAnd() (interface{}, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.current().kind == tokWord && p.current().text == "and" {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = toBool(left) && toBool(right)
	}
	return left, nil
}

func (p *exprParser) parseComparison() (interface{}, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.current().kind == tokOp {
		op := p.current().text
		if op != "==" && op != "!=" && op != ">" && op != ">=" && op != "<" && op != "<=" {
			break
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left, err = compareValues(left, right, op)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *exprParser) parseAdditive() (interface{}, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.current().kind == tokOp && (p.current().text == "+" || p.current().text == "-") {
		op := p.advance().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		if op == "+" {
			left, err = addValues(left, right)
		} else {
			left, err = arithmetic(left, right, "-")
		}
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *exprParser) parseMultiplicative() (interface{}, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.current().kind == tokOp {
		op := p.current().text
		if op != "*" && op != "/" && op != "%" {
			break
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left, err = arithmetic(left, right, op)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *exprParser) parseUnary() (interface{}, error) {
	tok := p.current()

	if tok.kind == tokWord && tok.text == "not" {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return !toBool(operand), nil
	}

	if tok.kind == tokOp && tok.text == "-" {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		switch v := operand.(type) {
		case int:
			return -v, nil
		case float64:
			return -v, nil
		}
		return nil, fmt.Errorf("unary minus on non-numeric value")
	}

	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (interface{}, error) {
	tok := p.current()

	switch tok.kind {
	case tokNumber, tokBool:
		p.advance()
		return tok.num, nil
	case tokString:
		p.advance()
		return tok.text, nil
	case tokOp:
		if tok.text == "(" {
			p.advance()
			inner, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if p.current().kind != tokOp || p.current().text != ")" {
				return nil, fmt.Errorf("missing closing parenthesis")
			}
			p.advance()
			return inner, nil
		}
	}

	return nil, fmt.Errorf("unexpected token in expression")
}

// ============================================
// OPERAZIONI SUI VALORI
// ============================================

// addValues gestisce sia la somma numerica che la concatenazione di stringhe.
// Stringa + numero coercizza il numero alla sua forma stampata.
func addValues(left, right interface{}) (interface{}, error) {
	if ls, ok := left.(string); ok {
		return ls + FormatValue(right), nil
	}
	if rs, ok := right.(string); ok {
		return FormatValue(left) + rs, nil
	}
	return arithmetic(left, right, "+")
}

// arithmetic esegue un'operazione aritmetica su due valori numerici.
// Due int producono un int (tranne la divisione non esatta, che produce float).
func arithmetic(left, right interface{}, op string) (interface{}, error) {
	li, lIsInt := left.(int)
	ri, rIsInt := right.(int)

	if lIsInt && rIsInt {
		switch op {
		case "+":
			return li + ri, nil
		case "-":
			return li - ri, nil
		case "*":
			return li * ri, nil
		case "%":
			if ri == 0 {
				return nil, fmt.Errorf("modulo by zero")
			}
			return li % ri, nil
		case "/":
			if ri == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			if li%ri == 0 {
				return li / ri, nil
			}
			return float64(li) / float64(ri), nil
		}
	}

	lf, lok := toNumber(left)
	rf, rok := toNumber(right)
	if !lok || !rok {
		return nil, fmt.Errorf("arithmetic on non-numeric value")
	}

	switch op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return lf / rf, nil
	case "%":
		if rf == 0 {
			return nil, fmt.Errorf("modulo by zero")
		}
		return math.Mod(lf, rf), nil
	}

	return nil, fmt.Errorf("unknown operator: %s", op)
}

// compareValues confronta due valori con l'operatore dato
func compareValues(left, right interface{}, op string) (bool, error) {
	switch op {
	case "==":
		return valuesEqual(left, right), nil
	case "!=":
		return !valuesEqual(left, right), nil
	}

	// Ordinamento: numeri tra loro, stringhe tra loro
	lf, lok := toNumber(left)
	rf, rok := toNumber(right)
	if lok && rok {
		switch op {
		case ">":
			return lf > rf, nil
		case ">=":
			return lf >= rf, nil
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		}
	}

	ls, lIsStr := left.(string)
	rs, rIsStr := right.(string)
	if lIsStr && rIsStr {
		switch op {
		case ">":
			return ls > rs, nil
		case ">=":
			return ls >= rs, nil
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		}
	}

	return false, fmt.Errorf("cannot compare values of different types")
}

// valuesEqual verifica l'uguaglianza tra valori tipizzati.
// Int e float si confrontano numericamente, tipi diversi non sono mai uguali.
func valuesEqual(left, right interface{}) bool {
	lf, lok := toNumber(left)
	rf, rok := toNumber(right)
	if lok && rok {
		return lf == rf
	}
	return left == right
}
