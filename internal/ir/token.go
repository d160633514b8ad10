package ir

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	Identifier Kind = iota
	Number
	String
	Arithmetic
	Negate
	Assign
	Compare
	Branch
	Write
	Read
	Placeholder
)

func (k Kind) String() string {
	switch k {
	case Identifier:
		return "IDENT"
	case Number:
		return "NUMBER"
	case String:
		return "STRING"
	case Arithmetic:
		return "ARITH"
	case Negate:
		return "NEGATE"
	case Assign:
		return "ASSIGN"
	case Compare:
		return "COMPARE"
	case Branch:
		return "BRANCH"
	case Write:
		return "WRITE"
	case Read:
		return "READ"
	case Placeholder:
		return "PLACEHOLDER"
	default:
		return "UNKNOWN"
	}
}

type ArithOp int

const (
	Add ArithOp = iota
	Sub
	Mul
	Div
)

func (op ArithOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	default:
		return "?"
	}
}

type BranchKind int

const (
	BranchLE BranchKind = iota
	BranchGE
	BranchLT
	BranchGT
	BranchEQ
	BranchNE
	BranchAlways
)

// BranchKinds lists every branch kind. Code generators use it to check that
// their jump tables are complete.
var BranchKinds = []BranchKind{BranchLE, BranchGE, BranchLT, BranchGT, BranchEQ, BranchNE, BranchAlways}

func (b BranchKind) String() string {
	switch b {
	case BranchLE:
		return "BLE"
	case BranchGE:
		return "BGE"
	case BranchLT:
		return "BLT"
	case BranchGT:
		return "BGT"
	case BranchEQ:
		return "BEQ"
	case BranchNE:
		return "BNE"
	case BranchAlways:
		return "BI"
	default:
		return fmt.Sprintf("B?%d", int(b))
	}
}

const (
	AssignText      = ":="
	CompareText     = "CMP"
	WriteText       = "WRITE"
	ReadText        = "READ"
	NegateText      = "NEG"
	PlaceholderText = "_PLHDR"
)

var reserved = map[string]Token{
	"+":             {Kind: Arithmetic, Op: Add},
	"-":             {Kind: Arithmetic, Op: Sub},
	"*":             {Kind: Arithmetic, Op: Mul},
	"/":             {Kind: Arithmetic, Op: Div},
	NegateText:      {Kind: Negate},
	AssignText:      {Kind: Assign},
	CompareText:     {Kind: Compare},
	WriteText:       {Kind: Write},
	ReadText:        {Kind: Read},
	PlaceholderText: {Kind: Placeholder},
	"BLE":           {Kind: Branch, Cond: BranchLE},
	"BGE":           {Kind: Branch, Cond: BranchGE},
	"BLT":           {Kind: Branch, Cond: BranchLT},
	"BGT":           {Kind: Branch, Cond: BranchGT},
	"BEQ":           {Kind: Branch, Cond: BranchEQ},
	"BNE":           {Kind: Branch, Cond: BranchNE},
	"BI":            {Kind: Branch, Cond: BranchAlways},
}

// Token is a single element of an RPN program.
// Text is only meaningful for identifiers, numbers and strings. Strings keep
// their surrounding quotes. In listings a quote inside a string is doubled.
type Token struct {
	Kind Kind
	Text string
	Op   ArithOp
	Cond BranchKind
}

func Ident(name string) Token {
	return Token{Kind: Identifier, Text: name}
}

func Num(text string) Token {
	return Token{Kind: Number, Text: text}
}

// Str builds a string literal token. The argument is the literal content
// without quotes.
func Str(content string) Token {
	return Token{Kind: String, Text: `"` + content + `"`}
}

func Arith(op ArithOp) Token {
	return Token{Kind: Arithmetic, Op: op}
}

func Jump(cond BranchKind) Token {
	return Token{Kind: Branch, Cond: cond}
}

// Index builds the destination token that follows a branch.
func Index(target int) Token {
	return Token{Kind: Number, Text: strconv.Itoa(target)}
}

var (
	AssignToken      = Token{Kind: Assign}
	CompareToken     = Token{Kind: Compare}
	WriteToken       = Token{Kind: Write}
	ReadToken        = Token{Kind: Read}
	NegateToken      = Token{Kind: Negate}
	PlaceholderToken = Token{Kind: Placeholder}
)

func (t Token) String() string {
	switch t.Kind {
	case Identifier, Number:
		return t.Text
	case String:
		return `"` + strings.ReplaceAll(t.Content(), `"`, `""`) + `"`
	case Arithmetic:
		return t.Op.String()
	case Negate:
		return NegateText
	case Assign:
		return AssignText
	case Compare:
		return CompareText
	case Branch:
		return t.Cond.String()
	case Write:
		return WriteText
	case Read:
		return ReadText
	case Placeholder:
		return PlaceholderText
	}
	return fmt.Sprintf("<%s>", t.Kind)
}

// IsOperand reports whether the token pushes a value when evaluated.
func (t Token) IsOperand() bool {
	return t.Kind == Identifier || t.Kind == Number || t.Kind == String
}

// Destination interprets the token as a jump destination. Only a number made
// of decimal digits qualifies.
func (t Token) Destination() (int, bool) {
	if t.Kind != Number || t.Text == "" {
		return 0, false
	}
	for _, r := range t.Text {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(t.Text)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Content returns a string literal's text without the surrounding quotes.
func (t Token) Content() string {
	s := t.Text
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

// ParseToken classifies the textual form of a token. Only the literal shapes
// are inspected here, everything downstream works with Kind.
func ParseToken(text string) (Token, error) {
	if text == "" {
		return Token{}, fmt.Errorf("empty token")
	}
	if tok, ok := reserved[text]; ok {
		return tok, nil
	}
	if strings.HasPrefix(text, `"`) {
		content, err := unquote(text)
		if err != nil {
			return Token{}, err
		}
		return Str(content), nil
	}
	if IsNumberLiteral(text) {
		return Num(text), nil
	}
	return Ident(text), nil
}

// IsNumberLiteral accepts an optional leading minus followed by digits with at
// most one decimal point and at least one digit overall.
func IsNumberLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	digits := 0
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// unquote reverses Token.String for string literals: strips the outer quotes
// and turns every doubled quote back into one.
func unquote(text string) (string, error) {
	if len(text) < 2 || !strings.HasSuffix(text, `"`) {
		return "", fmt.Errorf("unterminated string literal %s", text)
	}
	inner := text[1 : len(text)-1]
	var sb strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '"' {
			if i+1 >= len(inner) || inner[i+1] != '"' {
				return "", fmt.Errorf("unescaped quote in string literal %s", text)
			}
			i++
		}
		sb.WriteByte(inner[i])
	}
	return sb.String(), nil
}
