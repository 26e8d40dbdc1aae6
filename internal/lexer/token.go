package lexer

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Comma
	Period
	Question
	LParen
	RParen
	Colon
	ColonDash
	Schemes
	Facts
	Rules
	Queries
	Ident
	Str
	Undefined
)

// String returns the form used in parser diagnostics, quoted literals for
// punctuation and plain descriptions for token classes.
func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Comma:
		return "','"
	case Period:
		return "'.'"
	case Question:
		return "'?'"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case Colon:
		return "':'"
	case ColonDash:
		return "':-'"
	case Schemes:
		return "'Schemes'"
	case Facts:
		return "'Facts'"
	case Rules:
		return "'Rules'"
	case Queries:
		return "'Queries'"
	case Ident:
		return "identifier"
	case Str:
		return "string"
	case Undefined:
		return "undefined token"
	}
	return "unknown"
}

// Token is a lexeme with its 1-based source line.
type Token struct {
	Kind Kind
	Text string
	Line int
}

var keywords = map[string]Kind{
	"Schemes": Schemes,
	"Facts":   Facts,
	"Rules":   Rules,
	"Queries": Queries,
}
