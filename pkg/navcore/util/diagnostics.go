package util

import "fmt"

// Stage identifies which pipeline or repository stage raised a Diagnostic.
type Stage string

const (
	StageLexer   Stage = "Lexer"
	StageParse   Stage = "Parse"
	StageResolve Stage = "Resolve"
	StageExpand  Stage = "Expand"
	StageCalc    Stage = "Calc"
	StageData    Stage = "Data"
	StageCache   Stage = "Cache"
)

// Kind is the closed taxonomy of error kinds a pipeline stage can raise.
type Kind string

const (
	KindLexerError   Kind = "LexerError"
	KindParseError   Kind = "ParseError"
	KindResolveError Kind = "ResolveError"
	KindExpandError  Kind = "ExpandError"
	KindCalcError    Kind = "CalcError"
	KindDataError    Kind = "DataError"
	KindCacheError   Kind = "CacheError"
)

// Diagnostic is the non-fatal diagnostic shape emitted by every stage.
type Diagnostic struct {
	Stage   Stage
	Kind    Kind
	Code    string
	Message string
	Token   *string
}

func (d Diagnostic) String() string {
	if d.Token != nil {
		return fmt.Sprintf("[%s/%s] %s: %s (token=%q)", d.Stage, d.Kind, d.Code, d.Message, *d.Token)
	}
	return fmt.Sprintf("[%s/%s] %s: %s", d.Stage, d.Kind, d.Code, d.Message)
}

// Diagnostics accumulates non-fatal Diagnostic values across pipeline
// stages. Unlike mmp-vice's util.ErrorLogger (which is used for fatal
// validation failures reported all at once), Diagnostics is designed to be
// threaded through the whole route pipeline and surfaced on the final
// plan: non-fatal by default, letting a stage keep going past a single
// bad token or unresolved identifier.
type Diagnostics struct {
	entries []Diagnostic
}

func (d *Diagnostics) Add(stage Stage, kind Kind, code, message string, token *string) {
	d.entries = append(d.entries, Diagnostic{Stage: stage, Kind: kind, Code: code, Message: message, Token: token})
}

func (d *Diagnostics) Addf(stage Stage, kind Kind, code string, token *string, format string, args ...any) {
	d.Add(stage, kind, code, fmt.Sprintf(format, args...), token)
}

func (d *Diagnostics) Merge(other Diagnostics) {
	d.entries = append(d.entries, other.entries...)
}

func (d Diagnostics) HaveErrors() bool {
	return len(d.entries) > 0
}

func (d Diagnostics) All() []Diagnostic {
	return DuplicateSlice(d.entries)
}

func (d Diagnostics) OfKind(k Kind) []Diagnostic {
	return FilterSlice(d.entries, func(diag Diagnostic) bool { return diag.Kind == k })
}
