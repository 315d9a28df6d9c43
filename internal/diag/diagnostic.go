package diag

// Note points at a secondary block.
type Note struct {
	Block string
	Msg   string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Block    string
	Notes    []Note
}

func New(sev Severity, code Code, block, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Block:    block,
		Message:  msg,
		Notes:    nil,
	}
}

func NewError(code Code, block, msg string) Diagnostic {
	return New(SevError, code, block, msg)
}

func NewWarning(code Code, block, msg string) Diagnostic {
	return New(SevWarning, code, block, msg)
}

func (d Diagnostic) WithNote(block, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Block: block, Msg: msg})
	return d
}
