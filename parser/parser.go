// Package parser turns proto3 source text into an ast.File by
// recursive descent over package lexer's token stream. Grounded on
// bufbuild/protocompile's parser package and jhump/protoreflect's
// desc/protoparse.Parser: same two-stage shape (lex, then
// recursive-descent over tokens), no external grammar engine.
package parser

import (
	"fmt"
	"strings"

	"github.com/axonops/protolens/ast"
	"github.com/axonops/protolens/lexer"
)

// ScalarTypes is the proto3 scalar keyword set (spec.md §3), for
// telling a scalar field apart from a message/enum type reference.
// Package compiler does not use it; its scalarKinds table has the same
// keys.
var ScalarTypes = map[string]bool{
	"double": true, "float": true, "int32": true, "int64": true,
	"uint32": true, "uint64": true, "sint32": true, "sint64": true,
	"fixed32": true, "fixed64": true, "sfixed32": true, "sfixed64": true,
	"bool": true, "string": true, "bytes": true,
}

// Error is a grammar failure. spec.md §4.1: no partial AST is returned
// for a failing file.
type Error struct {
	File     string
	Offset   int
	Line     int
	Col      int
	Expected string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: expected %s", e.File, e.Line, e.Col, e.Expected)
}

type parser struct {
	file string
	lex  *lexer.Lexer
	cur  lexer.Token
}

// Parse parses a single proto3 source string into an ast.File. name is
// attributed to AST positions and error messages; it need not be a real
// filesystem path.
func Parse(name, src string) (*ast.File, error) {
	p := &parser{file: name, lex: lexer.New(name, src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseFile()
}

func (p *parser) advance() error {
	tok, lerr := p.lex.Next()
	if lerr != nil {
		return &Error{File: p.file, Offset: lerr.Pos.Offset, Line: lerr.Pos.Line, Col: lerr.Pos.Col, Expected: lerr.Message}
	}
	p.cur = tok
	return nil
}

func (p *parser) errf(expected string) *Error {
	return &Error{
		File:     p.file,
		Offset:   p.cur.Pos.Offset,
		Line:     p.cur.Pos.Line,
		Col:      p.cur.Pos.Col,
		Expected: expected,
	}
}

func (p *parser) pos() ast.Position { return p.cur.Pos }

func (p *parser) isSymbol(s string) bool {
	return p.cur.Kind == lexer.Symbol && p.cur.Text == s
}

func (p *parser) isIdent(s string) bool {
	return p.cur.Kind == lexer.Ident && p.cur.Text == s
}

func (p *parser) expectSymbol(s string) error {
	if !p.isSymbol(s) {
		return p.errf("'" + s + "'")
	}
	return p.advance()
}

// optSymbol consumes s if present and reports whether it did.
func (p *parser) optSymbol(s string) (bool, error) {
	if p.isSymbol(s) {
		if err := p.advance(); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (p *parser) expectIdentText(s string) error {
	if !p.isIdent(s) {
		return p.errf("'" + s + "'")
	}
	return p.advance()
}

func (p *parser) expectIdent() (string, ast.Position, error) {
	if p.cur.Kind != lexer.Ident {
		return "", ast.Position{}, p.errf("identifier")
	}
	text, pos := p.cur.Text, p.cur.Pos
	if err := p.advance(); err != nil {
		return "", ast.Position{}, err
	}
	return text, pos, nil
}

func (p *parser) expectString() (string, error) {
	if p.cur.Kind != lexer.String {
		return "", p.errf("string literal")
	}
	s := p.cur.Text
	return s, p.advance()
}

// fullIdent := ident ( '.' ident )*, with an optional leading '.' for
// an absolute reference (spec.md §4.2).
func (p *parser) fullIdent() (string, error) {
	var sb strings.Builder
	if ok, err := p.optSymbol("."); err != nil {
		return "", err
	} else if ok {
		sb.WriteByte('.')
	}
	name, _, err := p.expectIdent()
	if err != nil {
		return "", err
	}
	sb.WriteString(name)
	for p.isSymbol(".") {
		if err := p.advance(); err != nil {
			return "", err
		}
		name, _, err := p.expectIdent()
		if err != nil {
			return "", err
		}
		sb.WriteByte('.')
		sb.WriteString(name)
	}
	return sb.String(), nil
}

func (p *parser) intLiteral() (int64, error) {
	neg := false
	if p.isSymbol("-") {
		neg = true
		if err := p.advance(); err != nil {
			return 0, err
		}
	}
	if p.cur.Kind != lexer.Int {
		return 0, p.errf("integer literal")
	}
	v := p.cur.Int
	if err := p.advance(); err != nil {
		return 0, err
	}
	if neg {
		v = -v
	}
	return v, nil
}

func (p *parser) parseFile() (*ast.File, error) {
	f := &ast.File{Name: p.file}

	if p.isIdent("syntax") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectSymbol("="); err != nil {
			return nil, err
		}
		syn, err := p.expectString()
		if err != nil {
			return nil, err
		}
		if syn != "proto3" {
			return nil, &Error{File: p.file, Offset: p.cur.Pos.Offset, Line: p.cur.Pos.Line, Col: p.cur.Pos.Col, Expected: `"proto3"`}
		}
		f.Syntax = syn
		if err := p.expectSymbol(";"); err != nil {
			return nil, err
		}
	} else {
		f.Syntax = "proto3"
	}

	for p.cur.Kind != lexer.EOF {
		if err := p.parseTopLevel(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (p *parser) parseTopLevel(f *ast.File) error {
	switch {
	case p.isSymbol(";"):
		return p.advance()
	case p.isIdent("import"):
		return p.parseImport(f)
	case p.isIdent("package"):
		return p.parsePackage(f)
	case p.isIdent("option"):
		opt, err := p.parseOptionStatement()
		if err != nil {
			return err
		}
		f.Options = append(f.Options, opt)
		return nil
	case p.isIdent("message"):
		m, err := p.parseMessage()
		if err != nil {
			return err
		}
		f.Messages = append(f.Messages, m)
		return nil
	case p.isIdent("enum"):
		e, err := p.parseEnum()
		if err != nil {
			return err
		}
		f.Enums = append(f.Enums, e)
		return nil
	case p.isIdent("service"):
		s, err := p.parseService()
		if err != nil {
			return err
		}
		f.Services = append(f.Services, s)
		return nil
	case p.isIdent("extend"):
		return p.skipExtend()
	default:
		return p.errf("'message', 'enum', 'service', 'import', 'package' or 'option'")
	}
}

func (p *parser) parseImport(f *ast.File) error {
	pos := p.pos()
	if err := p.advance(); err != nil {
		return err
	}
	imp := ast.Import{Pos: pos}
	if p.isIdent("public") {
		imp.Public = true
		if err := p.advance(); err != nil {
			return err
		}
	} else if p.isIdent("weak") {
		imp.Weak = true
		if err := p.advance(); err != nil {
			return err
		}
	}
	path, err := p.expectString()
	if err != nil {
		return err
	}
	imp.Path = path
	f.Imports = append(f.Imports, imp)
	return p.expectSymbol(";")
}

func (p *parser) parsePackage(f *ast.File) error {
	if err := p.advance(); err != nil {
		return err
	}
	name, err := p.fullIdent()
	if err != nil {
		return err
	}
	f.Package = name
	return p.expectSymbol(";")
}

// parseOptionStatement parses `option name = value ;` used at file,
// message, enum, oneof and service scope.
func (p *parser) parseOptionStatement() (ast.Option, error) {
	if err := p.advance(); err != nil { // consume 'option'
		return ast.Option{}, err
	}
	return p.parseOptionNameAndValue()
}

func (p *parser) parseOptionNameAndValue() (ast.Option, error) {
	pos := p.pos()
	name, err := p.optionName()
	if err != nil {
		return ast.Option{}, err
	}
	if err := p.expectSymbol("="); err != nil {
		return ast.Option{}, err
	}
	val, err := p.optionValue()
	if err != nil {
		return ast.Option{}, err
	}
	if err := p.expectSymbol(";"); err != nil {
		return ast.Option{}, err
	}
	return ast.Option{Name: name, Value: val, Pos: pos}, nil
}

// optionName := fullIdent | '(' fullIdent ')' ( '.' fullIdent )*
func (p *parser) optionName() (string, error) {
	if ok, err := p.optSymbol("("); err != nil {
		return "", err
	} else if ok {
		inner, err := p.fullIdent()
		if err != nil {
			return "", err
		}
		if err := p.expectSymbol(")"); err != nil {
			return "", err
		}
		name := "(" + inner + ")"
		for p.isSymbol(".") {
			if err := p.advance(); err != nil {
				return "", err
			}
			rest, _, err := p.expectIdent()
			if err != nil {
				return "", err
			}
			name += "." + rest
		}
		return name, nil
	}
	return p.fullIdent()
}

// optionValue parses a constant: string, bool, signed number, ident
// (enum-like reference) or a balanced `{ ... }` message literal, whose
// interior is discarded per spec.md §4.1 ("options... largely ignored
// downstream").
func (p *parser) optionValue() (interface{}, error) {
	switch {
	case p.cur.Kind == lexer.String:
		s := p.cur.Text
		return s, p.advance()
	case p.cur.Kind == lexer.Bool:
		b := p.cur.Bool
		return b, p.advance()
	case p.cur.Kind == lexer.Int:
		v := p.cur.Int
		return v, p.advance()
	case p.cur.Kind == lexer.Float:
		v := p.cur.Flt
		return v, p.advance()
	case p.isSymbol("-") || p.isSymbol("+"):
		neg := p.isSymbol("-")
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch {
		case p.cur.Kind == lexer.Int:
			v := p.cur.Int
			if neg {
				v = -v
			}
			return v, p.advance()
		case p.cur.Kind == lexer.Float:
			v := p.cur.Flt
			if neg {
				v = -v
			}
			return v, p.advance()
		default:
			return nil, p.errf("number after sign")
		}
	case p.isSymbol("{"):
		if err := p.skipBalanced("{", "}"); err != nil {
			return nil, err
		}
		return nil, nil
	case p.cur.Kind == lexer.Ident:
		name, err := p.fullIdent()
		return name, err
	default:
		return nil, p.errf("constant")
	}
}

// fieldOptions := '[' optionNameAndValue ( ',' optionNameAndValue )* ']'
func (p *parser) fieldOptions() ([]ast.Option, error) {
	if ok, err := p.optSymbol("["); err != nil {
		return nil, err
	} else if !ok {
		return nil, nil
	}
	var opts []ast.Option
	for {
		pos := p.pos()
		name, err := p.optionName()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol("="); err != nil {
			return nil, err
		}
		val, err := p.optionValue()
		if err != nil {
			return nil, err
		}
		opts = append(opts, ast.Option{Name: name, Value: val, Pos: pos})
		if ok, err := p.optSymbol(","); err != nil {
			return nil, err
		} else if ok {
			continue
		}
		break
	}
	return opts, p.expectSymbol("]")
}

func (p *parser) parseMessage() (*ast.Message, error) {
	pos := p.pos()
	if err := p.advance(); err != nil { // consume 'message'
		return nil, err
	}
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	m := &ast.Message{Name: name, Pos: pos}
	if err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	for !p.isSymbol("}") {
		if p.cur.Kind == lexer.EOF {
			return nil, p.errf("'}'")
		}
		if err := p.parseMessageElement(m); err != nil {
			return nil, err
		}
	}
	return m, p.advance()
}

func (p *parser) parseMessageElement(m *ast.Message) error {
	switch {
	case p.isSymbol(";"):
		return p.advance()
	case p.isIdent("option"):
		opt, err := p.parseOptionStatement()
		if err != nil {
			return err
		}
		m.Options = append(m.Options, opt)
		return nil
	case p.isIdent("message"):
		nested, err := p.parseMessage()
		if err != nil {
			return err
		}
		m.Messages = append(m.Messages, nested)
		return nil
	case p.isIdent("enum"):
		e, err := p.parseEnum()
		if err != nil {
			return err
		}
		m.Enums = append(m.Enums, e)
		return nil
	case p.isIdent("oneof"):
		return p.parseOneof(m)
	case p.isIdent("reserved"):
		return p.parseReserved(&m.Reserved, &m.ReservedNames)
	case p.isIdent("extensions"):
		return p.skipStatement()
	case p.isIdent("extend"):
		return p.skipExtend()
	default:
		field, err := p.parseField()
		if err != nil {
			return err
		}
		m.Fields = append(m.Fields, field)
		return nil
	}
}

// field := [ 'repeated' | 'optional' ] type fieldName '=' fieldNumber
//          [ '[' fieldOptions ']' ] ';'
//        | 'map' '<' keyType ',' type '>' fieldName '=' fieldNumber
//          [ '[' fieldOptions ']' ] ';'
func (p *parser) parseField() (*ast.Field, error) {
	pos := p.pos()
	label := ast.LabelSingular
	switch {
	case p.isIdent("repeated"):
		label = ast.LabelRepeated
		if err := p.advance(); err != nil {
			return nil, err
		}
	case p.isIdent("optional"):
		label = ast.LabelOptional
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if p.isIdent("map") {
		return p.parseMapField(pos)
	}

	typeName, err := p.typeName()
	if err != nil {
		return nil, err
	}
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("="); err != nil {
		return nil, err
	}
	num, err := p.intLiteral()
	if err != nil {
		return nil, err
	}
	opts, err := p.fieldOptions()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(";"); err != nil {
		return nil, err
	}
	return &ast.Field{
		Name:     name,
		Number:   int32(num),
		Label:    label,
		TypeName: typeName,
		Options:  opts,
		Pos:      pos,
	}, nil
}

func (p *parser) parseMapField(pos ast.Position) (*ast.Field, error) {
	if err := p.advance(); err != nil { // consume 'map'
		return nil, err
	}
	if err := p.expectSymbol("<"); err != nil {
		return nil, err
	}
	keyType, err := p.typeName()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(","); err != nil {
		return nil, err
	}
	valType, err := p.typeName()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(">"); err != nil {
		return nil, err
	}
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("="); err != nil {
		return nil, err
	}
	num, err := p.intLiteral()
	if err != nil {
		return nil, err
	}
	opts, err := p.fieldOptions()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(";"); err != nil {
		return nil, err
	}
	return &ast.Field{
		Name:    name,
		Number:  int32(num),
		Label:   ast.LabelRepeated,
		Options: opts,
		Pos:     pos,
		Map:     &ast.MapType{KeyType: keyType, ValueType: valType},
	}, nil
}

// typeName accepts a scalar keyword or a (possibly dotted) message/enum
// reference; both are plain identifiers lexically.
func (p *parser) typeName() (string, error) {
	if p.cur.Kind != lexer.Ident && !p.isSymbol(".") {
		return "", p.errf("type name")
	}
	return p.fullIdent()
}

func (p *parser) parseOneof(m *ast.Message) error {
	pos := p.pos()
	if err := p.advance(); err != nil { // consume 'oneof'
		return err
	}
	name, _, err := p.expectIdent()
	if err != nil {
		return err
	}
	oneof := &ast.Oneof{Name: name, Pos: pos}
	if err := p.expectSymbol("{"); err != nil {
		return err
	}
	for !p.isSymbol("}") {
		if p.cur.Kind == lexer.EOF {
			return p.errf("'}'")
		}
		if p.isSymbol(";") {
			if err := p.advance(); err != nil {
				return err
			}
			continue
		}
		if p.isIdent("option") {
			opt, err := p.parseOptionStatement()
			if err != nil {
				return err
			}
			m.Options = append(m.Options, opt)
			continue
		}
		typeName, err := p.typeName()
		if err != nil {
			return err
		}
		fname, fpos, err := p.expectIdent()
		if err != nil {
			return err
		}
		if err := p.expectSymbol("="); err != nil {
			return err
		}
		num, err := p.intLiteral()
		if err != nil {
			return err
		}
		opts, err := p.fieldOptions()
		if err != nil {
			return err
		}
		if err := p.expectSymbol(";"); err != nil {
			return err
		}
		field := &ast.Field{
			Name: fname, Number: int32(num), Label: ast.LabelSingular,
			TypeName: typeName, Options: opts, Pos: fpos, OneofName: name,
		}
		m.Fields = append(m.Fields, field)
		oneof.FieldNames = append(oneof.FieldNames, fname)
	}
	m.Oneofs = append(m.Oneofs, oneof)
	return p.advance()
}

// reserved := 'reserved' ( ranges | fieldNames ) ';'
func (p *parser) parseReserved(ranges *[]ast.ReservedRange, names *[]string) error {
	if err := p.advance(); err != nil { // consume 'reserved'
		return err
	}
	if p.cur.Kind == lexer.String {
		for {
			s, err := p.expectString()
			if err != nil {
				return err
			}
			*names = append(*names, s)
			if ok, err := p.optSymbol(","); err != nil {
				return err
			} else if ok {
				continue
			}
			break
		}
		return p.expectSymbol(";")
	}
	for {
		start, err := p.intLiteral()
		if err != nil {
			return err
		}
		end := start
		if p.isIdent("to") {
			if err := p.advance(); err != nil {
				return err
			}
			if p.isIdent("max") {
				end = int64(1<<31 - 1)
				if err := p.advance(); err != nil {
					return err
				}
			} else {
				end, err = p.intLiteral()
				if err != nil {
					return err
				}
			}
		}
		*ranges = append(*ranges, ast.ReservedRange{Start: int32(start), End: int32(end)})
		if ok, err := p.optSymbol(","); err != nil {
			return err
		} else if ok {
			continue
		}
		break
	}
	return p.expectSymbol(";")
}

func (p *parser) parseEnum() (*ast.Enum, error) {
	pos := p.pos()
	if err := p.advance(); err != nil { // consume 'enum'
		return nil, err
	}
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	e := &ast.Enum{Name: name, Pos: pos}
	if err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	for !p.isSymbol("}") {
		switch {
		case p.cur.Kind == lexer.EOF:
			return nil, p.errf("'}'")
		case p.isSymbol(";"):
			if err := p.advance(); err != nil {
				return nil, err
			}
		case p.isIdent("option"):
			opt, err := p.parseOptionStatement()
			if err != nil {
				return nil, err
			}
			e.Options = append(e.Options, opt)
		case p.isIdent("reserved"):
			if err := p.parseReserved(&e.Reserved, &e.ReservedNames); err != nil {
				return nil, err
			}
		default:
			vname, vpos, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if err := p.expectSymbol("="); err != nil {
				return nil, err
			}
			num, err := p.intLiteral()
			if err != nil {
				return nil, err
			}
			opts, err := p.fieldOptions()
			if err != nil {
				return nil, err
			}
			if err := p.expectSymbol(";"); err != nil {
				return nil, err
			}
			e.Values = append(e.Values, &ast.EnumValue{Name: vname, Number: int32(num), Options: opts, Pos: vpos})
		}
	}
	return e, p.advance()
}

func (p *parser) parseService() (*ast.Service, error) {
	pos := p.pos()
	if err := p.advance(); err != nil { // consume 'service'
		return nil, err
	}
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	s := &ast.Service{Name: name, Pos: pos}
	if err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	for !p.isSymbol("}") {
		switch {
		case p.cur.Kind == lexer.EOF:
			return nil, p.errf("'}'")
		case p.isSymbol(";"):
			if err := p.advance(); err != nil {
				return nil, err
			}
		case p.isIdent("option"):
			opt, err := p.parseOptionStatement()
			if err != nil {
				return nil, err
			}
			s.Options = append(s.Options, opt)
		case p.isIdent("rpc"):
			rpc, err := p.parseRPC()
			if err != nil {
				return nil, err
			}
			s.RPCs = append(s.RPCs, rpc)
		default:
			return nil, p.errf("'rpc' or 'option'")
		}
	}
	return s, p.advance()
}

// rpc := 'rpc' ident '(' ['stream'] messageType ')' 'returns'
//        '(' ['stream'] messageType ')' ( ';' | '{' (option ';')* '}' )
func (p *parser) parseRPC() (*ast.RPC, error) {
	pos := p.pos()
	if err := p.advance(); err != nil { // consume 'rpc'
		return nil, err
	}
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	rpc := &ast.RPC{Name: name, Pos: pos}

	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	if p.isIdent("stream") {
		rpc.InputStream = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	rpc.InputType, err = p.typeName()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	if err := p.expectIdentText("returns"); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	if p.isIdent("stream") {
		rpc.OutputStream = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	rpc.OutputType, err = p.typeName()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}

	if ok, err := p.optSymbol(";"); err != nil {
		return nil, err
	} else if ok {
		return rpc, nil
	}
	if err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	for !p.isSymbol("}") {
		if p.cur.Kind == lexer.EOF {
			return nil, p.errf("'}'")
		}
		if p.isSymbol(";") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if p.isIdent("option") {
			opt, err := p.parseOptionStatement()
			if err != nil {
				return nil, err
			}
			rpc.Options = append(rpc.Options, opt)
			continue
		}
		return nil, p.errf("'option' or '}'")
	}
	return rpc, p.advance()
}

// skipExtend discards an `extend fullIdent { ... }` block entirely,
// per spec.md §1's non-goal on preserving extend declarations.
func (p *parser) skipExtend() error {
	if err := p.advance(); err != nil { // consume 'extend'
		return err
	}
	if _, err := p.fullIdent(); err != nil {
		return err
	}
	return p.skipBalanced("{", "}")
}

// skipStatement discards tokens up to and including the next ';', used
// for the proto2-only `extensions` statement which proto3 files
// sometimes still carry in the wild.
func (p *parser) skipStatement() error {
	for !p.isSymbol(";") {
		if p.cur.Kind == lexer.EOF {
			return p.errf("';'")
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
	return p.advance()
}

// skipBalanced consumes a balanced open/close pair (already expects cur
// to be the opening symbol), discarding everything inside.
func (p *parser) skipBalanced(open, close string) error {
	if err := p.expectSymbol(open); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		if p.cur.Kind == lexer.EOF {
			return p.errf("'" + close + "'")
		}
		if p.isSymbol(open) {
			depth++
		} else if p.isSymbol(close) {
			depth--
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}
