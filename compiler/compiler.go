// Package compiler turns a set of parsed proto3 files into a linked
// registry.Context. It runs in two passes over the ASTs, matching the
// naming-then-linking split used by every real proto compiler: pass 1
// flattens every declaration to its fully-qualified name and reserves
// a dense id for it, pass 2 resolves field and RPC type references and
// fills in the id-addressed bodies.
package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/axonops/protolens/ast"
	"github.com/axonops/protolens/parser"
	"github.com/axonops/protolens/registry"
	"github.com/axonops/protolens/reporter"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Options configures a Compile call.
type Options struct {
	// Logger receives a Debug-level record for each file-level and
	// message-level option the compiler discards. Imports, field
	// options and extend blocks produce no log record; extend blocks
	// are dropped by package parser and never reach the compiler.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// Reporter, if set, records every discarded import and every
	// discarded file, message and field option as a positioned warning
	// (package reporter, SPEC_FULL.md §4.6); enum, enum value, service
	// and rpc options are dropped without a warning. It also records
	// the SchemaError that fails a Compile call as a
	// positioned error, so a caller that wants the problem's line and
	// column instead of just SchemaError's bare strings can inspect
	// Reporter after Compile returns. Never required: Compile succeeds
	// or fails identically whether or not a Reporter is set.
	Reporter *reporter.Handler
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) warnf(pos ast.Position, format string, args ...interface{}) {
	if o.Reporter != nil {
		o.Reporter.Warnf(pos, format, args...)
	}
}

func (o Options) errf(pos ast.Position, err error) error {
	if o.Reporter != nil && err != nil {
		o.Reporter.Errorf(pos, "%s", err.Error())
	}
	return err
}

// SchemaErrorKind distinguishes the fixed set of linking failures.
type SchemaErrorKind int

const (
	DuplicateType SchemaErrorKind = iota
	UnresolvedType
	InvalidFieldNumber
)

func (k SchemaErrorKind) String() string {
	switch k {
	case DuplicateType:
		return "duplicate type"
	case UnresolvedType:
		return "unresolved type"
	case InvalidFieldNumber:
		return "invalid field number"
	default:
		return "schema error"
	}
}

// SchemaError is the second of the two schema-time error surfaces
// (spec.md §7); the first, the grammar failure, is parser.Error, and
// is returned unwrapped from Compile.
type SchemaError struct {
	Kind     SchemaErrorKind
	FullName string
	Referent string
	Number   int32
}

func (e *SchemaError) Error() string {
	switch e.Kind {
	case DuplicateType:
		return fmt.Sprintf("duplicate type %q", e.FullName)
	case UnresolvedType:
		return fmt.Sprintf("%s: unresolved type %q", e.FullName, e.Referent)
	case InvalidFieldNumber:
		return fmt.Sprintf("%s: invalid field number %d", e.FullName, e.Number)
	default:
		return "schema error"
	}
}

// reservedFieldStart and reservedFieldEnd bound proto3's reserved field
// number range (spec.md §3). Compile does not check field numbers
// against this range and never returns InvalidFieldNumber.
const (
	reservedFieldStart = 19000
	reservedFieldEnd   = 19999
)

// Compile parses every source string and links the result into a
// registry.Context. This is the only constructor for a Context
// (spec.md §4.3). Import statements are tolerated but never chased —
// callers must supply every referenced file in sources.
func Compile(sources []string, opts Options) (*registry.Context, error) {
	files := make([]*ast.File, 0, len(sources))
	for i, src := range sources {
		name := fmt.Sprintf("file%d.proto", i)
		f, err := parser.Parse(name, src)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return CompileFiles(files, opts)
}

// CompileFiles links already-parsed files, for callers that parsed
// their own sources (e.g. to report ParseErrors with real file names).
func CompileFiles(files []*ast.File, opts Options) (*registry.Context, error) {
	c := &compilation{
		b:      registry.NewBuilder(),
		log:    opts.logger(),
		opts:   opts,
		scopes: make(map[string]*scope),
	}
	if err := c.declareAll(files); err != nil {
		return nil, err
	}
	if err := c.resolveAll(files); err != nil {
		return nil, err
	}
	return c.b.Build(), nil
}

// scope records what pass 2 needs to resolve a bare (non-leading-dot)
// type reference found lexically inside one message, enum or file: the
// fully-qualified name of the enclosing scope and its parent, so
// resolution can walk outward per spec.md §4.2's lookup rule.
type scope struct {
	fullName string
	parent   *scope
}

type compilation struct {
	b      *registry.Builder
	log    *slog.Logger
	opts   Options
	scopes map[string]*scope // declaration full name -> its lexical scope
}

func joinName(prefix, name string) string {
	if prefix == "" {
		return "." + name
	}
	return prefix + "." + name
}

// declareAll is pass 1: walk every file and register every message,
// enum and service under its fully-qualified name, reserving a dense
// id for each. Duplicate full names are a SchemaError::DuplicateType.
func (c *compilation) declareAll(files []*ast.File) error {
	for _, f := range files {
		pkgScope := &scope{fullName: packagePrefix(f.Package)}
		for _, m := range f.Messages {
			if err := c.declareMessage(m, pkgScope); err != nil {
				return err
			}
		}
		for _, e := range f.Enums {
			if err := c.declareEnumIn(e, pkgScope); err != nil {
				return err
			}
		}
		for _, s := range f.Services {
			if err := c.declareService(s, pkgScope); err != nil {
				return err
			}
		}
	}
	return nil
}

func packagePrefix(pkg string) string {
	if pkg == "" {
		return ""
	}
	return "." + pkg
}

func (c *compilation) declareMessage(m *ast.Message, parent *scope) error {
	full := joinName(parent.fullName, m.Name)
	if c.b.Declared(full) {
		return c.opts.errf(m.Pos, &SchemaError{Kind: DuplicateType, FullName: full})
	}
	c.b.DeclareMessage(full)
	own := &scope{fullName: full, parent: parent}
	c.scopes[full] = own

	for _, f := range m.Fields {
		if f.Map != nil {
			entryFull := joinName(full, mapEntryName(f.Name))
			if c.b.Declared(entryFull) {
				return c.opts.errf(f.Pos, &SchemaError{Kind: DuplicateType, FullName: entryFull})
			}
			c.b.DeclareMessage(entryFull)
			c.scopes[entryFull] = &scope{fullName: entryFull, parent: own}
		}
	}
	for _, nm := range m.Messages {
		if err := c.declareMessage(nm, own); err != nil {
			return err
		}
	}
	for _, ne := range m.Enums {
		if err := c.declareEnumIn(ne, own); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) declareEnumIn(e *ast.Enum, parent *scope) error {
	full := joinName(parent.fullName, e.Name)
	if c.b.Declared(full) {
		return c.opts.errf(e.Pos, &SchemaError{Kind: DuplicateType, FullName: full})
	}
	c.b.DeclareEnum(full)
	return nil
}

func (c *compilation) declareService(s *ast.Service, parent *scope) error {
	full := joinName(parent.fullName, s.Name)
	if c.b.Declared(full) {
		return c.opts.errf(s.Pos, &SchemaError{Kind: DuplicateType, FullName: full})
	}
	c.b.DeclareService(full)
	return nil
}

// mapEntryName derives the synthetic entry message name from the field
// name, per spec.md §4.2: "<CamelCaseFieldName>Entry".
func mapEntryName(fieldName string) string {
	parts := strings.Split(fieldName, "_")
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(p[1:])
	}
	sb.WriteString("Entry")
	return sb.String()
}

// resolveAll is pass 2: walk every file again, this time filling in
// each message/enum/service's resolved body.
func (c *compilation) resolveAll(files []*ast.File) error {
	for _, f := range files {
		pkgScope := &scope{fullName: packagePrefix(f.Package)}
		for _, m := range f.Messages {
			if err := c.resolveMessage(m, pkgScope); err != nil {
				return err
			}
		}
		for _, e := range f.Enums {
			c.resolveEnum(e, joinName(pkgScope.fullName, e.Name))
		}
		for _, s := range f.Services {
			if err := c.resolveService(s, pkgScope); err != nil {
				return err
			}
		}
		for _, opt := range f.Options {
			c.log.Debug("discarding file option", "file", f.Name, "option", opt.Name)
			c.opts.warnf(opt.Pos, "discarding file option %q", opt.Name)
		}
		for _, imp := range f.Imports {
			c.opts.warnf(imp.Pos, "import %q tolerated but not chased", imp.Path)
		}
	}
	return nil
}

// resolveType implements spec.md §4.2's proto name-lookup rule: a
// leading-dot name is absolute; otherwise search from the innermost
// enclosing scope outward, then the root.
func (c *compilation) resolveType(name string, from *scope) (registry.Kind, int32, bool) {
	if strings.HasPrefix(name, ".") {
		return c.b.Lookup(name)
	}
	for s := from; s != nil; s = s.parent {
		if kind, id, ok := c.b.Lookup(joinName(s.fullName, name)); ok {
			return kind, id, true
		}
	}
	return c.b.Lookup("." + name)
}

func (c *compilation) resolveMessage(m *ast.Message, parent *scope) error {
	full := joinName(parent.fullName, m.Name)
	own := c.scopes[full]

	oneofIndex := make(map[string]int, len(m.Oneofs))
	oneofs := make([]*registry.OneofInfo, len(m.Oneofs))
	for i, o := range m.Oneofs {
		oneofs[i] = &registry.OneofInfo{Name: o.Name}
		oneofIndex[o.Name] = i
	}

	fields := make([]*registry.FieldInfo, 0, len(m.Fields))

	for _, f := range m.Fields {
		fi, err := c.resolveField(full, f, own)
		if err != nil {
			return err
		}
		idx := len(fields)
		fields = append(fields, fi)
		if f.OneofName != "" {
			oi := oneofIndex[f.OneofName]
			fi.OneofIndex = oi
			oneofs[oi].MemberFieldIndexes = append(oneofs[oi].MemberFieldIndexes, idx)
		}
	}

	var nestedMessages, nestedEnums []int32
	for _, nm := range m.Messages {
		_, id, _ := c.b.Lookup(joinName(full, nm.Name))
		nestedMessages = append(nestedMessages, id)
		if err := c.resolveMessage(nm, own); err != nil {
			return err
		}
	}
	for _, ne := range m.Enums {
		enumFull := joinName(full, ne.Name)
		_, id, _ := c.b.Lookup(enumFull)
		nestedEnums = append(nestedEnums, id)
		c.resolveEnum(ne, enumFull)
	}

	id, _, _ := c.b.Lookup(full)
	c.b.FillMessage(id, fields, oneofs, nestedMessages, nestedEnums)

	for _, opt := range m.Options {
		c.log.Debug("discarding message option", "message", full, "option", opt.Name)
		c.opts.warnf(opt.Pos, "discarding message option %q on %s", opt.Name, full)
	}
	return nil
}

// resolvedType is the outcome of looking up a field's TypeName: either
// a scalar kind, or a message/enum id in the Context under
// construction.
type resolvedType struct {
	scalar   protoreflect.Kind
	isScalar bool
	kind     registry.Kind
	id       int32
}

func (c *compilation) resolveValueType(ownerFull, typeName string, from *scope, pos ast.Position) (resolvedType, error) {
	if k, ok := scalarKinds[typeName]; ok {
		return resolvedType{scalar: k, isScalar: true}, nil
	}
	kind, id, ok := c.resolveType(typeName, from)
	if !ok {
		return resolvedType{}, c.opts.errf(pos, &SchemaError{Kind: UnresolvedType, FullName: ownerFull, Referent: typeName})
	}
	return resolvedType{kind: kind, id: id}, nil
}

func applyValueType(fi *registry.FieldInfo, rt resolvedType) {
	if rt.isScalar {
		fi.ValueKind = registry.ValueScalar
		fi.Scalar = rt.scalar
		return
	}
	switch rt.kind {
	case registry.KindMessage:
		fi.ValueKind = registry.ValueMessage
		fi.MessageID = rt.id
	case registry.KindEnum:
		fi.ValueKind = registry.ValueEnum
		fi.EnumID = rt.id
	}
}

// resolveField turns one ast.Field into a registry.FieldInfo, expanding
// map<K,V> into a reference to its already-declared synthetic entry
// message (spec.md §4.2).
func (c *compilation) resolveField(ownerFull string, f *ast.Field, own *scope) (*registry.FieldInfo, error) {
	fi := &registry.FieldInfo{
		Name:       f.Name,
		Number:     f.Number,
		OneofIndex: -1,
	}
	switch f.Label {
	case ast.LabelOptional:
		fi.Multiplicity = registry.Optional
	case ast.LabelRepeated:
		fi.Multiplicity = registry.Repeated
	default:
		fi.Multiplicity = registry.Singular
	}

	if f.Map != nil {
		entryFull := joinName(ownerFull, mapEntryName(f.Name))
		entryID, _, _ := c.b.Lookup(entryFull)

		keyType, err := c.resolveValueType(ownerFull, f.Map.KeyType, own, f.Pos)
		if err != nil {
			return nil, err
		}
		valType, err := c.resolveValueType(ownerFull, f.Map.ValueType, own, f.Pos)
		if err != nil {
			return nil, err
		}
		keyField := &registry.FieldInfo{Name: "key", Number: 1, Multiplicity: registry.Singular, OneofIndex: -1}
		applyValueType(keyField, keyType)
		valField := &registry.FieldInfo{Name: "value", Number: 2, Multiplicity: registry.Singular, OneofIndex: -1}
		applyValueType(valField, valType)
		c.b.FillMessage(entryID, []*registry.FieldInfo{keyField, valField}, nil, nil, nil)

		fi.ValueKind = registry.ValueMessage
		fi.MessageID = entryID
		fi.Multiplicity = registry.MapField
		return fi, nil
	}

	rt, err := c.resolveValueType(ownerFull, f.TypeName, own, f.Pos)
	if err != nil {
		return nil, err
	}
	applyValueType(fi, rt)

	if fi.Multiplicity == registry.Repeated && rt.isScalar {
		fi.Packed = isPackableScalar(rt.scalar)
		for _, opt := range f.Options {
			if opt.Name == "packed" {
				if b, ok := opt.Value.(bool); ok {
					fi.Packed = b
				}
				continue
			}
			c.opts.warnf(opt.Pos, "discarding field option %q on %s.%s", opt.Name, ownerFull, f.Name)
		}
	} else {
		for _, opt := range f.Options {
			c.opts.warnf(opt.Pos, "discarding field option %q on %s.%s", opt.Name, ownerFull, f.Name)
		}
	}
	return fi, nil
}

func (c *compilation) resolveEnum(e *ast.Enum, full string) {
	values := make([]registry.EnumValueInfo, len(e.Values))
	for i, v := range e.Values {
		values[i] = registry.EnumValueInfo{Name: v.Name, Number: v.Number}
	}
	id, _, _ := c.b.Lookup(full)
	c.b.FillEnum(id, values)
}

func (c *compilation) resolveService(s *ast.Service, parent *scope) error {
	full := joinName(parent.fullName, s.Name)
	rpcs := make([]*registry.RpcInfo, 0, len(s.RPCs))
	for _, r := range s.RPCs {
		_, inID, ok := c.resolveType(r.InputType, parent)
		if !ok {
			return c.opts.errf(r.Pos, &SchemaError{Kind: UnresolvedType, FullName: full + "." + r.Name, Referent: r.InputType})
		}
		_, outID, ok := c.resolveType(r.OutputType, parent)
		if !ok {
			return c.opts.errf(r.Pos, &SchemaError{Kind: UnresolvedType, FullName: full + "." + r.Name, Referent: r.OutputType})
		}
		rpcs = append(rpcs, &registry.RpcInfo{
			Name:   r.Name,
			Input:  registry.RpcArg{MessageID: inID, Streaming: r.InputStream},
			Output: registry.RpcArg{MessageID: outID, Streaming: r.OutputStream},
		})
	}
	id, _, _ := c.b.Lookup(full)
	c.b.FillService(id, rpcs)
	return nil
}

// scalarKinds maps the proto3 scalar keywords (parser.ScalarTypes) to
// their protoreflect.Kind, reusing the ecosystem's own enum rather than
// inventing a parallel one (SPEC_FULL.md §3a).
var scalarKinds = map[string]protoreflect.Kind{
	"double":   protoreflect.DoubleKind,
	"float":    protoreflect.FloatKind,
	"int32":    protoreflect.Int32Kind,
	"int64":    protoreflect.Int64Kind,
	"uint32":   protoreflect.Uint32Kind,
	"uint64":   protoreflect.Uint64Kind,
	"sint32":   protoreflect.Sint32Kind,
	"sint64":   protoreflect.Sint64Kind,
	"fixed32":  protoreflect.Fixed32Kind,
	"fixed64":  protoreflect.Fixed64Kind,
	"sfixed32": protoreflect.Sfixed32Kind,
	"sfixed64": protoreflect.Sfixed64Kind,
	"bool":     protoreflect.BoolKind,
	"string":   protoreflect.StringKind,
	"bytes":    protoreflect.BytesKind,
}

// isPackableScalar reports whether a repeated field of this scalar
// kind is packed by default in proto3 (every numeric/bool kind except
// the length-delimited string/bytes).
func isPackableScalar(k protoreflect.Kind) bool {
	switch k {
	case protoreflect.StringKind, protoreflect.BytesKind:
		return false
	default:
		return true
	}
}
