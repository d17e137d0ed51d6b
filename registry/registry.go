// Package registry holds the in-memory type registry (spec.md §3's
// Context) produced by package compiler and consumed by package
// decode: every message, enum and service definition across the
// compiled files, addressable by dense integer id or by fully-qualified
// name. A Context is immutable once built and safe to share across
// concurrently running decoders (spec.md §5).
package registry

import "google.golang.org/protobuf/reflect/protoreflect"

// Kind distinguishes the three namespaces a fully-qualified name can
// resolve into.
type Kind int

const (
	KindMessage Kind = iota
	KindEnum
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindEnum:
		return "enum"
	case KindService:
		return "service"
	default:
		return "unknown"
	}
}

// nameEntry is the by_name index's value: which namespace and id a
// fully-qualified name resolves to.
type nameEntry struct {
	Kind Kind
	ID   int32
}

// ValueKind classifies what a FieldInfo's declared type is.
type ValueKind int

const (
	// ValueScalar fields carry a protoreflect.Kind scalar variant.
	ValueScalar ValueKind = iota
	// ValueMessage fields reference a MessageInfo by id.
	ValueMessage
	// ValueEnum fields reference an EnumInfo by id.
	ValueEnum
)

// Multiplicity is a field's cardinality, per spec.md §3.
type Multiplicity int

const (
	Singular Multiplicity = iota
	Optional
	Repeated
	// MapField fields are repeated synthetic <Name>Entry messages
	// (spec.md §3: "Map fields are represented as repeated
	// pseudo-messages ... this is an invariant the decoder relies on").
	MapField
)

// FieldInfo describes one field of a MessageInfo.
type FieldInfo struct {
	Name         string
	Number       int32
	ValueKind    ValueKind
	Scalar       protoreflect.Kind // meaningful iff ValueKind == ValueScalar
	MessageID    int32             // meaningful iff ValueKind == ValueMessage (incl. map entries)
	EnumID       int32             // meaningful iff ValueKind == ValueEnum
	Multiplicity Multiplicity
	// OneofIndex is the index into the enclosing MessageInfo.Oneofs this
	// field belongs to, or -1 if it's not part of a oneof.
	OneofIndex int
	// Packed reports whether a repeated numeric scalar is packed-encoded.
	// Meaningful only for repeated scalar fields.
	Packed bool
}

// IsMapEntry reports whether this field's declared message type is a
// synthetic map-entry message (key=1, value=2), per spec.md §3.
func (f *FieldInfo) IsMapEntry() bool {
	return f.Multiplicity == MapField
}

// OneofInfo groups the fields that belong to one `oneof` block.
type OneofInfo struct {
	Name string
	// MemberFieldIndexes are indexes into the enclosing MessageInfo.Fields.
	MemberFieldIndexes []int
}

// MessageInfo is one compiled message type.
type MessageInfo struct {
	ID             int32
	FullName       string
	Fields         []*FieldInfo
	FieldsByNumber map[int32]int // field number -> index into Fields
	FieldsByName   map[string]int
	Oneofs         []*OneofInfo
	// NestedMessages and NestedEnums list the ids of types declared
	// lexically inside this message, for name resolution only — the
	// Context owns every definition regardless of nesting (spec.md §3).
	NestedMessages []int32
	NestedEnums    []int32
}

// FieldByNumber looks up a field by wire field number.
func (m *MessageInfo) FieldByNumber(n int32) (*FieldInfo, bool) {
	idx, ok := m.FieldsByNumber[n]
	if !ok {
		return nil, false
	}
	return m.Fields[idx], true
}

// FieldByName looks up a field by declared name.
func (m *MessageInfo) FieldByName(name string) (*FieldInfo, bool) {
	idx, ok := m.FieldsByName[name]
	if !ok {
		return nil, false
	}
	return m.Fields[idx], true
}

// EnumValueInfo is one `name = number;` line of an EnumInfo.
type EnumValueInfo struct {
	Name   string
	Number int32
}

// EnumInfo is one compiled enum type. proto3 enums are open: any int32
// is a legal wire value whether or not it names a declared variant
// (spec.md §4.4).
type EnumInfo struct {
	ID         int32
	FullName   string
	Values     []EnumValueInfo
	byName     map[string]int32
	byNumber   map[int32]string
	firstValue string // the zero-value name, if any
}

// ValueByName looks up an enum variant's number by name.
func (e *EnumInfo) ValueByName(name string) (int32, bool) {
	n, ok := e.byName[name]
	return n, ok
}

// NameByValue looks up an enum variant's name by number. Returns false
// for numbers that don't name a declared variant — proto3 enums are
// open, so this is not an error condition.
func (e *EnumInfo) NameByValue(n int32) (string, bool) {
	name, ok := e.byNumber[n]
	return name, ok
}

// RpcArg is one side (input or output) of an RPC signature.
type RpcArg struct {
	MessageID int32
	Streaming bool
}

// RpcInfo is one `rpc` declaration of a ServiceInfo.
type RpcInfo struct {
	Name   string
	Input  RpcArg
	Output RpcArg
}

// ServiceInfo is one compiled service type.
type ServiceInfo struct {
	ID       int32
	FullName string
	RPCs     []*RpcInfo
	rpcByName map[string]int
}

// RPC looks up an RPC by name.
func (s *ServiceInfo) RPC(name string) (*RpcInfo, bool) {
	idx, ok := s.rpcByName[name]
	if !ok {
		return nil, false
	}
	return s.RPCs[idx], true
}

// Context is the frozen type registry built by compiler.Compile. All
// lookups are read-only; a Context is safe for concurrent use by
// multiple decoders (spec.md §5, invariant 3).
type Context struct {
	messages []*MessageInfo
	enums    []*EnumInfo
	services []*ServiceInfo
	byName   map[string]nameEntry
}

// newBuilding returns an empty, mutable Context for package compiler to
// populate. Not exported: callers only ever see a finished Context.
func newBuilding() *Context {
	return &Context{byName: make(map[string]nameEntry)}
}

// Message looks up a message by fully-qualified name.
func (c *Context) Message(fullName string) (*MessageInfo, bool) {
	e, ok := c.byName[fullName]
	if !ok || e.Kind != KindMessage {
		return nil, false
	}
	return c.messages[e.ID], true
}

// Enum looks up an enum by fully-qualified name.
func (c *Context) Enum(fullName string) (*EnumInfo, bool) {
	e, ok := c.byName[fullName]
	if !ok || e.Kind != KindEnum {
		return nil, false
	}
	return c.enums[e.ID], true
}

// Service looks up a service by fully-qualified name.
func (c *Context) Service(fullName string) (*ServiceInfo, bool) {
	e, ok := c.byName[fullName]
	if !ok || e.Kind != KindService {
		return nil, false
	}
	return c.services[e.ID], true
}

// MessageByID returns the message with the given id. id must have been
// obtained from this same Context (spec.md §4.3: "infallible given ids
// obtained from the same Context").
func (c *Context) MessageByID(id int32) *MessageInfo { return c.messages[id] }

// EnumByID returns the enum with the given id.
func (c *Context) EnumByID(id int32) *EnumInfo { return c.enums[id] }

// ServiceByID returns the service with the given id.
func (c *Context) ServiceByID(id int32) *ServiceInfo { return c.services[id] }

// NumMessages, NumEnums and NumServices report the dense id space size
// for each kind, mostly useful for tests and tooling that want to walk
// every definition in a Context.
func (c *Context) NumMessages() int { return len(c.messages) }
func (c *Context) NumEnums() int    { return len(c.enums) }
func (c *Context) NumServices() int { return len(c.services) }
