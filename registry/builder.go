package registry

// Builder assembles a Context across the schema compiler's two passes
// (spec.md §4.2): pass 1 declares every full name and reserves its
// dense id, pass 2 fills in the resolved body. Builder lives in this
// package (rather than compiler) because it needs to populate Context's
// unexported slices and maps directly.
type Builder struct {
	ctx *Context
}

// NewBuilder returns an empty Builder ready for pass 1.
func NewBuilder() *Builder {
	return &Builder{ctx: newBuilding()}
}

// DeclareMessage reserves a dense id for fullName and registers it in
// the by-name index. It must not already be declared under any kind.
func (b *Builder) DeclareMessage(fullName string) int32 {
	id := int32(len(b.ctx.messages))
	b.ctx.messages = append(b.ctx.messages, &MessageInfo{ID: id, FullName: fullName})
	b.ctx.byName[fullName] = nameEntry{Kind: KindMessage, ID: id}
	return id
}

// DeclareEnum reserves a dense id for fullName and registers it.
func (b *Builder) DeclareEnum(fullName string) int32 {
	id := int32(len(b.ctx.enums))
	b.ctx.enums = append(b.ctx.enums, &EnumInfo{ID: id, FullName: fullName})
	b.ctx.byName[fullName] = nameEntry{Kind: KindEnum, ID: id}
	return id
}

// DeclareService reserves a dense id for fullName and registers it.
func (b *Builder) DeclareService(fullName string) int32 {
	id := int32(len(b.ctx.services))
	b.ctx.services = append(b.ctx.services, &ServiceInfo{ID: id, FullName: fullName})
	b.ctx.byName[fullName] = nameEntry{Kind: KindService, ID: id}
	return id
}

// Lookup resolves a fully-qualified name to its kind and id, for
// pass 2's reference resolution.
func (b *Builder) Lookup(fullName string) (Kind, int32, bool) {
	e, ok := b.ctx.byName[fullName]
	return e.Kind, e.ID, ok
}

// Declared reports whether fullName was already declared, regardless
// of kind — used by pass 1 to detect SchemaError::DuplicateType.
func (b *Builder) Declared(fullName string) bool {
	_, ok := b.ctx.byName[fullName]
	return ok
}

// FillMessage fills in the placeholder MessageInfo for id, in place,
// with the body resolved by pass 2, and builds its by-number and
// by-name field indexes. The id and full name are kept from pass 1.
func (b *Builder) FillMessage(id int32, fields []*FieldInfo, oneofs []*OneofInfo, nestedMessages, nestedEnums []int32) {
	mi := b.ctx.messages[id]
	mi.Fields = fields
	mi.Oneofs = oneofs
	mi.NestedMessages = nestedMessages
	mi.NestedEnums = nestedEnums
	mi.FieldsByNumber = make(map[int32]int, len(fields))
	mi.FieldsByName = make(map[string]int, len(fields))
	for i, f := range fields {
		// Duplicate field numbers: last one wins (DESIGN.md open
		// question resolution), matching a plain map-population order.
		mi.FieldsByNumber[f.Number] = i
		mi.FieldsByName[f.Name] = i
	}
}

// FillEnum replaces the placeholder EnumInfo for id with its resolved
// value list.
func (b *Builder) FillEnum(id int32, values []EnumValueInfo) {
	e := b.ctx.enums[id]
	e.Values = values
	e.byName = make(map[string]int32, len(values))
	e.byNumber = make(map[int32]string, len(values))
	for _, v := range values {
		e.byName[v.Name] = v.Number
		// First declaration of a number wins the canonical name,
		// matching protoc's own alias handling.
		if _, exists := e.byNumber[v.Number]; !exists {
			e.byNumber[v.Number] = v.Name
			if v.Number == 0 {
				e.firstValue = v.Name
			}
		}
	}
}

// FillService replaces the placeholder ServiceInfo for id with its
// resolved RPC list.
func (b *Builder) FillService(id int32, rpcs []*RpcInfo) {
	s := b.ctx.services[id]
	s.RPCs = rpcs
	s.rpcByName = make(map[string]int, len(rpcs))
	for i, r := range rpcs {
		s.rpcByName[r.Name] = i
	}
}

// Build finalizes and returns the Context. The Builder must not be used
// afterward.
func (b *Builder) Build() *Context {
	return b.ctx
}
