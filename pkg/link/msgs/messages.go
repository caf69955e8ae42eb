package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/morse.go/pkg/framework"
	"github.com/robotalks/morse.go/pkg/morse"
)

// Symbol carries one encoded morse.Message.
type Symbol struct {
	Frame []byte `protobuf:"bytes,1,opt,name=frame,proto3" json:"frame,omitempty"`
}

// NewSymbol encodes a morse.Message.
func NewSymbol(m *morse.Message) (*Symbol, error) {
	frame, err := m.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &Symbol{Frame: frame}, nil
}

// Decode decodes the carried morse.Message.
func (m *Symbol) Decode() (*morse.Message, error) {
	var msg morse.Message
	if err := msg.UnmarshalBinary(m.Frame); err != nil {
		return nil, err
	}
	return &msg, nil
}

// NewMessage implements Message.
func (m *Symbol) NewMessage() fx.Message { return &Symbol{} }

// TypeID implements SerializableMessage.
func (m *Symbol) TypeID() uint32 { return SymbolTypeID }

// Serializable implements SerializableMessage.
func (m *Symbol) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Symbol) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Symbol) Reset() { *m = Symbol{} }

// String implements proto.Message.
func (m *Symbol) String() string { return proto.CompactTextString(m) }

// Hello announces an endpoint to a relay.
type Hello struct {
	Name string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
}

// NewMessage implements Message.
func (m *Hello) NewMessage() fx.Message { return &Hello{} }

// TypeID implements SerializableMessage.
func (m *Hello) TypeID() uint32 { return HelloTypeID }

// Serializable implements SerializableMessage.
func (m *Hello) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Hello) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Hello) Reset() { *m = Hello{} }

// String implements proto.Message.
func (m *Hello) String() string { return proto.CompactTextString(m) }

// Status is an event reporting endpoint state.
type Status struct {
	Ready bool   `protobuf:"varint,1,opt,name=ready,proto3" json:"ready,omitempty"`
	Peer  string `protobuf:"bytes,2,opt,name=peer,proto3" json:"peer,omitempty"`
	Last  string `protobuf:"bytes,3,opt,name=last,proto3" json:"last,omitempty"`
	Fault string `protobuf:"bytes,4,opt,name=fault,proto3" json:"fault,omitempty"`
}

// NewMessage implements Message.
func (m *Status) NewMessage() fx.Message { return &Status{} }

// TypeID implements SerializableMessage.
func (m *Status) TypeID() uint32 { return StatusEventTypeID }

// Serializable implements SerializableMessage.
func (m *Status) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Status) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Status) Reset() { *m = Status{} }

// String implements proto.Message.
func (m *Status) String() string { return proto.CompactTextString(m) }

// TypeID groups
const (
	GroupLink   uint32 = 0x00000000
	GroupMorse  uint32 = 0x00010000
	GroupCustom uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	HelloTypeID       uint32 = GroupLink | 0x0001
	SymbolTypeID      uint32 = GroupMorse | 0x0001
	StatusEventTypeID uint32 = GroupMorse | TypeIDKindEvent | 0x0001
)

func init() {
	Register(
		(*Hello)(nil),
		(*Symbol)(nil),
		(*Status)(nil),
	)
}
