// Package msgs defines the envelope exchanged by links and the messages
// it carries.
package msgs

import (
	"errors"
	"fmt"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/morse.go/pkg/framework"
)

// TypeID masks
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
)

// Message kinds
const (
	TypeIDKindData  uint32 = 0x00000000
	TypeIDKindEvent uint32 = 0x80000000
)

// ErrUnknownType indicates an unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

var (
	// ErrNotSerializable indicates the message can't go over the wire.
	ErrNotSerializable = errors.New("not serializable message")
)

// SerializableMessage can be carried in an Envelope.
type SerializableMessage interface {
	fx.Message
	TypeID() uint32
	Serializable() proto.Message
}

// MessageTypes maps type IDs to message prototypes.
var MessageTypes = map[uint32]SerializableMessage{}

// Register adds message prototypes to MessageTypes.
func Register(protos ...SerializableMessage) {
	for _, p := range protos {
		MessageTypes[p.TypeID()] = p
	}
}

// Envelope wraps a message with type and addressing information.
type Envelope struct {
	TypeId   uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Sequence uint32 `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Sender   []byte `protobuf:"bytes,3,opt,name=sender,proto3" json:"sender,omitempty"`
	Target   []byte `protobuf:"bytes,4,opt,name=target,proto3" json:"target,omitempty"`
	Message  []byte `protobuf:"bytes,5,opt,name=message,proto3" json:"message,omitempty"`
}

// ProtoMessage implements proto.Message.
func (e *Envelope) ProtoMessage() {}

// Reset implements proto.Message.
func (e *Envelope) Reset() { *e = Envelope{} }

// String implements proto.Message.
func (e *Envelope) String() string { return proto.CompactTextString(e) }

// EnvelopeFrom wraps a serializable message.
func EnvelopeFrom(msg fx.Message) (*Envelope, error) {
	s, ok := msg.(SerializableMessage)
	if !ok {
		return nil, ErrNotSerializable
	}
	data, err := proto.Marshal(s.Serializable())
	if err != nil {
		return nil, err
	}
	return &Envelope{TypeId: s.TypeID(), Message: data}, nil
}

// Decode decodes the carried message.
func (e *Envelope) Decode() (SerializableMessage, error) {
	msgType, ok := MessageTypes[e.TypeId]
	if !ok {
		return nil, &ErrUnknownType{TypeID: e.TypeId}
	}
	msg := msgType.NewMessage().(SerializableMessage)
	if err := proto.Unmarshal(e.Message, msg.Serializable()); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode encodes the Envelope to bytes.
func (e *Envelope) Encode() ([]byte, error) {
	return proto.Marshal(e)
}

// Kind gets message kind from type ID.
func (e *Envelope) Kind() uint32 {
	return e.TypeId & TypeIDMaskKind
}

// IsEvent determines if the message is an event.
func (e *Envelope) IsEvent() bool {
	return e.Kind() == TypeIDKindEvent
}

// DecodeEnvelope decodes bytes into an Envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := proto.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
