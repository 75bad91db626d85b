// Package instruction decodes the raw instruction bytes handed to the
// program into typed requests.
//
// The first byte selects the operation; the remaining bytes are its
// payload. Integers are little-endian and strings carry a 4-byte length
// prefix. Payloads must be consumed exactly: short or trailing input is
// malformed.
package instruction

import (
	"encoding/binary"

	appErrors "github.com/unclebandit/crowdfund-program/internal/errors"
	"github.com/unclebandit/crowdfund-program/internal/model"
)

// Opcode selects the operation an instruction requests.
type Opcode uint8

const (
	OpCreateCampaign Opcode = 0
)

// Instruction is a decoded request. Exactly one payload field is set,
// matching Opcode.
type Instruction struct {
	Opcode         Opcode
	CreateCampaign *model.CreateCampaignPayload
}

// Decode parses data into an Instruction. It has no side effects.
func Decode(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return Instruction{}, appErrors.New(appErrors.MalformedInstruction, "empty instruction")
	}

	op, rest := Opcode(data[0]), data[1:]
	switch op {
	case OpCreateCampaign:
		payload, err := decodeCreateCampaign(rest)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, CreateCampaign: payload}, nil
	default:
		return Instruction{}, appErrors.New(appErrors.UnsupportedOpcode, "opcode %d", op)
	}
}

func decodeCreateCampaign(data []byte) (*model.CreateCampaignPayload, error) {
	r := reader{buf: data}
	name := r.str("name")
	goal := r.u64("goal_amount")
	deadline := r.u64("deadline")
	if err := r.finish(); err != nil {
		return nil, err
	}
	return &model.CreateCampaignPayload{
		Name:       name,
		GoalAmount: goal,
		Deadline:   int64(deadline),
	}, nil
}

// reader consumes a payload left to right. The first failure sticks and
// later reads return zero values.
type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) take(n uint64, field string) []byte {
	if r.err != nil {
		return nil
	}
	if n > uint64(len(r.buf)-r.pos) {
		r.err = appErrors.New(appErrors.MalformedInstruction,
			"%s needs %d bytes, %d remain", field, n, len(r.buf)-r.pos)
		return nil
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b
}

func (r *reader) u32(field string) uint32 {
	b := r.take(4, field)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64(field string) uint64 {
	b := r.take(8, field)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) str(field string) string {
	n := r.u32(field + " length")
	b := r.take(uint64(n), field)
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *reader) finish() error {
	if r.err != nil {
		return r.err
	}
	if extra := len(r.buf) - r.pos; extra != 0 {
		return appErrors.New(appErrors.MalformedInstruction, "%d trailing bytes", extra)
	}
	return nil
}

// EncodeCreateCampaign builds the wire form of a create-campaign
// instruction, opcode byte included.
func EncodeCreateCampaign(payload model.CreateCampaignPayload) []byte {
	buf := make([]byte, 0, 1+4+len(payload.Name)+8+8)
	buf = append(buf, byte(OpCreateCampaign))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload.Name)))
	buf = append(buf, payload.Name...)
	buf = binary.LittleEndian.AppendUint64(buf, payload.GoalAmount)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(payload.Deadline))
	return buf
}
