// internal/codec/campaign_codec.go
package codec

import (
	"bytes"
	"encoding/binary"

	appErrors "github.com/unclebandit/crowdfund-program/internal/errors"
	"github.com/unclebandit/crowdfund-program/internal/model"
)

// Field is one entry of the fixed CampaignRecord layout.
type Field struct {
	Name   string
	Offset int
	Size   int
}

func (f Field) end() int { return f.Offset + f.Size }

// NameCapacity is the number of name bytes the record can hold.
const NameCapacity = 256

var (
	FieldInitialized = Field{"initialized", 0, 1}
	FieldNameLength  = Field{"name_length", 1, 4}
	FieldName        = Field{"name", 5, NameCapacity}
	FieldCreator     = Field{"creator", 261, 32}
	FieldGoalAmount  = Field{"goal_amount", 293, 8}
	FieldDeadline    = Field{"deadline", 301, 8}
	FieldBump        = Field{"bump", 309, 1}
)

// Layout lists the record fields in storage order. Each field starts
// where the previous one ends.
var Layout = []Field{
	FieldInitialized,
	FieldNameLength,
	FieldName,
	FieldCreator,
	FieldGoalAmount,
	FieldDeadline,
	FieldBump,
}

// RecordSize is the serialized size of a CampaignRecord, independent of
// the name length.
const RecordSize = 1 + 4 + NameCapacity + 32 + 8 + 8 + 1

func slot(buf []byte, f Field) []byte {
	return buf[f.Offset:f.end()]
}

// Encode serializes record into a new RecordSize buffer.
func Encode(record model.CampaignRecord) ([]byte, error) {
	buf := make([]byte, RecordSize)
	if err := EncodeInto(buf, record); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeInto serializes record into dst, which must be exactly RecordSize
// bytes. Names longer than NameCapacity are rejected before dst is touched.
func EncodeInto(dst []byte, record model.CampaignRecord) error {
	if len(dst) != RecordSize {
		return appErrors.New(appErrors.CorruptRecord, "record buffer is %d bytes, want %d", len(dst), RecordSize)
	}
	if len(record.Name) > NameCapacity {
		return appErrors.New(appErrors.NameTooLong, "name is %d bytes, capacity is %d", len(record.Name), NameCapacity)
	}

	if record.Initialized {
		dst[FieldInitialized.Offset] = 1
	} else {
		dst[FieldInitialized.Offset] = 0
	}
	binary.LittleEndian.PutUint32(slot(dst, FieldNameLength), uint32(len(record.Name)))

	name := slot(dst, FieldName)
	n := copy(name, record.Name)
	clear(name[n:])

	copy(slot(dst, FieldCreator), record.Creator[:])
	binary.LittleEndian.PutUint64(slot(dst, FieldGoalAmount), record.GoalAmount)
	binary.LittleEndian.PutUint64(slot(dst, FieldDeadline), uint64(record.Deadline))
	dst[FieldBump.Offset] = record.Bump
	return nil
}

// Decode parses a RecordSize buffer. Any integer bit pattern is accepted;
// only the buffer length and the initialized flag can be corrupt.
func Decode(src []byte) (model.CampaignRecord, error) {
	var record model.CampaignRecord
	if len(src) != RecordSize {
		return record, appErrors.New(appErrors.CorruptRecord, "record buffer is %d bytes, want %d", len(src), RecordSize)
	}

	switch flag := src[FieldInitialized.Offset]; flag {
	case 0:
	case 1:
		record.Initialized = true
	default:
		return record, appErrors.New(appErrors.CorruptRecord, "initialized flag is %d", flag)
	}

	record.Name = decodeName(
		binary.LittleEndian.Uint32(slot(src, FieldNameLength)),
		slot(src, FieldName),
	)
	copy(record.Creator[:], slot(src, FieldCreator))
	record.GoalAmount = binary.LittleEndian.Uint64(slot(src, FieldGoalAmount))
	record.Deadline = int64(binary.LittleEndian.Uint64(slot(src, FieldDeadline)))
	record.Bump = src[FieldBump.Offset]
	return record, nil
}

// decodeName honours the declared length when it fits the buffer, so
// names ending in zero bytes survive. A length beyond capacity is treated
// as informational noise and the zero padding is trimmed instead.
func decodeName(declared uint32, buf []byte) string {
	if declared <= uint32(len(buf)) {
		return string(buf[:declared])
	}
	return string(bytes.TrimRight(buf, "\x00"))
}
