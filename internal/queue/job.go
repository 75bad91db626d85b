package queue

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/unclebandit/crowdfund-program/internal/model"
)

// TopicInstructions is the queue the worker consumes instructions from.
const TopicInstructions = "campaign_instructions"

// JobContentType marks CBOR job bodies on the wire.
const JobContentType = "application/cbor"

// Job is one queued invocation: the positional account list and the raw
// instruction bytes.
type Job struct {
	Accounts []model.AccountMeta `json:"accounts"`
	Data     []byte              `json:"data"`
}

var (
	jobEncMode cbor.EncMode
	jobDecMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Addresses travel as their hex text form.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	jobEncMode, err = encOptions.EncMode()
	if err != nil {
		panic("queue: CBOR encoder initialization failed: " + err.Error())
	}

	jobDecMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("queue: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeJob serializes job with deterministic CBOR.
func EncodeJob(job Job) ([]byte, error) {
	data, err := jobEncMode.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encoding job: %w", err)
	}
	return data, nil
}

// DecodeJob parses a CBOR job body.
func DecodeJob(data []byte) (Job, error) {
	var job Job
	if err := jobDecMode.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("decoding job: %w", err)
	}
	return job, nil
}
