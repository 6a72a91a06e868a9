package nem12

import (
	"strconv"
)

// RecordType is the code in field 0 of every record.
type RecordType int

const (
	// RecordInvalid stands for end of input when looking ahead. It never reaches dispatch.
	RecordInvalid     RecordType = -100
	RecordFileStart   RecordType = 100
	RecordMeterRead   RecordType = 200
	RecordMeterVolume RecordType = 300
	RecordFileEnd     RecordType = 900
)

// Known reports whether t is one of the four codes the format defines.
func (t RecordType) Known() bool {
	switch t {
	case RecordFileStart, RecordMeterRead, RecordMeterVolume, RecordFileEnd:
		return true
	default:
		return false
	}
}

func (t RecordType) String() string {
	switch t {
	case RecordInvalid:
		return "invalid"
	case RecordFileStart:
		return "file start (100)"
	case RecordMeterRead:
		return "meter read (200)"
	case RecordMeterVolume:
		return "meter volume (300)"
	case RecordFileEnd:
		return "file end (900)"
	default:
		return "unrecognized (" + strconv.Itoa(int(t)) + ")"
	}
}

// ClassifyRecord reads the record type of fields. Unrecognized codes are returned as is;
// callers decide whether to reject them. An empty record classifies as RecordInvalid.
func ClassifyRecord(fields []string, line int) (RecordType, error) {
	if len(fields) == 0 {
		return RecordInvalid, nil
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return RecordInvalid, &FormatError{
			Line: line,
			Kind: ErrRecordType,
			Msg:  "record type " + strconv.Quote(fields[0]) + " is not an integer",
			Err:  err,
		}
	}
	return RecordType(n), nil
}
