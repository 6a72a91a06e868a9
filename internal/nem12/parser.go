package nem12

import (
	"errors"
	"io"
	"log/slog"

	"github.com/milad/nem12/internal/domain"
)

// Diagnostic is a non-fatal notice about the input. It does not affect the parse result.
type Diagnostic struct {
	Line    int
	Message string
}

// Option configures a Parser.
type Option func(*Parser)

// WithSeparator sets the literal field separator. Empty keeps DefaultSeparator.
func WithSeparator(sep string) Option {
	return func(p *Parser) {
		if sep != "" {
			p.separator = sep
		}
	}
}

// WithDiagnosticHandler routes diagnostics to fn instead of the logger.
func WithDiagnosticHandler(fn func(Diagnostic)) Option {
	return func(p *Parser) { p.onDiagnostic = fn }
}

// WithLogger sets the logger that receives diagnostics when no handler is installed.
// A nil logger keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// Parser turns NEM12 input into meter reads. Each Parse call owns its own cursor,
// so a Parser may be reused across sequential or concurrent calls.
type Parser struct {
	separator    string
	onDiagnostic func(Diagnostic)
	logger       *slog.Logger
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		separator: DefaultSeparator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads r to the end and returns the meter reads in file order.
//
// The first record must be a file start (100) and the last a file end (900).
// Every other violation, and any read error, aborts the parse with no result.
func (p *Parser) Parse(r io.Reader) ([]*domain.MeterRead, error) {
	c := NewCursor(r, p.separator)

	var (
		reads   = []*domain.MeterRead{}
		endLine int
	)
	for {
		fields, err := c.ReadNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line := c.LinesRead()

		rt, err := ClassifyRecord(fields, line)
		if err != nil {
			return nil, err
		}
		if line == 1 && rt != RecordFileStart {
			return nil, formatErr(line, ErrFraming, "record type of the first line is expected to be %d", RecordFileStart)
		}
		if endLine != 0 {
			return nil, formatErr(line, ErrFraming, "record found after the file end record at line %d", endLine)
		}

		switch rt {
		case RecordFileStart:
			if line != 1 {
				return nil, formatErr(line, ErrFraming, "record type %d must be the first line", RecordFileStart)
			}
		case RecordFileEnd:
			endLine = line
		case RecordMeterRead:
			mr, err := p.readMeterRead(c, fields, line)
			if err != nil {
				return nil, err
			}
			reads = append(reads, mr)
		case RecordMeterVolume:
			p.diagnose(Diagnostic{Line: line, Message: "no parent meter read"})
		default:
			return nil, formatErr(line, ErrRecordType, "invalid record type (%d)", int(rt))
		}
	}

	total := c.LinesRead()
	if total == 0 {
		return nil, formatErr(0, ErrFraming, "empty file: record type of the first line is expected to be %d", RecordFileStart)
	}
	if endLine != total {
		return nil, formatErr(total, ErrFraming, "record type of the last line is expected to be %d", RecordFileEnd)
	}
	return reads, nil
}

// readMeterRead parses a 200 record and absorbs the run of 300 records that follows it.
func (p *Parser) readMeterRead(c *Cursor, fields []string, line int) (*domain.MeterRead, error) {
	mr, err := parseMeterRead(fields, line)
	if err != nil {
		return nil, err
	}
	for {
		next, err := p.peekType(c)
		if err != nil {
			return nil, err
		}
		if next != RecordMeterVolume {
			return mr, nil
		}

		rec, err := c.ReadNext()
		if err != nil {
			return nil, err
		}
		date, vol, err := parseMeterVolume(rec, c.LinesRead())
		if err != nil {
			return nil, err
		}
		mr.AppendVolume(date, vol)
	}
}

func (p *Parser) peekType(c *Cursor) (RecordType, error) {
	fields, err := c.PeekNext()
	if errors.Is(err, io.EOF) {
		return RecordInvalid, nil
	}
	if err != nil {
		return RecordInvalid, err
	}
	return ClassifyRecord(fields, c.LinesRead()+1)
}

func (p *Parser) diagnose(d Diagnostic) {
	if p.onDiagnostic != nil {
		p.onDiagnostic(d)
		return
	}
	p.logger.Warn("nem12 diagnostic", "line", d.Line, "message", d.Message)
}
