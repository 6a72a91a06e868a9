package nem12

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultSeparator splits the fields of a record.
const DefaultSeparator = ","

// Cursor reads separator-delimited records line by line with one record of lookahead.
// At most one line is held in memory ahead of the consumer.
type Cursor struct {
	r   *bufio.Reader
	sep string

	next    []string // pending record filled by PeekNext
	pending bool
	eof     bool

	linesRead int
}

// NewCursor returns a Cursor over r. An empty sep selects DefaultSeparator.
func NewCursor(r io.Reader, sep string) *Cursor {
	if sep == "" {
		sep = DefaultSeparator
	}
	return &Cursor{r: bufio.NewReader(r), sep: sep}
}

// ReadNext consumes and returns the next record. It returns io.EOF once the input is exhausted.
func (c *Cursor) ReadNext() ([]string, error) {
	fields, err := c.PeekNext()
	if err != nil {
		return nil, err
	}
	c.next, c.pending = nil, false
	c.linesRead++
	return fields, nil
}

// PeekNext returns the record the next ReadNext will return without consuming it.
// Repeated calls without an intervening ReadNext return the same record.
func (c *Cursor) PeekNext() ([]string, error) {
	if c.eof {
		return nil, io.EOF
	}
	if !c.pending {
		line, err := c.readLine()
		if errors.Is(err, io.EOF) {
			c.eof = true
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		c.next, c.pending = splitRecord(line, c.sep), true
	}
	return c.next, nil
}

// splitRecord splits line on sep and drops trailing empty fields, keeping at least one
// so a blank line still reads as a single empty field.
func splitRecord(line, sep string) []string {
	fields := strings.Split(line, sep)
	n := len(fields)
	for n > 1 && fields[n-1] == "" {
		n--
	}
	return fields[:n]
}

// LinesRead reports how many records ReadNext has consumed. Peeks are not counted.
func (c *Cursor) LinesRead() int { return c.linesRead }

func (c *Cursor) readLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			// last line without a trailing newline
			return strings.TrimSuffix(line, "\r"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", fmt.Errorf("%w: line %d: %w", ErrIO, c.linesRead+1, err)
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}
