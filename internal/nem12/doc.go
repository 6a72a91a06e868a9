// Package nem12 parses the simplified NEM12 meter data file format.
//
// A file is a sequence of separator-delimited records whose first field is a
// record type code:
//
//	100                              file start, first line only
//	200,<NMI>,<energy unit>          meter read header
//	300,<YYYYMMDD>,<volume>,<A|E>    daily volume for the preceding 200 record
//	900                              file end, last line only
//
// Parsing streams the input one line at a time with a single line of lookahead
// and stops at the first violation. Volume records that appear before any meter
// read are reported through the diagnostic handler and skipped.
package nem12
