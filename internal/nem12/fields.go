package nem12

import (
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/milad/nem12/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	// NMILength is the exact length of a National Metering Identifier.
	NMILength = 10

	volumeDateLayout = "20060102"

	meterReadFields   = 3
	meterVolumeFields = 4

	// maxVolumeExponent bounds the decimal exponent of a volume. Rounding rescales
	// by 10^|exp|, so an unbounded exponent costs unbounded time and memory.
	maxVolumeExponent = 18
)

var volumeDatePattern = regexp.MustCompile(`^\d{8}$`)

// parseMeterRead builds the aggregate for a 200 record. Fields past the unit are ignored.
func parseMeterRead(fields []string, line int) (*domain.MeterRead, error) {
	if len(fields) < meterReadFields {
		return nil, formatErr(line, ErrMissingData, "invalid meter read: missing data")
	}
	nmi := fields[1]
	if utf8.RuneCountInString(nmi) != NMILength {
		return nil, formatErr(line, ErrNMILength, "invalid NMI %q: want %d characters", nmi, NMILength)
	}
	unit, err := domain.ParseEnergyUnit(fields[2])
	if err != nil {
		return nil, &FormatError{Line: line, Kind: ErrEnum, Msg: "invalid energy unit", Err: err}
	}
	return domain.NewMeterRead(nmi, unit), nil
}

// parseMeterVolume reads the date, volume and quality of a 300 record.
func parseMeterVolume(fields []string, line int) (domain.Date, domain.MeterVolume, error) {
	if len(fields) < meterVolumeFields {
		return domain.Date{}, domain.MeterVolume{}, formatErr(line, ErrMissingData, "invalid meter volume: missing data")
	}

	date, err := parseVolumeDate(fields[1], line)
	if err != nil {
		return domain.Date{}, domain.MeterVolume{}, err
	}

	volume, err := decimal.NewFromString(fields[2])
	if err != nil {
		return domain.Date{}, domain.MeterVolume{}, &FormatError{Line: line, Kind: ErrNumber, Msg: "invalid volume", Err: err}
	}
	if exp := volume.Exponent(); exp > maxVolumeExponent || exp < -maxVolumeExponent {
		return domain.Date{}, domain.MeterVolume{}, formatErr(line, ErrNumber, "invalid volume %q: exponent out of range", fields[2])
	}

	quality, err := domain.ParseQuality(fields[3])
	if err != nil {
		return domain.Date{}, domain.MeterVolume{}, &FormatError{Line: line, Kind: ErrEnum, Msg: "invalid quality", Err: err}
	}

	return date, domain.NewMeterVolume(volume, quality), nil
}

func parseVolumeDate(s string, line int) (domain.Date, error) {
	if !volumeDatePattern.MatchString(s) {
		return domain.Date{}, formatErr(line, ErrDate, "invalid date %q: want YYYYMMDD", s)
	}
	t, err := time.Parse(volumeDateLayout, s)
	if err != nil {
		return domain.Date{}, &FormatError{Line: line, Kind: ErrDate, Msg: "invalid date", Err: err}
	}
	return domain.DateOf(t), nil
}
