package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEnergyUnit = errors.New("unknown energy unit")
	ErrUnknownQuality    = errors.New("unknown quality")
)

// EnergyUnit is the unit volumes of a MeterRead are expressed in.
type EnergyUnit string

const (
	EnergyUnitKWH EnergyUnit = "KWH"
)

// energyUnits lists the recognized units. Adding a unit only needs a new entry here.
var energyUnits = map[string]EnergyUnit{
	string(EnergyUnitKWH): EnergyUnitKWH,
}

// ParseEnergyUnit matches s exactly against the recognized units.
func ParseEnergyUnit(s string) (EnergyUnit, error) {
	u, ok := energyUnits[s]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownEnergyUnit, s)
	}
	return u, nil
}

func (u EnergyUnit) String() string { return string(u) }

// Quality flags whether a volume was actually read or estimated.
type Quality string

const (
	QualityActual    Quality = "A"
	QualityEstimated Quality = "E"
)

// ParseQuality matches s exactly against A and E.
func ParseQuality(s string) (Quality, error) {
	switch q := Quality(s); q {
	case QualityActual, QualityEstimated:
		return q, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownQuality, s)
}

func (q Quality) String() string { return string(q) }
