package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// VolumeScale is the number of fractional digits every volume carries.
const VolumeScale = 2

// MeterVolume is the volume recorded for one day, with its quality flag.
// It is immutable; construct it with NewMeterVolume.
type MeterVolume struct {
	volume  decimal.Decimal
	quality Quality
}

// NewMeterVolume rounds v half-to-even to VolumeScale digits.
func NewMeterVolume(v decimal.Decimal, q Quality) MeterVolume {
	return MeterVolume{volume: v.RoundBank(VolumeScale), quality: q}
}

func (v MeterVolume) Volume() decimal.Decimal { return v.volume }
func (v MeterVolume) Quality() Quality        { return v.quality }

// String renders the volume with exactly VolumeScale fractional digits.
func (v MeterVolume) String() string {
	return v.volume.StringFixed(VolumeScale)
}

// MeterRead is the series of daily volumes reported for one NMI.
type MeterRead struct {
	NMI        string
	EnergyUnit EnergyUnit

	volumes map[Date]MeterVolume
}

func NewMeterRead(nmi string, unit EnergyUnit) *MeterRead {
	return &MeterRead{
		NMI:        nmi,
		EnergyUnit: unit,
		volumes:    make(map[Date]MeterVolume),
	}
}

// AppendVolume records v for d. A later volume for the same date replaces the earlier one.
func (m *MeterRead) AppendVolume(d Date, v MeterVolume) {
	if m.volumes == nil {
		m.volumes = make(map[Date]MeterVolume)
	}
	m.volumes[d] = v
}

func (m *MeterRead) Volume(d Date) (MeterVolume, bool) {
	v, ok := m.volumes[d]
	return v, ok
}

func (m *MeterRead) Len() int { return len(m.volumes) }

// Dates returns the dates that carry a volume, ascending.
func (m *MeterRead) Dates() []Date {
	out := make([]Date, 0, len(m.volumes))
	for d := range m.volumes {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// TotalVolume sums every daily volume.
func (m *MeterRead) TotalVolume() decimal.Decimal {
	total := decimal.Zero
	for _, v := range m.volumes {
		total = total.Add(v.volume)
	}
	return total
}
