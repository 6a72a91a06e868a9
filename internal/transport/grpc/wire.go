package grpcserver

import (
	"encoding/json"
	"fmt"

	"github.com/milad/nem12/internal/domain"
	"github.com/milad/nem12/internal/nem12"
	"github.com/milad/nem12/internal/service"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request and response shapes carried inside structpb.Struct. Volumes travel as
// fixed two-digit decimal strings so no precision is lost to float64.

type ListMeterReadsRequest struct {
	NMI       string `json:"nmi,omitempty"`
	PageSize  int32  `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

type ListMeterReadsResponse struct {
	MeterReads    []MeterRead `json:"meterReads"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

type ListVolumesRequest struct {
	NMI   string `json:"nmi"`
	Start string `json:"start,omitempty"` // YYYY-MM-DD, inclusive
	End   string `json:"end,omitempty"`   // YYYY-MM-DD, exclusive
}

type ListVolumesResponse struct {
	Volumes []DailyVolume `json:"volumes"`
}

type ParseResponse struct {
	MeterReads  []MeterRead  `json:"meterReads"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

type MeterRead struct {
	NMI         string   `json:"nmi"`
	EnergyUnit  string   `json:"energyUnit"`
	TotalVolume string   `json:"totalVolume"`
	Volumes     []Volume `json:"volumes"`
}

type Volume struct {
	Date    string `json:"date"`
	Volume  string `json:"volume"`
	Quality string `json:"quality"`
}

type DailyVolume struct {
	NMI        string `json:"nmi"`
	EnergyUnit string `json:"energyUnit"`
	Volume
}

type Diagnostic struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return structpb.NewStruct(m)
}

func fromStruct(s *structpb.Struct, v any) error {
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

func toWireMeterRead(mr *domain.MeterRead) MeterRead {
	dates := mr.Dates()
	out := MeterRead{
		NMI:         mr.NMI,
		EnergyUnit:  mr.EnergyUnit.String(),
		TotalVolume: mr.TotalVolume().StringFixed(domain.VolumeScale),
		Volumes:     make([]Volume, 0, len(dates)),
	}
	for _, d := range dates {
		v, _ := mr.Volume(d)
		out.Volumes = append(out.Volumes, toWireVolume(d, v))
	}
	return out
}

func toWireMeterReads(reads []*domain.MeterRead) []MeterRead {
	out := make([]MeterRead, 0, len(reads))
	for _, mr := range reads {
		out = append(out, toWireMeterRead(mr))
	}
	return out
}

func toWireVolume(d domain.Date, v domain.MeterVolume) Volume {
	return Volume{Date: d.String(), Volume: v.String(), Quality: v.Quality().String()}
}

func toWireDailyVolume(v service.DailyVolume) DailyVolume {
	return DailyVolume{
		NMI:        v.NMI,
		EnergyUnit: v.EnergyUnit.String(),
		Volume:     toWireVolume(v.Date, v.Volume),
	}
}

func toWireDiagnostics(diags []nem12.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, Diagnostic{Line: d.Line, Message: d.Message})
	}
	return out
}
