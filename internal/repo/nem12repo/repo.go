package nem12repo

import (
	"context"
	"fmt"
	"os"

	"github.com/milad/nem12/internal/domain"
	"github.com/milad/nem12/internal/nem12"
	"github.com/milad/nem12/internal/repo"
)

var _ repo.MeterReadRepository = (*Repo)(nil)

// Repo is an in-memory repository backed by a NEM12 file loaded at startup.
type Repo struct {
	reads []*domain.MeterRead // file order
	byNMI map[string][]*domain.MeterRead
}

// NewFromFile parses the NEM12 file at path. The file is accepted whole or not at all.
func NewFromFile(path string, opts ...nem12.Option) (*Repo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open nem12 %q: %w", path, err)
	}
	defer f.Close()

	reads, err := nem12.NewParser(opts...).Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse nem12 %q: %w", path, err)
	}
	return New(reads), nil
}

func New(reads []*domain.MeterRead) *Repo {
	r := &Repo{
		reads: append([]*domain.MeterRead(nil), reads...),
		byNMI: make(map[string][]*domain.MeterRead),
	}
	for _, mr := range r.reads {
		r.byNMI[mr.NMI] = append(r.byNMI[mr.NMI], mr)
	}
	return r
}

func (r *Repo) List(ctx context.Context, nmi string) ([]*domain.MeterRead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reads := r.reads
	if nmi != "" {
		reads = r.byNMI[nmi]
	}
	out := append([]*domain.MeterRead(nil), reads...)
	return out, nil
}
