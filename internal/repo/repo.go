package repo

import (
	"context"

	"github.com/milad/nem12/internal/domain"
)

// MeterReadRepository provides access to parsed meter reads.
type MeterReadRepository interface {
	// List returns meter reads in file order. An empty nmi returns every read,
	// otherwise only the reads for that NMI.
	// The returned reads must be treated as read-only by callers.
	List(ctx context.Context, nmi string) ([]*domain.MeterRead, error)
}
