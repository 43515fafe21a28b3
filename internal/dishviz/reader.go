package dishviz

import (
	"context"

	"github.com/lukaszgryglicki/dishviz/internal/archive"
)

// Archive is the read side of a snapshot archive.
type Archive interface {
	Levels(ctx context.Context) (int, error)
	PopulationSize(ctx context.Context) (int, error)
	Live(ctx context.Context, update int) (*archive.Grid[bool], error)
	Death(ctx context.Context, update int) (*archive.Grid[int64], error)
	Share(ctx context.Context, update int) (*archive.Grid[float64], error)
	Channel(ctx context.Context, level, update int) (*archive.Grid[uint64], error)
	Close() error
}
