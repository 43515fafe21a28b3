package dishviz

import (
	"github.com/lukaszgryglicki/dishviz/internal/archive"
	"go.uber.org/zap"
)

var (
	Debug = false        // set to true for verbose debug output
	Log   = zap.NewNop() // replaced by the CLI with a configured logger
	// OpenArchive opens a snapshot archive for reading; tests swap it for in-memory fixtures.
	OpenArchive = func(path string) (Archive, error) {
		s, err := archive.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	// Compile time check that the SQLite store satisfies the reader interface
	_ Archive = (*archive.Store)(nil)
)
