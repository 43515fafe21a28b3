// Package fileshash computes short, deterministic content digests over sets of files.
// Digests end up embedded in artifact filenames, so they are hex and fixed length.
package fileshash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"sync"
)

// DigestLen is the number of hex characters kept from the SHA-256 digest.
const DigestLen = 20

// DefaultParcelSize is how many bytes HeadTail reads from each end of a file.
const DefaultParcelSize = 1 << 20

// Parcel selects which bytes of a file take part in the digest.
type Parcel uint8

const (
	HeadTail Parcel = iota // size + first and last ParcelSize bytes
	Full                   // every byte
)

// Join selects how per-file parcels are combined.
type Join uint8

const (
	HashJoin Join = iota // digest of the per-file digests
	CatJoin              // one digest over the concatenated parcels
)

// Hasher digests files according to its parcel and join modes.
type Hasher struct {
	Parcel     Parcel
	Join       Join
	ParcelSize int64
}

var (
	// Data is used for simulation archives, which can be large.
	Data = Hasher{Parcel: HeadTail, Join: HashJoin, ParcelSize: DefaultParcelSize}
	// Script is used for the generating program.
	Script = Hasher{Parcel: Full, Join: CatJoin}
)

var ErrNoFiles = errors.New("no files to hash")

// HashFiles returns the digest of paths. The result does not depend on the order of paths.
func (h Hasher) HashFiles(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", ErrNoFiles
	}
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	outer := sha256.New()
	for _, p := range sorted {
		if h.Join == CatJoin {
			if err := h.parcel(outer, p); err != nil {
				return "", err
			}
			continue
		}
		inner := sha256.New()
		if err := h.parcel(inner, p); err != nil {
			return "", err
		}
		outer.Write([]byte(hex.EncodeToString(inner.Sum(nil))))
	}
	return hex.EncodeToString(outer.Sum(nil))[:DigestLen], nil
}

func (h Hasher) parcel(dst hash.Hash, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("hash %s: %w", path, err)
	}
	defer f.Close()

	if h.Parcel == Full {
		if _, err := io.Copy(dst, f); err != nil {
			return fmt.Errorf("hash %s: %w", path, err)
		}
		return nil
	}

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("hash %s: %w", path, err)
	}
	size := st.Size()
	n := h.ParcelSize
	if n <= 0 {
		n = DefaultParcelSize
	}
	var sz [8]byte
	binary.LittleEndian.PutUint64(sz[:], uint64(size))
	dst.Write(sz[:])

	if size <= 2*n {
		_, err = io.Copy(dst, f)
	} else {
		if _, err = io.CopyN(dst, f, n); err == nil {
			_, err = io.Copy(dst, io.NewSectionReader(f, size-n, n))
		}
	}
	if err != nil {
		return fmt.Errorf("hash %s: %w", path, err)
	}
	return nil
}

var (
	scriptOnce sync.Once
	scriptHash string
	scriptErr  error
)

// ScriptHash digests the running executable. The result is computed once per process.
func ScriptHash() (string, error) {
	scriptOnce.Do(func() {
		exe, err := os.Executable()
		if err != nil {
			scriptErr = fmt.Errorf("locate executable: %w", err)
			return
		}
		scriptHash, scriptErr = Script.HashFiles([]string{exe})
	})
	return scriptHash, scriptErr
}
