// Package keyname translates between metadata records and artifact filenames.
//
// A packed name is a '+'-joined list of key=value pairs. Plain keys come first in
// lexical order, then underscore-prefixed (provenance) keys in lexical order, and the
// "ext" key, if present, always comes last:
//
//	seed=3+title=death_viz+treat=even+update=100+_source_hash=ab12+ext=.png
package keyname

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Well-known keys.
const (
	KeyTitle      = "title"
	KeyUpdate     = "update"
	KeySeed       = "seed"
	KeyTreat      = "treat"
	KeyDataHash   = "_data_hathash_hash"
	KeyScriptHash = "_script_fullcat_hash"
	KeySourceHash = "_source_hash"
	KeyExt        = "ext"
)

var (
	ErrMalformed  = errors.New("malformed keyname")
	ErrMissingKey = errors.New("missing keyname key")
)

// Pack builds a deterministic filename from meta.
func Pack(meta map[string]string) (string, error) {
	var plain, hidden []string
	for k, v := range meta {
		if k == "" {
			return "", fmt.Errorf("%w: empty key", ErrMalformed)
		}
		if strings.ContainsAny(k, "+=/") || strings.ContainsAny(v, "+=/") {
			return "", fmt.Errorf("%w: %q=%q contains a reserved character", ErrMalformed, k, v)
		}
		if k == KeyExt {
			continue
		}
		if k[0] == '_' {
			hidden = append(hidden, k+"="+v)
		} else {
			plain = append(plain, k+"="+v)
		}
	}
	sort.Strings(plain)
	sort.Strings(hidden)
	parts := append(plain, hidden...)
	if ext, ok := meta[KeyExt]; ok {
		parts = append(parts, KeyExt+"="+ext)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: no keys", ErrMalformed)
	}
	return strings.Join(parts, "+"), nil
}

// Unpack parses the metadata embedded in the base name of path.
func Unpack(path string) (map[string]string, error) {
	base := filepath.Base(path)
	meta := make(map[string]string)
	for _, seg := range strings.Split(base, "+") {
		k, v, ok := strings.Cut(seg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: segment %q in %s", ErrMalformed, seg, base)
		}
		meta[k] = v
	}
	return meta, nil
}

// ArchiveMeta is the run metadata carried in a snapshot archive filename.
type ArchiveMeta struct {
	Seed       string
	Treat      string
	SourceHash string
}

// ArchiveMetaOf extracts the run metadata from an archive path.
func ArchiveMetaOf(path string) (ArchiveMeta, error) {
	meta, err := Unpack(path)
	if err != nil {
		return ArchiveMeta{}, err
	}
	var am ArchiveMeta
	for _, f := range []struct {
		key string
		dst *string
	}{
		{KeySeed, &am.Seed},
		{KeyTreat, &am.Treat},
		{KeySourceHash, &am.SourceHash},
	} {
		v, ok := meta[f.key]
		if !ok {
			return ArchiveMeta{}, fmt.Errorf("%w: %s in %s", ErrMissingKey, f.key, filepath.Base(path))
		}
		*f.dst = v
	}
	return am, nil
}
