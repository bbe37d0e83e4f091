// Package seed loads the pharmacy directory, the medication catalogue and
// the portal users into the primary database.
package seed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// BatchSize is the number of rows written per upsert statement.
const BatchSize = 500

var entryPattern = regexp.MustCompile(`^(\d+)\s+(.+)$`)

// Entry is one "code name" line of a catalogue file.
type Entry struct {
	Code string
	Name string
}

// ParseCatalog reads a catalogue export. The first line is a header and is
// skipped; lines that do not start with a numeric code are ignored.
func ParseCatalog(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var entries []Entry
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		m := entryPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entries = append(entries, Entry{Code: m[1], Name: strings.TrimSpace(m[2])})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}
	return entries, nil
}

// Batches splits entries into chunks of at most size.
func Batches(entries []Entry, size int) [][]Entry {
	if size <= 0 {
		size = BatchSize
	}
	var out [][]Entry
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}
		out = append(out, entries[start:end])
	}
	return out
}

// Upsert writes entries in batches. At most limit batches are in flight.
func Upsert(ctx context.Context, name string, entries []Entry, limit int, write func(ctx context.Context, batch []Entry) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, batch := range Batches(entries, BatchSize) {
		g.Go(func() error {
			if err := write(ctx, batch); err != nil {
				return fmt.Errorf("%s batch %d: %w", name, i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Str("component", "seed").Str("catalog", name).Int("rows", len(entries)).Msg("catalogue upserted")
	return nil
}
