package takeout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/location.report/internal/fsutil"
	"github.com/banshee-data/location.report/internal/location"
)

// recordsKey is the top-level array streamed by ReadRecords.
const recordsKey = "locations"

// ReadRecords streams the "locations" array of a Records.json export,
// calling fn for each element in file order. Other top-level keys are
// skipped. Decoding stops at the first error from fn or when ctx is done.
func ReadRecords(ctx context.Context, r io.Reader, fn func(location.RawSample) error) error {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding key: %w", err)
		}
		if key, _ := tok.(string); key != recordsKey {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("skipping %v: %w", tok, err)
			}
			continue
		}

		if err := expectDelim(dec, '['); err != nil {
			return err
		}
		for i := 0; dec.More(); i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			var raw location.RawSample
			if err := dec.Decode(&raw); err != nil {
				return fmt.Errorf("decoding location %d: %w", i, err)
			}
			if err := fn(raw); err != nil {
				return err
			}
		}
		if err := expectDelim(dec, ']'); err != nil {
			return err
		}
		return nil
	}
	return fmt.Errorf("%w: no %q array", location.ErrUnrecognizedFormat, recordsKey)
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding %q: %w", want, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", location.ErrUnrecognizedFormat, want, tok)
	}
	return nil
}

// LoadSamples streams a Records.json export into normalised samples. A
// malformed sample aborts the load; the error names its index.
func LoadSamples(ctx context.Context, r io.Reader) ([]location.Sample, error) {
	var samples []location.Sample
	err := ReadRecords(ctx, r, func(raw location.RawSample) error {
		s, err := raw.Sample()
		if err != nil {
			return fmt.Errorf("sample %d: %w", len(samples), err)
		}
		samples = append(samples, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

// LoadSamplesFile is LoadSamples over a named file.
func LoadSamplesFile(ctx context.Context, fsys fsutil.FileSystem, name string) ([]location.Sample, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples, err := LoadSamples(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return samples, nil
}
