// Package processor fetches layer sources and builds globe geometry from them.
package processor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// FetchError reports a source that could not be read.
type FetchError struct {
	Source string
	// StatusCode is set for HTTP responses other than 200.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status code %d", e.Source, e.StatusCode)
	}

	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetch returns the bytes of source: an http(s) URL downloaded with client,
// or a local file path.
func Fetch(ctx context.Context, client *http.Client, source string) ([]byte, error) {
	if !isRemote(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, &FetchError{Source: source, Err: err}
		}

		return data, nil
	}

	log.Debug().Str("url", source).Msg("Downloading source")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: source, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}

	return data, nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
