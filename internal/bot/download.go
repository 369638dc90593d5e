package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// download fetches an attachment to dst, retrying transient failures with
// bounded exponential backoff.
func download(ctx context.Context, url, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("attachment server error: http %d", resp.StatusCode)
			return lastErr
		}
		if resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("attachment fetch failed: http %d", resp.StatusCode)
			return backoff.Permanent(lastErr)
		}

		f, err := os.Create(dst)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer f.Close()
		if _, err := io.Copy(f, resp.Body); err != nil {
			lastErr = err
			return err
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}
