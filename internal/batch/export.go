package batch

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"weaver/pkg/zip"
)

// BundleName is the filename of the export archive.
const BundleName = "background-weaver-pack.zip"

// exportFetchLimit bounds how many result fetches run at once during export.
const exportFetchLimit = 4

type fetchFunc func(ctx context.Context, url string) ([]byte, string, error)

// VariationFileName is the download name for one result, keyed by the slot's
// 1-based position in the batch.
func VariationFileName(index int) string {
	return fmt.Sprintf("background-weaver-variation-%d.jpg", index+1)
}

func archiveEntryName(index int) string {
	return fmt.Sprintf("variation-%d.jpg", index+1)
}

// ExportAll bundles every completed slot, in original index order, into a
// single zip archive. Entries keep their original 1-based variation number
// even when failed siblings leave gaps. A result that cannot be fetched is
// logged and dropped; it never aborts the export of the remaining items.
func (c *Coordinator) ExportAll(ctx context.Context) ([]byte, int, error) {
	type doneSlot struct {
		index int
		url   string
	}

	c.mu.Lock()
	var done []doneSlot
	for i, slot := range c.slots {
		if slot.Status == StatusDone && slot.ResultURL != "" {
			done = append(done, doneSlot{index: i, url: slot.ResultURL})
		}
	}
	c.mu.Unlock()

	if len(done) == 0 {
		return nil, 0, ErrNothingToExport
	}

	results := make([][]byte, len(done))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(exportFetchLimit)
	for i, slot := range done {
		i, slot := i, slot
		eg.Go(func() error {
			data, _, err := c.fetch(egCtx, slot.url)
			if err != nil {
				c.logger.Warn().Err(err).Int("variation", slot.index+1).Msg("batch: export fetch failed, dropping item")
				return nil
			}
			results[i] = data
			return nil
		})
	}
	_ = eg.Wait()

	var assets []zip.Asset
	for i, slot := range done {
		if len(results[i]) == 0 {
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: archiveEntryName(slot.index),
			Data:     results[i],
		})
	}
	if len(assets) == 0 {
		return nil, 0, ErrNothingToExport
	}

	return zip.ArchiveAssets(assets), len(assets), nil
}

// ExportOne fetches a single completed slot's result for direct download.
func (c *Coordinator) ExportOne(ctx context.Context, index int) (data []byte, mime string, err error) {
	slot, err := c.Slot(index)
	if err != nil {
		return nil, "", err
	}
	if slot.Status != StatusDone || slot.ResultURL == "" {
		return nil, "", ErrSlotNotDone
	}
	return c.fetchResult(ctx, slot.ResultURL)
}

func (c *Coordinator) fetchResult(ctx context.Context, url string) ([]byte, string, error) {
	return c.fetch(ctx, url)
}

var exportHTTPClient = &http.Client{Timeout: 30 * time.Second}

// defaultFetch resolves a result handle to raw bytes. Data URLs are decoded
// in-process; anything else is fetched over HTTP.
func defaultFetch(ctx context.Context, target string) ([]byte, string, error) {
	if strings.HasPrefix(target, "data:") {
		return decodeDataURL(target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create fetch request: %w", err)
	}
	resp, err := exportHTTPClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("fetch result status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read result: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func decodeDataURL(target string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(target, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data url")
	}
	mime := strings.TrimSuffix(meta, ";base64")
	if mime == "" {
		mime = "image/png"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data url: %w", err)
	}
	return data, mime, nil
}
