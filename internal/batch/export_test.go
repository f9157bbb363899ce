package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func dataURL(payload string) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte(payload))
}

func coordinatorWithSlots(slots []VariationSlot) *Coordinator {
	c := NewCoordinator(nil, zerolog.Nop(), 0)
	c.slots = slots
	return c
}

func archiveNames(t *testing.T, archive []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestExportAllKeepsOriginalIndices(t *testing.T) {
	c := coordinatorWithSlots([]VariationSlot{
		{Status: StatusDone, ResultURL: dataURL("first")},
		{Status: StatusError, FailureReason: "rate limited"},
		{Status: StatusDone, ResultURL: dataURL("third")},
		{Status: StatusDone, ResultURL: dataURL("fourth")},
	})

	archive, count, err := c.ExportAll(context.Background())
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	names := archiveNames(t, archive)
	want := []string{"variation-1.jpg", "variation-3.jpg", "variation-4.jpg"}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("entry %d = %q, want %q", i, names[i], name)
		}
	}
}

func TestExportAllWithNothingDone(t *testing.T) {
	tests := []struct {
		name  string
		slots []VariationSlot
	}{
		{name: "no batch", slots: nil},
		{name: "all pending", slots: []VariationSlot{{Status: StatusPending}, {Status: StatusPending}}},
		{name: "all failed", slots: []VariationSlot{{Status: StatusError, FailureReason: "boom"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := coordinatorWithSlots(tc.slots)
			if _, _, err := c.ExportAll(context.Background()); err != ErrNothingToExport {
				t.Errorf("ExportAll error = %v, want %v", err, ErrNothingToExport)
			}
		})
	}
}

func TestExportAllDropsUnfetchableResults(t *testing.T) {
	c := coordinatorWithSlots([]VariationSlot{
		{Status: StatusDone, ResultURL: "https://example.com/gone.jpg"},
		{Status: StatusDone, ResultURL: dataURL("still-here")},
	})
	c.fetch = func(ctx context.Context, url string) ([]byte, string, error) {
		if strings.HasPrefix(url, "https://") {
			return nil, "", fmt.Errorf("connection refused")
		}
		return decodeDataURL(url)
	}

	archive, count, err := c.ExportAll(context.Background())
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	names := archiveNames(t, archive)
	if len(names) != 1 || names[0] != "variation-2.jpg" {
		t.Errorf("entries = %v, want [variation-2.jpg]", names)
	}
}

func TestExportAllFailsWhenEveryFetchFails(t *testing.T) {
	c := coordinatorWithSlots([]VariationSlot{
		{Status: StatusDone, ResultURL: "https://example.com/a.jpg"},
	})
	c.fetch = func(ctx context.Context, url string) ([]byte, string, error) {
		return nil, "", fmt.Errorf("connection refused")
	}

	if _, _, err := c.ExportAll(context.Background()); err != ErrNothingToExport {
		t.Errorf("ExportAll error = %v, want %v", err, ErrNothingToExport)
	}
}

func TestExportOne(t *testing.T) {
	c := coordinatorWithSlots([]VariationSlot{
		{Status: StatusDone, ResultURL: dataURL("solo")},
		{Status: StatusPending},
	})

	data, mime, err := c.ExportOne(context.Background(), 0)
	if err != nil {
		t.Fatalf("ExportOne: %v", err)
	}
	if string(data) != "solo" {
		t.Errorf("data = %q, want %q", data, "solo")
	}
	if mime != "image/jpeg" {
		t.Errorf("mime = %q, want image/jpeg", mime)
	}

	if _, _, err := c.ExportOne(context.Background(), 1); err != ErrSlotNotDone {
		t.Errorf("ExportOne on pending slot: error = %v, want %v", err, ErrSlotNotDone)
	}
	if _, _, err := c.ExportOne(context.Background(), 9); err != ErrIndexOutOfRange {
		t.Errorf("ExportOne with bad index: error = %v, want %v", err, ErrIndexOutOfRange)
	}
}

func TestVariationFileName(t *testing.T) {
	if got := VariationFileName(0); got != "background-weaver-variation-1.jpg" {
		t.Errorf("VariationFileName(0) = %q", got)
	}
	if got := VariationFileName(3); got != "background-weaver-variation-4.jpg" {
		t.Errorf("VariationFileName(3) = %q", got)
	}
}

func TestDecodeDataURL(t *testing.T) {
	data, mime, err := decodeDataURL(dataURL("pixels"))
	if err != nil {
		t.Fatalf("decodeDataURL: %v", err)
	}
	if string(data) != "pixels" || mime != "image/jpeg" {
		t.Errorf("got (%q, %q), want (pixels, image/jpeg)", data, mime)
	}

	if _, _, err := decodeDataURL("https://example.com/x.jpg"); err == nil {
		t.Error("expected error for non data URL")
	}
	if _, _, err := decodeDataURL("data:image/png;base64,%%%"); err == nil {
		t.Error("expected error for invalid base64 payload")
	}
}
