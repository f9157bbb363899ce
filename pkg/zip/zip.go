package zip

import (
	"archive/zip"
	"bytes"
)

// Asset is one entry of an export bundle.
type Asset struct {
	Filename string
	Data     []byte
}

// ArchiveAssets packs the assets into an in-memory zip archive, preserving
// the given order.
func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		w, err := zw.Create(asset.Filename)
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}
	_ = zw.Close()
	return buf.Bytes()
}
