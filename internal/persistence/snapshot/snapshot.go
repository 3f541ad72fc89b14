// Package snapshot writes colony state snapshots as zstd-compressed JSON.
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"emberhold/internal/sim/colony"
)

func Write(path string, snap colony.StateSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	if err := json.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("snapshot encode: %w", err)
	}
	return nil
}

func Read(path string) (colony.StateSnapshot, error) {
	var snap colony.StateSnapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	if err := json.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("snapshot decode: %w", err)
	}
	return snap, nil
}
