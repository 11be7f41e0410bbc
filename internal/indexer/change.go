package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// mtimeTolerance is the largest modification time difference, in
// seconds, still treated as unchanged.
const mtimeTolerance = 1e-6

// Signature is the cheap change signal of a file.
type Signature struct {
	Size  int64
	MTime float64 // seconds since the Unix epoch
}

// MTimeSeconds converts a modification time to manifest seconds.
func MTimeSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Stat reads the signature of the file at path.
func Stat(path string) (Signature, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Signature{}, err
	}
	return Signature{Size: info.Size(), MTime: MTimeSeconds(info.ModTime())}, nil
}

// NeedsReindex reports whether a file with signature sig must be
// reindexed given its last record. It never reads file contents.
func NeedsReindex(sig Signature, rec *FileRecord) bool {
	if rec == nil {
		return true
	}
	return rec.Size != sig.Size || math.Abs(rec.MTime-sig.MTime) > mtimeTolerance
}

// HashFile returns the hex SHA-256 of the file's bytes.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
