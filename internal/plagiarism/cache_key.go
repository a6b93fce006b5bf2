package plagiarism

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/zeebo/blake3"
)

// CacheKey identifies the result of comparing a with b under cfg. Names are part of the key
// since a parse error names its file.
func CacheKey(a, b models.SourceFile, cfg EngineConfig) string {
	h := blake3.New()
	var buf [8]byte
	for _, f := range []models.SourceFile{a, b} {
		_, _ = h.Write(append([]byte(f.Name), 0))
		_, _ = h.Write(append([]byte(f.Language), 0))
		binary.LittleEndian.PutUint64(buf[:], uint64(len(f.Content)))
		_, _ = h.Write(buf[:])
		_, _ = h.Write(f.Content)
	}
	_, _ = h.Write([]byte(cfg.Digest()))
	return "similarity:result:" + hex.EncodeToString(h.Sum(nil))
}

// Digest is the content hash stored with analysed file metadata
func Digest(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}
