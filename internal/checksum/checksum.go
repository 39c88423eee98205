package checksum

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Sum returns the hex-encoded BLAKE3 digest of data.
func Sum(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}
