package tensor

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// Checksum returns the xxh3-64 digest of the tensor's element bytes.
// Shape and dtype are not part of the digest.
func Checksum(t *RawTensor) uint64 {
	return xxh3.Hash(t.Data())
}

// ChecksumHex returns Checksum formatted as 16 lower-case hex digits.
func ChecksumHex(t *RawTensor) string {
	return fmt.Sprintf("%016x", Checksum(t))
}
