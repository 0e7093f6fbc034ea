//go:build !(amd64 || arm64 || ppc64le || riscv64) || nounsafe || purego || appengine

package le

import (
	"encoding/binary"
)

func Load32(b []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(b[i:])
}

func Load64(b []byte, i int) uint64 {
	return binary.LittleEndian.Uint64(b[i:])
}

func Store32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

func Store64(b []byte, v uint64) {
	binary.LittleEndian.PutUint64(b, v)
}
