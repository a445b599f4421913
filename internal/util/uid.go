// Package util provides small helpers shared by the parametric map builder.
package util

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"
)

// uidRoot is the organization root under which all generated UIDs live.
const uidRoot = "1.2.826.0.1.3680043.8.498"

// GenerateDeterministicUID derives a DICOM UID from an arbitrary input
// string. The same input always yields the same UID, which keeps repeated
// builds reproducible.
func GenerateDeterministicUID(input string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(input)) // hash.Write never returns an error
	return fmt.Sprintf("%s.%d", uidRoot, h.Sum64())
}

// GenerateUID returns a fresh random UID under the organization root.
func GenerateUID() string {
	return fmt.Sprintf("%s.%d.%d", uidRoot, time.Now().UnixNano(), rand.Uint32())
}
