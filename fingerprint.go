package transformcache

import (
	"encoding/hex"
	"runtime/debug"
	"sync"
)

// Version is the library version. It is part of every cache key, so entries
// written by one release are never read by another.
const Version = "1.0.0"

const modulePath = "github.com/gophersatwork/transformcache"

var ownFingerprint = sync.OnceValue(computeFingerprint)

// DefaultFingerprint returns the fingerprint of this library build. It is
// computed on first use and reused for the lifetime of the process.
func DefaultFingerprint() string {
	return ownFingerprint()
}

func computeFingerprint() string {
	h := defaultHashFunc()
	writeChunk(h, []byte(modulePath))
	writeChunk(h, []byte(Version))
	writeChunk(h, []byte(buildVersion()))
	return hex.EncodeToString(h.Sum(nil))
}

// buildVersion returns the module version recorded in the running binary,
// or the empty string when it is not available.
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	if info.Main.Path == modulePath {
		return info.Main.Version
	}
	for _, dep := range info.Deps {
		if dep.Path != modulePath {
			continue
		}
		if dep.Replace != nil {
			return dep.Replace.Version
		}
		return dep.Version
	}
	return ""
}
