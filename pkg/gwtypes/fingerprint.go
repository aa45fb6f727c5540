package gwtypes

import (
	"hash/fnv"
	"math"
	"strconv"
)

// Fingerprint is a deterministic 64-bit hash over the cache-relevant
// fields of a ChatRequest. Requests differing only in Stream share a
// fingerprint; streaming requests are never served from cache (the
// orchestrator enforces that separately).
type Fingerprint uint64

// ComputeFingerprint reduces the request's cache-relevant fields, in a
// fixed order, through a running FNV-1a hash.
func ComputeFingerprint(r *ChatRequest) Fingerprint {
	h := fnv.New64a()
	write := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0}) // field separator, prevents "ab"+"c" == "a"+"bc" collisions
	}
	writeFloatPtr := func(f *float64) {
		if f == nil {
			write("")
			return
		}
		write(strconv.FormatUint(math.Float64bits(*f), 16))
	}
	writeIntPtr := func(v *int) {
		if v == nil {
			write("")
			return
		}
		write(strconv.Itoa(*v))
	}

	for _, m := range r.Messages {
		write(string(m.Role))
		write(m.Content.Flatten())
		write(m.Name)
	}
	write(r.Model)
	writeFloatPtr(r.Temperature)
	writeFloatPtr(r.TopP)
	writeIntPtr(r.MaxTokens)
	writeFloatPtr(r.PresencePenalty)
	writeFloatPtr(r.FrequencyPenalty)
	for _, s := range r.Stop {
		write(s)
	}
	if r.Seed != nil {
		write(strconv.FormatInt(*r.Seed, 10))
	} else {
		write("")
	}
	write(r.User)

	return Fingerprint(h.Sum64())
}
