package mailbox

import (
	"fmt"
	"math/rand/v2"
)

var (
	adjectives = []string{
		"happy", "clever", "brave", "calm", "eager",
		"fair", "kind", "proud", "wise", "bold",
		"bright", "swift", "quiet", "lucky", "sunny",
	}
	nouns = []string{
		"tiger", "eagle", "panda", "wolf", "lion",
		"fox", "bear", "hawk", "deer", "owl",
		"otter", "lynx", "heron", "moose", "crane",
	}
)

// GenerateUsername composes an adjective, a noun and a number in [0, 1000)
// into a lowercase mailbox name such as "brightfox421". It is cosmetic
// and not suitable for anything security related.
func GenerateUsername(r *rand.Rand) string {
	adj := adjectives[r.IntN(len(adjectives))]
	noun := nouns[r.IntN(len(nouns))]
	return fmt.Sprintf("%s%s%d", adj, noun, r.IntN(1000))
}
