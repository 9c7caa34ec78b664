package verification

// Word lists for generated codes.  Each list holds short, common words that
// are easy to spell and to read out loud at the door.  "bright" appears twice
// in Adjectives; existing codes were drawn from this exact list so it is
// kept as is.
var (
	Adjectives = [...]string{
		"happy", "bright", "quick", "calm", "bold", "wise", "fair", "kind",
		"swift", "smart", "brave", "clear", "cool", "warm", "soft", "hard",
		"green", "blue", "red", "gold", "silver", "purple", "orange", "yellow",
		"great", "grand", "noble", "proud", "sweet", "fresh", "pure", "clean",
		"sharp", "bright", "dark", "light", "heavy", "quiet", "loud", "smooth",
		"rough", "gentle", "wild", "tame", "free", "safe", "strong", "mighty",
	}

	Nouns = [...]string{
		"apple", "tree", "house", "book", "chair", "table", "river", "mountain",
		"ocean", "forest", "garden", "flower", "bridge", "castle", "tower", "gate",
		"path", "stone", "cloud", "star", "moon", "sun", "wind", "rain",
		"snow", "fire", "water", "earth", "sky", "bird", "fish", "horse",
		"lion", "tiger", "eagle", "wolf", "bear", "deer", "rabbit", "fox",
		"piano", "guitar", "drum", "flute", "violin", "harp", "bell", "crown",
	}

	Objects = [...]string{
		"button", "window", "door", "key", "lock", "wheel", "lamp", "clock",
		"mirror", "brush", "pencil", "paper", "coin", "ring", "box", "cup",
		"plate", "bowl", "knife", "fork", "spoon", "bottle", "glass", "jar",
		"basket", "bucket", "barrel", "chest", "bag", "rope", "chain", "hook",
		"nail", "hammer", "saw", "axe", "shield", "sword", "arrow", "bow",
		"flag", "banner", "scroll", "map", "compass", "anchor", "sail", "mast",
	}
)

// TotalCombinations is the size of the code space.
const TotalCombinations = len(Adjectives) * len(Nouns) * len(Objects)
