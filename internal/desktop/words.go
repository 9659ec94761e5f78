package desktop

// DefaultAdjectives is the built-in adjective bank for new file names.
var DefaultAdjectives = []string{
	"Ephemeral", "Liminal", "Juxtaposed", "Laconic", "Penumbral", "Chromatic",
	"Stochastic", "Asymptotic", "Sonorous", "Deconstructed", "Silent", "Forgotten",
	"Hollow", "Radiant", "Fleeting", "Sublime", "Austere", "Fragmented",
}

// DefaultNouns is the built-in noun bank for new file names.
var DefaultNouns = []string{
	"Void", "Agony", "Serenity", "Fragmentation", "Echo", "Simulacrum",
	"Palimpsest", "Nostalgia", "Absence", "Entropy", "Silence", "Dream",
	"Memory", "Ruin", "Petal", "Path", "Whisper", "Horizon",
}
