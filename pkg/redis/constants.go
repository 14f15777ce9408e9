package redis

// Redis namespaces defines the top-level key prefixes for different types of data
const (
	NamespaceCache = "cache" // For general caching
)

// Redis contexts defines the second-level key prefixes for specific domains
const (
	ContextReferral = "referral" // Referral graph and leaderboard data
)
