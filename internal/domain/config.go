package domain

// KeyPrefix is the default namespace for every storage key. Repositories
// accept an override so several deployments can share one database.
const KeyPrefix = "consdex:"

// VectorConfig carries the encoder settings the service was started
// with. Dimensions is fixed at configuration time; every stored vector
// must match it.
type VectorConfig struct {
	Model               string
	Dimensions          int
	DocumentInstruction string
	QueryInstruction    string
}

// DefaultVectorConfig returns the default configuration for report narratives.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:      "text-embedding-3-small",
		Dimensions: 768,
	}
}
