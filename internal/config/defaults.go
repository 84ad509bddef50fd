package config

// DefaultConfig returns the built-in settings. Batch sizes and the page
// universe are tuning values: discovery batches are small so random draws
// rotate often, search batches are larger to show more of one author.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:           "https://api.artic.edu/api/v1",
			PageUniverse:      1000,
			DiscoveryBatch:    15,
			SearchBatch:       30,
			TimeoutSeconds:    15,
			RequestsPerSecond: 2,
		},
		Translation: TranslationConfig{
			Enabled:        false,
			Endpoint:       "http://localhost:5000",
			SourceLang:     "auto",
			TargetLang:     "en",
			TimeoutSeconds: 10,
		},
		Assets: AssetsConfig{
			TimeoutSeconds: 20,
			CacheSize:      64,
			MaxBytes:       8 << 20,
		},
		Feed: FeedConfig{
			TailThreshold: 3,
			PrefetchAhead: 2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Events: true,
		},
		Store: StoreConfig{
			Path: ":memory:",
		},
	}
}
