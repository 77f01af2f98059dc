package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kreuzsuche/data/db/corpus.db"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/kreuzsuche/data/indices/sentences.vec"
	}
	if cfg.Corpus.SourceURL == "" {
		cfg.Corpus.SourceURL = "https://downloads.tatoeba.org/exports/pairs/deu-eng.tsv"
	}
	if cfg.Corpus.CachePath == "" {
		cfg.Corpus.CachePath = "/usr/local/var/kreuzsuche/data/corpus/deu-eng.tsv"
	}
	if cfg.Corpus.Size == 0 {
		cfg.Corpus.Size = 10000
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/kreuzsuche/data/models/paraphrase-multilingual-MiniLM-L12-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 128
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 64
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Vector.IndexType == "" {
		cfg.Vector.IndexType = "flat"
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 5
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 50
	}
}
