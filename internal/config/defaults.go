package config

// DefaultQueryInstruction is the BGE retrieval instruction for English models.
const DefaultQueryInstruction = "Represent this sentence for searching relevant passages: "

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8501
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./storage/documents.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "./storage/bleve"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "./storage/vectors.bin"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "./models/bge-base-en.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 512
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.QueryInstruction == "" {
		cfg.Embedding.QueryInstruction = DefaultQueryInstruction
	}
	ApplySearchDefaults(&cfg.Search)
	if len(cfg.Library.Directories) == 0 {
		cfg.Library.Directories = []string{"./pdfs"}
	}
	if cfg.Library.Recursive == nil {
		t := true
		cfg.Library.Recursive = &t
	}
}

// ApplySearchDefaults sets defaults on a search section alone.
func ApplySearchDefaults(s *SearchConfig) {
	if s.DefaultTopK == 0 {
		s.DefaultTopK = 10
	}
	if s.MaxTopK == 0 {
		s.MaxTopK = 20
	}
	if s.Mode == "" {
		s.Mode = "semantic"
	}
	if s.SemanticWeight == 0 && s.KeywordWeight == 0 {
		s.SemanticWeight = 0.7
		s.KeywordWeight = 0.3
	}
	if s.ChunkSize == 0 {
		s.ChunkSize = 200
	}
	if s.ChunkOverlap == 0 {
		s.ChunkOverlap = 20
	}
	if s.AnchorLength == 0 {
		s.AnchorLength = 50
	}
}
