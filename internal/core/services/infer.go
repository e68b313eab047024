package services

import "github.com/vecsync/vecsync/internal/core/domain"

// InferConfig derives configuration hints from a sample of source
// documents. It is a pure function consumed once before a run, never
// inside the reconciliation loop.
func InferConfig(sample []domain.Document) domain.PartialConfig {
	if len(sample) == 0 {
		return domain.PartialConfig{}
	}

	var total int
	for _, doc := range sample {
		total += len(doc.Content)
	}
	avg := total / len(sample)

	// Large documents produce many chunks per embedding request, so
	// smaller batches keep request payloads bounded.
	batch := domain.DefaultBatchSize
	switch {
	case avg > 64*1024:
		batch = 8
	case avg > 16*1024:
		batch = 16
	}

	embed := domain.DefaultEmbedConcurrency
	if len(sample) > 1000 {
		embed = 8
	}

	return domain.PartialConfig{
		BatchSize:        &batch,
		EmbedConcurrency: &embed,
	}
}
