package pipeline

import "jobscrape-engine/internal/domain"

// Merge folds per-site batches, in order, into the existing corpus. A job is
// accepted only if its id is not already in the corpus or earlier in the
// same batch; accepted jobs go in front of what was there. The result is
// stably sorted newest first. It returns the merged corpus and the number of
// accepted jobs.
func Merge(existing []domain.Job, batches [][]domain.Job) ([]domain.Job, int) {
	corpus := append([]domain.Job(nil), existing...)
	added := 0

	for _, batch := range batches {
		seen := make(map[string]struct{}, len(corpus)+len(batch))
		for _, j := range corpus {
			seen[j.ID] = struct{}{}
		}

		fresh := make([]domain.Job, 0, len(batch))
		for _, j := range batch {
			if _, ok := seen[j.ID]; ok {
				continue
			}
			seen[j.ID] = struct{}{}
			fresh = append(fresh, j)
		}
		if len(fresh) == 0 {
			continue
		}
		corpus = append(fresh, corpus...)
		added += len(fresh)
	}

	domain.SortNewestFirst(corpus)
	if corpus == nil {
		corpus = []domain.Job{}
	}
	return corpus, added
}
