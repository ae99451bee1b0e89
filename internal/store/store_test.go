package store

import (
	"time"

	"jobscrape-engine/internal/domain"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleJobs() []domain.Job {
	return []domain.Job{
		{ID: "Acme-Sound-Designer-Studio-X", Title: "Sound Designer", Company: "Studio X", Location: "Remote",
			Link: "https://acme.test/job/42", Source: "Acme", Keyword: "audio", DiscoveredAt: t0.Add(time.Hour)},
		{ID: "Acme-Composer-Big-Games", Title: "Composer", Company: "Big Games",
			Source: "Acme", Keyword: "music", DiscoveredAt: t0},
		{ID: "Acme-Mixer-Studio-Y", Title: "Mixer", Company: "Studio Y",
			Source: "Acme", Keyword: "music", DiscoveredAt: t0},
	}
}
