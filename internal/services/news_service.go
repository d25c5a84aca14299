package services

import "github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"

var newsItems = []dto.NewsItem{
	{
		ID:          1,
		Title:       "1970s Bodybuilding Hack Making a Comeback",
		Description: "Time under tension (TUT) is being revived by modern trainers for muscle growth.",
		Category:    "Subjects",
		Source:      "Men’s Journal",
		Date:        "2025-05-14",
	},
	{
		ID:          2,
		Title:       "Powerbuilding: The Best of Both Worlds",
		Description: "Powerbuilding combines bodybuilding and powerlifting for strength and aesthetics.",
		Category:    "Features",
		Source:      "British GQ",
		Date:        "2025-01-24",
	},
	{
		ID:          3,
		Title:       "Ohio Fitness Festival Tragedy",
		Description: "Bodybuilder Jodi Vance, 20, passed away due to dehydration at a competition.",
		Category:    "News",
		Source:      "The Independent",
		Date:        "2025-03-04",
	},
	{
		ID:          4,
		Title:       "Smart Gym Equipment Market Booms",
		Description: "Connected gym equipment grows with demand for fitness tech.",
		Category:    "Features",
		Source:      "PR Newswire",
		Date:        "2025-02-06",
	},
	{
		ID:          5,
		Title:       "High-Intensity Interval Training (HIIT) Trends in 2025",
		Description: "HIIT workouts evolve with new formats for maximum fat burn.",
		Category:    "Subjects",
		Source:      "Fitness Magazine",
		Date:        "2025-04-10",
	},
	{
		ID:          6,
		Title:       "Mr. Olympia 2025 Preview",
		Description: "Top contenders gear up for the ultimate bodybuilding showdown in Las Vegas.",
		Category:    "News",
		Source:      "Bodybuilding.com",
		Date:        "2025-06-01",
	},
}

// NewsService serves the curated, static news feed.
type NewsService struct{}

func NewNewsService() *NewsService {
	return &NewsService{}
}

func (s *NewsService) List() []dto.NewsItem {
	out := make([]dto.NewsItem, len(newsItems))
	copy(out, newsItems)
	return out
}
