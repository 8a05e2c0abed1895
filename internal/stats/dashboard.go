package stats

import (
	"sort"
	"time"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/distributions"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/documents"
)

// topRoomCount caps the per-room ranking shown on the dashboard.
const topRoomCount = 5

// unspecifiedRoomName labels distributions whose room was deleted after the
// send.
const unspecifiedRoomName = "ไม่ระบุ"

var thaiShortMonths = [...]string{
	"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.",
	"ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค.",
}

// MonthlyEntry counts registered documents per variant for one calendar
// month. The label renders the Thai short month with the two-digit Buddhist
// era year, the way the dashboard chart displays it.
type MonthlyEntry struct {
	Label        string `json:"label"`
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	Incoming     int    `json:"incoming"`
	Outgoing     int    `json:"outgoing"`
	Order        int    `json:"order"`
	Memo         int    `json:"memo"`
	Announcement int    `json:"announcement"`
}

// UrgencyCount reports how many documents carry one urgency level.
type UrgencyCount struct {
	Urgency documents.Urgency `json:"urgency"`
	Count   int               `json:"count"`
}

// RoomCount reports how many distributions landed in one room.
type RoomCount struct {
	RoomName string `json:"room_name"`
	Count    int    `json:"count"`
}

// Dashboard is the aggregate the dashboard page renders.
type Dashboard struct {
	MonthlySeries   []MonthlyEntry       `json:"monthly_series"`
	UrgencyCounts   []UrgencyCount       `json:"urgency_counts"`
	RoomCounts      []RoomCount          `json:"room_counts"`
	Totals          map[string]int       `json:"totals"`
	PendingIncoming []documents.Document `json:"pending_incoming"`
}

// Input holds the already fetched collections the dashboard aggregates.
// Build never touches storage itself.
type Input struct {
	Documents     []documents.Document
	Distributions []distributions.Distribution
	Pending       []documents.Document
	Now           time.Time
}

// Build computes the dashboard aggregate. The monthly series always spans
// the trailing six calendar months ending at Now, oldest first, and the
// urgency breakdown always lists all four levels even when zero.
func Build(input Input) Dashboard {
	return Dashboard{
		MonthlySeries:   monthlySeries(input.Documents, input.Now),
		UrgencyCounts:   urgencyCounts(input.Documents),
		RoomCounts:      roomCounts(input.Distributions),
		Totals:          totals(input.Documents),
		PendingIncoming: input.Pending,
	}
}

func monthlySeries(docs []documents.Document, now time.Time) []MonthlyEntry {
	series := make([]MonthlyEntry, 0, 6)
	index := make(map[[2]int]*MonthlyEntry, 6)
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for offset := 5; offset >= 0; offset-- {
		month := anchor.AddDate(0, -offset, 0)
		series = append(series, MonthlyEntry{
			Label: monthLabel(month),
			Year:  month.Year(),
			Month: int(month.Month()),
		})
		index[[2]int{month.Year(), int(month.Month())}] = &series[len(series)-1]
	}

	for _, doc := range docs {
		created := doc.CreatedAt.UTC()
		entry, ok := index[[2]int{created.Year(), int(created.Month())}]
		if !ok {
			continue
		}
		switch doc.Kind {
		case documents.KindIncoming:
			entry.Incoming++
		case documents.KindOutgoing:
			entry.Outgoing++
		case documents.KindOrder:
			entry.Order++
		case documents.KindMemo:
			entry.Memo++
		case documents.KindAnnouncement:
			entry.Announcement++
		}
	}
	return series
}

// monthLabel formats the Thai short month with the Buddhist era year, two
// digits, e.g. "ส.ค. 69" for August 2026.
func monthLabel(month time.Time) string {
	buddhistYear := month.Year() + 543
	return thaiShortMonths[int(month.Month())-1] + " " + twoDigits(buddhistYear%100)
}

func twoDigits(value int) string {
	return string([]byte{byte('0' + value/10), byte('0' + value%10)})
}

func urgencyCounts(docs []documents.Document) []UrgencyCount {
	counts := []UrgencyCount{
		{Urgency: documents.UrgencyMostUrgent},
		{Urgency: documents.UrgencyVeryUrgent},
		{Urgency: documents.UrgencyUrgent},
		{Urgency: documents.UrgencyNormal},
	}
	for _, doc := range docs {
		for i := range counts {
			if counts[i].Urgency == doc.Urgency {
				counts[i].Count++
				break
			}
		}
	}
	return counts
}

func roomCounts(entries []distributions.Distribution) []RoomCount {
	byName := make(map[string]int)
	for _, entry := range entries {
		name := unspecifiedRoomName
		if entry.Room != nil && entry.Room.Name != "" {
			name = entry.Room.Name
		}
		byName[name]++
	}

	ranked := make([]RoomCount, 0, len(byName))
	for name, count := range byName {
		ranked = append(ranked, RoomCount{RoomName: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].RoomName < ranked[j].RoomName
	})
	if len(ranked) > topRoomCount {
		ranked = ranked[:topRoomCount]
	}
	return ranked
}

func totals(docs []documents.Document) map[string]int {
	result := make(map[string]int, len(documents.Kinds()))
	for _, kind := range documents.Kinds() {
		result[string(kind)] = 0
	}
	for _, doc := range docs {
		result[string(doc.Kind)]++
	}
	return result
}
