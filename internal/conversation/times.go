package conversation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var clockRe = regexp.MustCompile(`(\d{1,2})[:\s]?(\d{2})?`)

// nearestTolerance is how far (in minutes) a spoken time may sit from an
// offered slot and still count as a match.
const nearestTolerance = 30

// MatchTime resolves a spoken time against the ascending list of open "HH:MM"
// slots. Branches are tried in order, first non-empty result wins:
//
//	(a) a numeric clock time with am/pm correction; exact slot or the nearest
//	    slot within 30 minutes (ties go to the earlier slot)
//	(b) day-part keywords: morning [8,12), afternoon [12,17), evening >= 17
//	(c) literal substring containment between input and a slot string
func MatchTime(input string, slots []string) (string, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" || len(slots) == 0 {
		return "", false
	}

	if m := clockRe.FindStringSubmatch(in); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if strings.Contains(in, "pm") && hour < 12 {
			hour += 12
		} else if strings.Contains(in, "am") && hour == 12 {
			hour = 0
		}

		want := fmt.Sprintf("%02d:%02d", hour, minute)
		for _, slot := range slots {
			if slot == want {
				return slot, true
			}
		}

		target := hour*60 + minute
		best := ""
		bestDiff := nearestTolerance + 1
		for _, slot := range slots {
			mins, ok := slotMinutes(slot)
			if !ok {
				continue
			}
			diff := target - mins
			if diff < 0 {
				diff = -diff
			}
			if diff < bestDiff {
				bestDiff = diff
				best = slot
			}
		}
		if best != "" {
			return best, true
		}
	}

	if strings.Contains(in, "morning") {
		if slot, ok := firstSlotInRange(slots, 8, 12); ok {
			return slot, true
		}
	}
	if strings.Contains(in, "afternoon") {
		if slot, ok := firstSlotInRange(slots, 12, 17); ok {
			return slot, true
		}
	}
	if strings.Contains(in, "evening") {
		if slot, ok := firstSlotInRange(slots, 17, 24); ok {
			return slot, true
		}
	}

	for _, slot := range slots {
		if strings.Contains(in, slot) || strings.Contains(slot, in) {
			return slot, true
		}
	}

	return "", false
}

func slotMinutes(slot string) (int, bool) {
	parts := strings.SplitN(slot, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}

func firstSlotInRange(slots []string, fromHour, toHour int) (string, bool) {
	for _, slot := range slots {
		mins, ok := slotMinutes(slot)
		if !ok {
			continue
		}
		h := mins / 60
		if h >= fromHour && h < toHour {
			return slot, true
		}
	}
	return "", false
}
