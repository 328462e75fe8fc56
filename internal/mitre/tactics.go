package mitre

import (
	"sort"
	"strings"

	"secdash/pkg/models"
)

// tacticKeywords maps rule-text keywords to coarse tactic buckets. This is
// best-effort and independent of the ID-based join; it is not authoritative.
var tacticKeywords = []struct {
	keyword string
	tactic  string
}{
	{"brute force", "Credential Access"},
	{"password", "Credential Access"},
	{"authentication", "Credential Access"},
	{"login", "Initial Access"},
	{"web attack", "Initial Access"},
	{"sql injection", "Initial Access"},
	{"exploit", "Initial Access"},
	{"shellshock", "Initial Access"},
	{"rootkit", "Defense Evasion"},
	{"hidden", "Defense Evasion"},
	{"log cleared", "Defense Evasion"},
	{"scan", "Discovery"},
	{"enumeration", "Discovery"},
	{"malware", "Execution"},
	{"trojan", "Execution"},
	{"script", "Execution"},
	{"sudo", "Privilege Escalation"},
	{"privilege", "Privilege Escalation"},
	{"new user", "Persistence"},
	{"account", "Persistence"},
	{"dns", "Command and Control"},
	{"connection", "Command and Control"},
}

const tacticOther = "Other"

// TacticDistribution classifies each top rule bucket into a keyword-based
// tactic bucket, weighted by its count. The first matching keyword wins.
func TacticDistribution(topRules []models.AggregateBucket) []models.AggregateBucket {
	counts := make(map[string]int)
	for _, bucket := range topRules {
		counts[tacticFor(bucket.Key)] += bucket.Count
	}

	out := make([]models.AggregateBucket, 0, len(counts))
	for tactic, count := range counts {
		out = append(out, models.AggregateBucket{Key: tactic, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func tacticFor(description string) string {
	lowered := strings.ToLower(description)
	for _, kw := range tacticKeywords {
		if strings.Contains(lowered, kw.keyword) {
			return kw.tactic
		}
	}
	return tacticOther
}
