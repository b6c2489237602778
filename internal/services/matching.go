package services

import (
	"strings"

	"github.com/landscaipe/contractor-portal/internal/models"
)

// Score weights. Tuned for descending sort only; absolute values carry no
// meaning beyond their relative size.
const (
	scoreZipServed    = 50
	scoreMajorOverlap = 25
	scorePerTagHit    = 8
)

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func tagSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[normalizeTag(t)] = true
	}
	return set
}

func overlaps(a, b []string) bool {
	set := tagSet(a)
	for _, x := range b {
		if set[normalizeTag(x)] {
			return true
		}
	}
	return false
}

// Matches reports whether the contractor may see and act on the lead.
// Assigned leads are visible only to their winner; open leads require the
// contractor to explicitly serve the lead's zip (exact membership, no
// radius matching) and to overlap any category/tag gates the lead sets.
// Admins see everything.
func Matches(contractor *models.Contractor, lead *models.Lead) bool {
	if contractor == nil || lead == nil {
		return false
	}
	if contractor.IsAdmin() {
		return true
	}
	if lead.Status == models.LeadStatusAssigned {
		return lead.AssignedContractorID != nil && *lead.AssignedContractorID == contractor.ID
	}
	if lead.Status != models.LeadStatusOpen {
		return false
	}

	servesZip := false
	for _, z := range contractor.ServiceZips {
		if z == lead.Zip {
			servesZip = true
			break
		}
	}
	if !servesZip {
		return false
	}

	if len(lead.MajorCategories) > 0 && !overlaps(contractor.MajorCategories, lead.MajorCategories) {
		return false
	}
	if len(lead.RequiredTags) > 0 && !overlaps(contractor.SubCategories, lead.RequiredTags) {
		return false
	}
	return true
}

// Score ranks a matched lead for the contractor. Pure and deterministic:
// identical inputs always produce the same score.
func Score(contractor *models.Contractor, lead *models.Lead) int {
	score := 0

	for _, z := range contractor.ServiceZips {
		if z == lead.Zip {
			score += scoreZipServed
			break
		}
	}

	if overlaps(contractor.MajorCategories, lead.MajorCategories) {
		score += scoreMajorOverlap
	}

	subs := tagSet(contractor.SubCategories)
	for _, t := range lead.RequiredTags {
		if subs[normalizeTag(t)] {
			score += scorePerTagHit
		}
	}

	return score
}
