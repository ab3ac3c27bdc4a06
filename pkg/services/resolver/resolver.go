package resolver

import (
	"regexp"
	"sort"
	"strings"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
)

// ReferenceList is a cohort membership list: the SKUs and ASINs managed under
// one advertising approach.
type ReferenceList struct {
	Cohort domain.CohortTag
	SKUs   []string
	ASINs  []string
}

// Resolver maps entity keys to cohort tags. It is built once per run and is
// pure afterwards: no I/O, no randomness, same key always resolves to the
// same tag.
type Resolver struct {
	bySKU     map[string]domain.CohortTag
	byASIN    map[string]domain.CohortTag
	conflicts []domain.TagConflict
}

// New builds a resolver from the reference lists. Keys claimed by more than
// one cohort are never resolved by list order: they resolve to Unknown, and
// New returns a *domain.ConflictingTagError alongside the (still usable)
// resolver so the caller can surface the conflicts for manual follow-up.
func New(lists []ReferenceList) (*Resolver, error) {
	if len(lists) == 0 {
		return nil, domain.ErrNoReferenceLists
	}

	r := &Resolver{
		bySKU:  make(map[string]domain.CohortTag),
		byASIN: make(map[string]domain.CohortTag),
	}
	skuOwners := make(map[string]map[domain.CohortTag]bool)
	asinOwners := make(map[string]map[domain.CohortTag]bool)

	for _, list := range lists {
		for _, sku := range list.SKUs {
			sku = strings.TrimSpace(sku)
			if sku == "" {
				continue
			}
			claim(skuOwners, sku, list.Cohort)
			r.bySKU[sku] = list.Cohort
		}
		for _, asin := range list.ASINs {
			asin = strings.ToUpper(strings.TrimSpace(asin))
			if asin == "" {
				continue
			}
			claim(asinOwners, asin, list.Cohort)
			r.byASIN[asin] = list.Cohort
		}
	}

	r.conflicts = append(r.conflicts, collectConflicts(skuOwners, "sku")...)
	r.conflicts = append(r.conflicts, collectConflicts(asinOwners, "asin")...)
	for _, c := range r.conflicts {
		switch c.KeyType {
		case "sku":
			delete(r.bySKU, c.Key)
		case "asin":
			delete(r.byASIN, c.Key)
		}
	}

	if len(r.conflicts) > 0 {
		return r, &domain.ConflictingTagError{Conflicts: r.conflicts}
	}
	return r, nil
}

func claim(owners map[string]map[domain.CohortTag]bool, key string, cohort domain.CohortTag) {
	if owners[key] == nil {
		owners[key] = make(map[domain.CohortTag]bool)
	}
	owners[key][cohort] = true
}

func collectConflicts(owners map[string]map[domain.CohortTag]bool, keyType string) []domain.TagConflict {
	var out []domain.TagConflict
	for key, cohorts := range owners {
		if len(cohorts) < 2 {
			continue
		}
		names := make([]string, 0, len(cohorts))
		for c := range cohorts {
			names = append(names, string(c))
		}
		sort.Strings(names)
		out = append(out, domain.TagConflict{Key: key, KeyType: keyType, Cohorts: names})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Conflicts returns the keys that were claimed by more than one cohort.
func (r *Resolver) Conflicts() []domain.TagConflict { return r.conflicts }

// Resolve tags an entity. SKU membership takes priority over ASIN membership
// when both are present; an entity in neither list is Unknown.
func (r *Resolver) Resolve(sku, asin string) domain.CohortTag {
	if tag, ok := r.bySKU[strings.TrimSpace(sku)]; ok {
		return tag
	}
	if tag, ok := r.byASIN[strings.ToUpper(strings.TrimSpace(asin))]; ok {
		return tag
	}
	return domain.CohortUnknown
}

// Tag resolves a record, falling back to the ASIN embedded in the campaign
// name when the record carries no explicit SKU/ASIN.
func (r *Resolver) Tag(rec domain.Record) domain.CohortTag {
	asin := rec.ASIN
	if rec.SKU == "" && asin == "" {
		asin = ExtractASIN(rec.CampaignName)
	}
	return r.Resolve(rec.SKU, asin)
}

// Campaign names embed the advertised ASIN (B0 + 8 alphanumerics).
var asinPattern = regexp.MustCompile(`B[A-Z0-9]{9}`)

// ExtractASIN pulls the first ASIN-shaped token out of a campaign name, or
// returns "" when none is present.
func ExtractASIN(campaignName string) string {
	return asinPattern.FindString(strings.ToUpper(campaignName))
}
