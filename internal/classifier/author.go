package classifier

import "github.com/jonesrussell/north-cloud/prayerbook/internal/domain"

// PartitionByAuthor groups prayers by author instead of by rules. Authors in
// order come first, in that order; any other author follows in first-seen
// order. Authors with no prayers get no bucket. Labels use the spelling from
// order for known authors and the first-seen spelling otherwise.
func PartitionByAuthor(prayers []domain.Prayer, order []domain.Author) []Bucket {
	groups := make(map[string][]domain.Prayer)
	spelling := make(map[string]string)
	var seen []string

	for _, p := range prayers {
		key := p.Author.Key()
		if _, ok := groups[key]; !ok {
			seen = append(seen, key)
			spelling[key] = string(p.Author)
		}
		groups[key] = append(groups[key], p)
	}

	buckets := make([]Bucket, 0, len(groups))
	placed := make(map[string]bool, len(groups))
	for _, author := range order {
		key := author.Key()
		if placed[key] {
			continue
		}
		if members, ok := groups[key]; ok {
			buckets = append(buckets, Bucket{Label: string(author), Prayers: members})
			placed[key] = true
		}
	}
	for _, key := range seen {
		if placed[key] {
			continue
		}
		buckets = append(buckets, Bucket{Label: spelling[key], Prayers: groups[key]})
		placed[key] = true
	}
	return buckets
}
