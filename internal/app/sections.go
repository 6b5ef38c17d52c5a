package app

import (
	"fmt"
	"sort"
)

// PartitionSections splits an ordered question id list into fixed-size,
// 1-based labeled batches ("Section 1", "Section 2", ...). The last batch may
// be shorter than size. Deterministic for the same input order; the caller
// decides whether the ids span one subject or the whole pool.
func PartitionSections(ids []int64, size int) map[string][]int64 {
	sections := make(map[string][]int64)
	if size <= 0 || len(ids) == 0 {
		return sections
	}
	count := (len(ids) + size - 1) / size
	for i := 0; i < count; i++ {
		start := i * size
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		sections[fmt.Sprintf("Section %d", i+1)] = ids[start:end]
	}
	return sections
}

// SectionLabels returns the labels in presentation order: by section number,
// so "Section 10" follows "Section 9". Labels without a parsable number sort
// first, among themselves lexicographically.
func SectionLabels(sections map[string][]int64) []string {
	labels := make([]string, 0, len(sections))
	for label := range sections {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		ni, nj := sectionNumber(labels[i]), sectionNumber(labels[j])
		if ni != nj {
			return ni < nj
		}
		return labels[i] < labels[j]
	})
	return labels
}

func sectionNumber(label string) int {
	var n int
	if _, err := fmt.Sscanf(label, "Section %d", &n); err != nil {
		return 0
	}
	return n
}
