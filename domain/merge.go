package domain

// Safe setters used during reconciliation and enrichment: a candidate value is
// applied only when the current field is still unset. Already-set local fields
// stay frozen against later writes.

// MergeString keeps current when non-empty.
func MergeString(current, candidate string) string {
	if current != "" {
		return current
	}
	return candidate
}

// MergeInt keeps current when already assigned (non-zero).
func MergeInt(current, candidate int) int {
	if current != 0 {
		return current
	}
	return candidate
}

// MergeImportance keeps current unless unset.
func MergeImportance(current, candidate Importance) Importance {
	if current != "" {
		return current
	}
	return candidate
}

// MergeUrgency keeps current unless unset.
func MergeUrgency(current, candidate Urgency) Urgency {
	if current != "" {
		return current
	}
	return candidate
}

// MergeTags keeps current when non-empty, otherwise copies candidate.
func MergeTags(current, candidate []string) []string {
	if len(current) > 0 {
		return current
	}
	if len(candidate) == 0 {
		return current
	}
	return append([]string(nil), candidate...)
}

// AbsorbEnrichment copies the richer attributes of src onto dst without ever
// overwriting a field dst already carries. Used when a restored orphan turns
// out to duplicate an existing linked task: the orphan's enrichment moves onto
// the survivor, never the reverse.
func AbsorbEnrichment(dst, src *Task) {
	if dst == nil || src == nil {
		return
	}
	dst.Importance = MergeImportance(dst.Importance, src.Importance)
	dst.Urgency = MergeUrgency(dst.Urgency, src.Urgency)
	dst.Category = MergeString(dst.Category, src.Category)
	dst.DurationMinutes = MergeInt(dst.DurationMinutes, src.DurationMinutes)
	dst.Tags = MergeTags(dst.Tags, src.Tags)
	dst.Description = MergeString(dst.Description, src.Description)
}
