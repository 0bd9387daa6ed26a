package domain

// Source is one collection taking part in the timeline.
type Source struct {
	Kind    Kind
	Records []Record
}

// Merge combines dose and symptom records into one timeline, doses first.
func Merge(doses, symptoms []Record) []Record {
	return MergeSources(
		Source{Kind: KindDose, Records: doses},
		Source{Kind: KindSymptom, Records: symptoms},
	)
}

// MergeSources concatenates the sources in order, tagging every record that
// has no kind with its source's kind. Nothing is sorted or deduplicated;
// ordering is the filter's job. Inputs are not modified.
func MergeSources(sources ...Source) []Record {
	total := 0
	for _, s := range sources {
		total += len(s.Records)
	}

	out := make([]Record, 0, total)
	for _, s := range sources {
		for _, r := range s.Records {
			if r.Kind == "" && !r.IsOpaque() {
				r.Kind = s.Kind
			}
			out = append(out, r)
		}
	}
	return out
}
