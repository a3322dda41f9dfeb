package artifact

import "errors"

// Status is the validation outcome for one indexed record.
type Status string

const (
	StatusValid           Status = "valid"
	StatusMissingDocument Status = "missing-document"
	StatusMalformedKey    Status = "malformed-key"
	StatusInvalidRecord   Status = "invalid-record"
)

// RecordStatus is one row of a validation report.
type RecordStatus struct {
	Key      string
	Name     string
	Status   Status
	Document bool
	Problems []string
}

// Valid reports whether the record passed every check.
func (rs RecordStatus) Valid() bool {
	return rs.Status == StatusValid
}

// Report is the result of validating every record of one kind.
type Report struct {
	Kind    Kind
	Records []RecordStatus
}

// Valid reports whether every record passed.
func (r Report) Valid() bool {
	for _, rs := range r.Records {
		if !rs.Valid() {
			return false
		}
	}
	return true
}

// Degraded returns the records that are indexed but have no document.
func (r Report) Degraded() []RecordStatus {
	var out []RecordStatus
	for _, rs := range r.Records {
		if !rs.Document {
			out = append(out, rs)
		}
	}
	return out
}

// Counts returns how many records ended in each status.
func (r Report) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, rs := range r.Records {
		counts[rs.Status]++
	}
	return counts
}

// Validate checks every indexed record: the key must parse and match the
// record, the record's fields must validate, and its document must exist.
// Document content is not compared with the record.
func (s *Store[R]) Validate(ix *Index[R]) Report {
	report := Report{Kind: s.spec.Kind}
	for _, k := range ix.Keys() {
		report.Records = append(report.Records, s.check(k, ix.Entries[k]))
	}
	return report
}

func (s *Store[R]) check(indexKey string, r R) RecordStatus {
	rs := RecordStatus{Key: indexKey, Status: StatusValid}

	// Status precedence: malformed-key, invalid-record, missing-document.
	key, err := ParseKey(indexKey, s.spec.Categorized)
	keyOK := err == nil
	if !keyOK {
		rs.Problems = append(rs.Problems, err.Error())
	} else if own := r.Key(); own != key {
		keyOK = false
		rs.Problems = append(rs.Problems, "index key does not match record ("+own.String()+")")
	}

	if err := CheckRecord(s.spec.Kind, r); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) && verr.Reason != "" {
			rs.Problems = append(rs.Problems, verr.Reason)
		} else {
			rs.Problems = append(rs.Problems, err.Error())
		}
		if keyOK {
			rs.Status = StatusInvalidRecord
		}
	}

	if keyOK {
		rs.Document = s.Exists(key)
		if !rs.Document {
			rs.Problems = append(rs.Problems, "document missing: "+s.DocumentPath(key))
			if rs.Status == StatusValid {
				rs.Status = StatusMissingDocument
			}
		}
	}
	if !keyOK {
		rs.Status = StatusMalformedKey
	}

	rs.Name = r.Title()
	return rs
}
