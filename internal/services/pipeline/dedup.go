package pipeline

// DedupStore tracks invoice ids accepted during one run. It grows
// monotonically and is only touched by the single control thread.
type DedupStore struct {
	seen       map[string]struct{}
	duplicates int
}

func NewDedupStore() *DedupStore {
	return &DedupStore{seen: map[string]struct{}{}}
}

// Admit returns true the first time an id is seen; later arrivals are
// counted as duplicates and rejected, so the first copy wins.
func (s *DedupStore) Admit(invoiceID string) bool {
	if _, ok := s.seen[invoiceID]; ok {
		s.duplicates++
		return false
	}
	s.seen[invoiceID] = struct{}{}
	return true
}

func (s *DedupStore) Duplicates() int { return s.duplicates }

func (s *DedupStore) Len() int { return len(s.seen) }
