package cache

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Loads     int64
	Evictions int64
	Resident  int
	// PermitsHeld counts resident tables plus evicted tables still pinned by handles.
	PermitsHeld int64
}

// Stats returns cache statistics.
func (m *Manager) Stats() Stats {
	return Stats{
		Hits:        m.hits.Load(),
		Misses:      m.misses.Load(),
		Loads:       m.loads.Load(),
		Evictions:   m.evictions.Load(),
		Resident:    m.Len(),
		PermitsHeld: m.rc.TablesHeld(),
	}
}
