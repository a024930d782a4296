package store

// Close allows pg-backed structs to be closed via Manager.Close's type-assertion helper.
func (p *pgSearch) Close() { p.pool.Close() }
func (p *pgVector) Close() { p.pool.Close() }
