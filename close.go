package vecsim

// Close marks the directory closed and releases the directory lock.
//
// Close does not persist anything on its own: every mutation already
// saved synchronously, so there is no pending state to write. Call
// Flush on a collection first if a previous save failure was logged
// and needs retrying.
//
// Collections obtained from the directory stay searchable in memory
// after Close but reject further mutations.
func (d *Directory) Close() error {
	if d == nil {
		return nil
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	var firstErr error
	if d.lock != nil {
		if err := d.lock.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
		d.lock = nil
	}
	return firstErr
}
