package repo

type Repository struct {
	Progress IProgress
	closers  []func() error
}

func New(progress IProgress, closers ...func() error) *Repository {
	return &Repository{
		Progress: progress,
		closers:  closers,
	}
}

// Close releases the connections behind the configured backend.
func (r *Repository) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
