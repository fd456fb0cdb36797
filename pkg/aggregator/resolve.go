package aggregator

import (
	"context"
	"sync"

	"github.com/matzehuels/synopackage/pkg/errors"
	"github.com/matzehuels/synopackage/pkg/registry"
)

// Request is an unresolved package query as received from a client.
type Request struct {
	SourceName string
	Model      string
	Version    string
	IsBeta     bool
	Keyword    string
	IsSearch   bool
}

func (r Request) parameters() Parameters {
	return Parameters{
		SourceName: r.SourceName,
		Model:      r.Model,
		Version:    r.Version,
		IsBeta:     r.IsBeta,
		Keyword:    r.Keyword,
	}
}

// Validate checks string lengths and rejects control characters.
// The error carries errors.ErrCodeInvalidInput.
func (r Request) Validate() error {
	for _, f := range []struct {
		name, value string
		max         int
	}{
		{"sourceName", r.SourceName, errors.MaxParameterLength},
		{"model", r.Model, errors.MaxParameterLength},
		{"version", r.Version, errors.MaxParameterLength},
		{"keyword", r.Keyword, errors.MaxKeywordLength},
	} {
		if err := errors.ValidateParameter(f.name, f.value, f.max); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) withDefaults(r Request) Request {
	if r.Model == "" {
		r.Model = s.defaults.Model
	}
	if r.Version == "" {
		r.Version = s.defaults.Version
	}
	return r
}

// Resolve validates r, fills in defaults, looks up the source, model and
// version and runs the query.
//
// Invalid input is rejected before any I/O: the returned envelope is a
// failure and err carries errors.ErrCodeInvalidInput. Names missing from
// the registry yield a failure envelope with MessageInvalidParameters and a
// nil error.
func (s *Service) Resolve(ctx context.Context, r Request) (*Envelope, error) {
	if err := r.Validate(); err != nil {
		return failure(r.parameters(), errors.UserMessage(err)), err
	}
	r = s.withDefaults(r)

	src, ok := s.lookupSource(r.SourceName)
	if !ok {
		return s.invalid(r), nil
	}
	return s.resolveFor(ctx, src, r), nil
}

func (s *Service) lookupSource(name string) (registry.Source, bool) {
	if s.registry == nil || name == "" {
		return registry.Source{}, false
	}
	return s.registry.Source(name)
}

// resolveFor runs r against src once the request has been validated.
func (s *Service) resolveFor(ctx context.Context, src registry.Source, r Request) *Envelope {
	r.SourceName = src.Name
	model, okModel := s.registry.Model(r.Model)
	version, okVersion := s.registry.Version(r.Version)
	if !okModel || !okVersion {
		return s.invalid(r)
	}
	return s.GetPackages(ctx, Query{
		Source:   src,
		Arch:     model.Arch,
		Model:    model.Name,
		Version:  version,
		IsBeta:   r.IsBeta,
		IsSearch: r.IsSearch,
		Keyword:  r.Keyword,
	})
}

func (s *Service) invalid(r Request) *Envelope {
	s.logger.Warn("unknown source, model or version", "source", r.SourceName, "model", r.Model, "version", r.Version)
	return failure(r.parameters(), MessageInvalidParameters)
}

// ProgressFunc receives the number of finished sources out of total.
type ProgressFunc func(done, total int)

type progressKey struct{}

// WithProgress returns a context that makes SearchAll report to fn after
// each source finishes. Calls to fn are serialized.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

func progressFrom(ctx context.Context) ProgressFunc {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok && fn != nil {
		return fn
	}
	return func(int, int) {}
}

// SearchAll runs r against every active source with at most Fanout
// queries in flight and returns the envelopes ordered by source name.
// r.SourceName is ignored.
func (s *Service) SearchAll(ctx context.Context, r Request) ([]*Envelope, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if s.registry == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no source registry configured")
	}
	r = s.withDefaults(r)
	r.IsSearch = true

	sources := s.registry.ActiveSources()
	results := make([]*Envelope, len(sources))
	sem := make(chan struct{}, s.fanout)
	var wg sync.WaitGroup

	report := progressFrom(ctx)
	var mu sync.Mutex
	done := 0
	finish := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		report(done, len(sources))
	}

	for i, src := range sources {
		wg.Add(1)
		go func(i int, src registry.Source) {
			defer wg.Done()
			defer finish()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				req := r
				req.SourceName = src.Name
				results[i] = failure(req.parameters(), ctx.Err().Error())
				return
			}
			defer func() { <-sem }()
			results[i] = s.resolveFor(ctx, src, r)
		}(i, src)
	}
	wg.Wait()
	return results, nil
}
