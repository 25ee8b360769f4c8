package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tilelens/backend/internal/domain"
)

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	DefaultPageSize    int
	MaxPageSize        int
	EnableDebugLogging bool
}

// SearchService runs searches against the backend and projects stored results.
// Within one session the most recent search wins: starting a new search
// cancels the one in flight, and a late response is discarded.
type SearchService struct {
	backend   domain.SearchBackend
	catalog   domain.ProductCatalog
	sessions  domain.SessionRepository
	validator *UploadValidator
	inflight  *inflightTracker

	defaultPageSize    int
	maxPageSize        int
	enableDebugLogging bool
	now                func() time.Time
}

// NewSearchService creates a search service. catalog may be nil.
func NewSearchService(
	backend domain.SearchBackend,
	catalog domain.ProductCatalog,
	sessions domain.SessionRepository,
	validator *UploadValidator,
	config SearchServiceConfig,
) *SearchService {
	pageSize := config.DefaultPageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	maxPageSize := config.MaxPageSize
	if maxPageSize < pageSize {
		maxPageSize = max(50, pageSize)
	}
	if validator == nil {
		validator = NewUploadValidator(UploadValidatorConfig{})
	}

	return &SearchService{
		backend:            backend,
		catalog:            catalog,
		sessions:           sessions,
		validator:          validator,
		inflight:           newInflightTracker(),
		defaultPageSize:    pageSize,
		maxPageSize:        maxPageSize,
		enableDebugLogging: config.EnableDebugLogging,
		now:                time.Now,
	}
}

// SearchImage validates an upload, runs a visual search and stores the results in the session.
// An empty sessionID starts a new session.
func (s *SearchService) SearchImage(ctx context.Context, sessionID string, upload *domain.ImageUpload) (*domain.SearchSession, error) {
	if err := s.validator.Validate(upload); err != nil {
		return nil, err
	}

	return s.run(ctx, sessionID, domain.QueryKindImage, upload.Filename,
		func(ctx context.Context) ([]domain.ProductMatch, error) {
			return s.backend.SearchByImage(ctx, upload)
		})
}

// SearchText runs a description search and stores the results in the session
func (s *SearchService) SearchText(ctx context.Context, sessionID, description string) (*domain.SearchSession, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrInvalidRequest)
	}

	return s.run(ctx, sessionID, domain.QueryKindText, description,
		func(ctx context.Context) ([]domain.ProductMatch, error) {
			return s.backend.SearchByText(ctx, description)
		})
}

func (s *SearchService) run(
	ctx context.Context,
	sessionID string,
	kind domain.QueryKind,
	query string,
	call func(context.Context) ([]domain.ProductMatch, error),
) (*domain.SearchSession, error) {
	id, err := resolveSessionID(sessionID)
	if err != nil {
		return nil, err
	}

	callCtx, generation := s.inflight.begin(ctx, id)
	defer s.inflight.release(id, generation)

	if s.enableDebugLogging {
		log.Printf("[SEARCH] session=%s gen=%d kind=%s query=%q", id, generation, kind, query)
	}

	results, err := call(callCtx)
	if err != nil {
		if !s.inflight.isCurrent(id, generation) {
			return nil, domain.ErrSuperseded
		}
		log.Printf("[SEARCH] session=%s %s search failed: %v", id, kind, err)
		return nil, err
	}

	session := &domain.SearchSession{
		ID:        id,
		Kind:      kind,
		Query:     query,
		Results:   s.enrich(ctx, results),
		CreatedAt: s.now(),
	}

	committed, err := s.inflight.commit(id, generation, func() error {
		return s.sessions.SaveSession(ctx, session)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if !committed {
		if s.enableDebugLogging {
			log.Printf("[SEARCH] session=%s gen=%d discarded, newer search in flight", id, generation)
		}
		return nil, domain.ErrSuperseded
	}

	if s.enableDebugLogging {
		log.Printf("[SEARCH] session=%s stored %d results", id, len(session.Results))
	}
	return session, nil
}

// MaxUploadBytes returns the largest image the service accepts
func (s *SearchService) MaxUploadBytes() int64 {
	return s.validator.MaxBytes()
}

// ProjectSession applies filters, sort and pagination to a stored session.
// A zero page means 1 and a zero page size means the configured default.
func (s *SearchService) ProjectSession(ctx context.Context, sessionID string, query domain.ProjectionQuery) (*domain.ProjectedPage, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.ProjectResults(session.Results, query)
}

// ProjectResults projects a caller-supplied result list and attaches the page window
func (s *SearchService) ProjectResults(results []domain.ProductMatch, query domain.ProjectionQuery) (*domain.ProjectedPage, error) {
	page := query.Page
	if page == 0 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize == 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		return nil, fmt.Errorf("%w: page size %d exceeds maximum %d", domain.ErrInvalidArgument, pageSize, s.maxPageSize)
	}
	sortOrder := query.SortOrder
	if sortOrder == "" {
		sortOrder = domain.SortNone
	}

	projected, err := Project(results, query.Filters, sortOrder, page, pageSize)
	if err != nil {
		return nil, err
	}
	projected.Pages = PageWindow(page, projected.TotalPages)
	return projected, nil
}

// SessionFacets lists the filter values available in a session's results
func (s *SearchService) SessionFacets(ctx context.Context, sessionID string) ([]domain.Facet, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return Facets(session.Results), nil
}

// enrich copies matches and adds catalog attributes the backend did not supply
func (s *SearchService) enrich(ctx context.Context, results []domain.ProductMatch) []domain.ProductMatch {
	enriched := make([]domain.ProductMatch, len(results))
	for i, match := range results {
		attrs := make(map[string]string, len(match.Attributes)+4)
		for k, v := range match.Attributes {
			attrs[domain.NormalizeCategory(k)] = v
		}

		if s.catalog != nil {
			if info, ok := s.catalog.Lookup(ctx, catalogKey(match)); ok {
				for k, v := range info.Attributes() {
					if _, exists := attrs[k]; !exists {
						attrs[k] = v
					}
				}
			}
		}

		match.Attributes = attrs
		if len(attrs) == 0 {
			match.Attributes = nil
		}
		enriched[i] = match
	}
	return enriched
}

// catalogKey prefers the filename and falls back to the last URL segment
func catalogKey(match domain.ProductMatch) string {
	if match.Filename != "" {
		return match.Filename
	}
	return path.Base(match.URL)
}

func resolveSessionID(id string) (string, error) {
	if id == "" {
		return uuid.NewString(), nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: invalid session id %q", domain.ErrInvalidRequest, id)
	}
	return parsed.String(), nil
}

// inflightTracker hands out increasing generations and cancels a session's
// previous search when a new one begins. Commits are serialised per session.
type inflightTracker struct {
	mu      sync.Mutex
	next    uint64
	entries map[string]*inflightSearch
	commits map[string]*commitLock
}

type inflightSearch struct {
	generation uint64
	cancel     context.CancelFunc
}

type commitLock struct {
	mu   sync.Mutex
	refs int
}

func newInflightTracker() *inflightTracker {
	return &inflightTracker{
		entries: make(map[string]*inflightSearch),
		commits: make(map[string]*commitLock),
	}
}

func (t *inflightTracker) begin(ctx context.Context, id string) (context.Context, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.entries[id]; ok {
		prev.cancel()
	}
	t.next++
	generation := t.next

	callCtx, cancel := context.WithCancel(ctx)
	t.entries[id] = &inflightSearch{generation: generation, cancel: cancel}
	return callCtx, generation
}

func (t *inflightTracker) isCurrent(id string, generation uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[id]
	return ok && entry.generation == generation
}

// commit runs fn only while generation is still the latest for id.
// The session's commit lock orders saves within one session; other sessions
// and the tracker itself stay unlocked while fn runs.
func (t *inflightTracker) commit(id string, generation uint64, fn func() error) (bool, error) {
	lock := t.acquireCommit(id)
	defer t.releaseCommit(id, lock)

	if !t.isCurrent(id, generation) {
		return false, nil
	}
	return true, fn()
}

func (t *inflightTracker) acquireCommit(id string) *commitLock {
	t.mu.Lock()
	lock, ok := t.commits[id]
	if !ok {
		lock = &commitLock{}
		t.commits[id] = lock
	}
	lock.refs++
	t.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (t *inflightTracker) releaseCommit(id string, lock *commitLock) {
	lock.mu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(t.commits, id)
	}
}

// release drops the entry if it still belongs to generation.
// Generations are unique across sessions, so a stale search never matches a later entry.
func (t *inflightTracker) release(id string, generation uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[id]
	if ok && entry.generation == generation {
		entry.cancel()
		delete(t.entries, id)
	}
}

// IsSuperseded reports whether err means a newer search replaced this one
func IsSuperseded(err error) bool {
	return errors.Is(err, domain.ErrSuperseded)
}
