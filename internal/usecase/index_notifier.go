package usecase

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
)

const (
	IndexKindTeams  = "teams"
	IndexKindPlayer = "player"

	defaultSearchIndexPath = "/v1/internal/search-index"
)

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type IndexNotification struct {
	Kind      string    `json:"kind"`
	Keys      []string  `json:"keys"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IndexNotifier tells the search indexer that stored records changed.
// Delivery is best effort and never blocks the caller.
type IndexNotifier struct {
	queue      JobQueue
	dispatcher *AsyncDispatcher
	path       string
	logger     *logging.Logger
	now        func() time.Time
}

func NewIndexNotifier(queue JobQueue, dispatcher *AsyncDispatcher, path string, logger *logging.Logger) *IndexNotifier {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if strings.TrimSpace(path) == "" {
		path = defaultSearchIndexPath
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IndexNotifier{
		queue:      queue,
		dispatcher: dispatcher,
		path:       path,
		logger:     logger.With("component", "index_notifier"),
		now:        time.Now,
	}
}

func (n *IndexNotifier) TeamsUpdated(ctx context.Context, names []string, source string) {
	n.notify(ctx, IndexKindTeams, names, source)
}

func (n *IndexNotifier) PlayerUpdated(ctx context.Context, licence, source string) {
	n.notify(ctx, IndexKindPlayer, []string{licence}, source)
}

func (n *IndexNotifier) notify(ctx context.Context, kind string, keys []string, source string) {
	if n == nil || len(keys) == 0 {
		return
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	payload := IndexNotification{
		Kind:      kind,
		Keys:      sorted,
		Source:    source,
		UpdatedAt: n.now().UTC(),
	}
	dedupID := indexDeduplicationID(kind, sorted, payload.UpdatedAt)

	n.dispatcher.Dispatch(ctx, "search_index."+kind, func(ctx context.Context) error {
		if err := n.queue.Enqueue(ctx, n.path, payload, 0, dedupID); err != nil {
			return err
		}
		n.logger.DebugContext(ctx, "search index notification queued", "kind", kind, "keys", len(sorted))
		return nil
	})
}

// indexDeduplicationID collapses identical notifications within one minute.
func indexDeduplicationID(kind string, keys []string, at time.Time) string {
	raw := kind + "-" + strings.Join(keys, "_") + "-" + at.Truncate(time.Minute).Format("200601021504")
	id := dedupUnsafeCharRegex.ReplaceAllString(raw, "_")
	if len(id) > 120 {
		id = id[:120]
	}
	return id
}
