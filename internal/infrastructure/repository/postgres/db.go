package postgres

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const (
	maxTracedQueryLength     = 512
	preparedBinaryResultFlag = "disable_prepared_binary_result"
)

type OpenConfig struct {
	URL                         string
	DisablePreparedBinaryResult bool
	MaxOpenConns                int
	MaxIdleConns                int
	ConnMaxLifetime             time.Duration
}

// Open connects to PostgreSQL through otelsql so every query becomes a span
// and pool stats are exported as metrics.
func Open(cfg OpenConfig) (*sqlx.DB, error) {
	name := DatabaseName(cfg.URL)
	db, err := otelsqlx.Open("postgres",
		PrepareDSN(cfg.URL, cfg.DisablePreparedBinaryResult),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(name),
		otelsql.WithQueryFormatter(compactQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	otelsql.ReportDBStatsMetrics(db.DB, otelsql.WithDBName(name))
	return db, nil
}

// PrepareDSN sets disable_prepared_binary_result=yes on URL style DSNs unless
// the caller already chose a value. Poolers in transaction mode need it.
func PrepareDSN(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}
	query := parsed.Query()
	if query.Get(preparedBinaryResultFlag) != "" {
		return raw
	}
	query.Set(preparedBinaryResultFlag, "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// DatabaseName extracts the database from either a URL or a key=value DSN.
func DatabaseName(raw string) string {
	raw = strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil && parsed.Scheme != "" {
		if name := strings.Trim(parsed.Path, "/ "); name != "" {
			return name
		}
	}
	for _, token := range strings.Fields(raw) {
		if value, ok := strings.CutPrefix(token, "dbname="); ok {
			if name := strings.Trim(value, `"'`); name != "" {
				return name
			}
		}
	}
	return ""
}

func compactQuery(query string) string {
	compact := strings.Join(strings.Fields(query), " ")
	if len(compact) <= maxTracedQueryLength {
		return compact
	}
	return compact[:maxTracedQueryLength] + "..."
}
