package scylla

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/gocql/gocql"
)

var keyspacePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type Config struct {
	Hosts             []string
	Keyspace          string
	Username          string
	Password          string
	Timeout           time.Duration
	Consistency       string
	ReplicationFactor int
}

func (c Config) consistency() (gocql.Consistency, error) {
	if c.Consistency == "" {
		return gocql.Quorum, nil
	}
	return gocql.ParseConsistencyWrapper(c.Consistency)
}

// NewSession ensures the keyspace and tables exist and returns a session bound to the keyspace.
func NewSession(ctx context.Context, cfg Config, logger *slog.Logger) (*gocql.Session, error) {
	if !keyspacePattern.MatchString(cfg.Keyspace) {
		return nil, fmt.Errorf("invalid keyspace name: %q", cfg.Keyspace)
	}
	if len(cfg.Hosts) == 0 {
		return nil, fmt.Errorf("scylla: no hosts configured")
	}
	consistency, err := cfg.consistency()
	if err != nil {
		return nil, fmt.Errorf("scylla consistency: %w", err)
	}

	baseSession, err := newCluster(cfg, consistency, "").CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to scylla: %w", err)
	}
	defer baseSession.Close()
	if err := ensureKeyspace(ctx, baseSession, cfg); err != nil {
		return nil, err
	}

	session, err := newCluster(cfg, consistency, cfg.Keyspace).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to keyspace %s: %w", cfg.Keyspace, err)
	}
	if err := ensureTables(ctx, session, cfg.Keyspace); err != nil {
		session.Close()
		return nil, err
	}
	if logger != nil {
		logger.Info("scylla connected", "hosts", cfg.Hosts, "keyspace", cfg.Keyspace)
	}
	return session, nil
}

func newCluster(cfg Config, consistency gocql.Consistency, keyspace string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = consistency
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
		cluster.ConnectTimeout = cfg.Timeout
	}
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	return cluster
}

func ensureKeyspace(ctx context.Context, session *gocql.Session, cfg Config) error {
	rf := cfg.ReplicationFactor
	if rf <= 0 {
		rf = 1
	}
	cql := fmt.Sprintf(
		"CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}",
		cfg.Keyspace, rf,
	)
	if err := session.Query(cql).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("create keyspace: %w", err)
	}
	return nil
}

func ensureTables(ctx context.Context, session *gocql.Session, keyspace string) error {
	for _, stmt := range schema(keyspace) {
		if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func schema(keyspace string) []string {
	return []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.%s (
	consumer text,
	event_id text,
	seen_at timestamp,
	PRIMARY KEY ((consumer, event_id))
);`, keyspace, inboxTable),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.%s (
	user_id text,
	sent_id timeuuid,
	template text,
	email text,
	booking_id text,
	data map<text, text>,
	PRIMARY KEY (user_id, sent_id)
) WITH CLUSTERING ORDER BY (sent_id DESC);`, keyspace, feedTable),
	}
}
