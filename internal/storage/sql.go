package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/xaenox/markov-bot/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// sqlStorage holds the queries shared by the SQL backends. Queries are written
// with '?' placeholders and rebound for dialects that number them.
type sqlStorage struct {
	db       *sql.DB
	numbered bool
	logger   *zap.Logger
}

func (s *sqlStorage) initializeSchema(name string) error {
	migrationSQL, err := migrations.ReadFile("migrations/" + name)
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}
	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (s *sqlStorage) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStorage) Append(ctx context.Context, msg models.Message) error {
	query := s.rebind(`INSERT INTO messages (author, content, tag) VALUES (?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, msg.Author, msg.Content, string(msg.Tag)); err != nil {
		return fmt.Errorf("error inserting message: %w", err)
	}
	return nil
}

func (s *sqlStorage) DistinctTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT tag FROM messages ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("error querying tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("error scanning tag: %w", err)
		}
		tags = append(tags, models.Tag(tag))
	}
	return tags, rows.Err()
}

func (s *sqlStorage) ContentByTag(ctx context.Context, tag models.Tag) ([]string, error) {
	query := s.rebind(`SELECT content FROM messages WHERE tag = ? ORDER BY id`)
	rows, err := s.db.QueryContext(ctx, query, string(tag))
	if err != nil {
		return nil, fmt.Errorf("error querying content for tag %s: %w", tag, err)
	}
	defer rows.Close()

	var content []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("error scanning content: %w", err)
		}
		content = append(content, c)
	}
	return content, rows.Err()
}

func (s *sqlStorage) Rows(ctx context.Context, filter models.Filter) ([]models.Message, error) {
	var (
		where []string
		args  []any
	)
	if filter.Content != "" {
		where = append(where, "content = ?")
		args = append(args, filter.Content)
	}
	if len(filter.Tags) > 0 {
		marks := make([]string, len(filter.Tags))
		for i, t := range filter.Tags {
			marks[i] = "?"
			args = append(args, string(t))
		}
		where = append(where, "tag IN ("+strings.Join(marks, ", ")+")")
	}

	query := `SELECT id, author, content, tag FROM messages`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var (
			m   models.Message
			tag string
		)
		if err := rows.Scan(&m.ID, &m.Author, &m.Content, &tag); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		m.Tag = models.Tag(tag)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *sqlStorage) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting messages: %w", err)
	}
	return total, nil
}

func (s *sqlStorage) CountByTag(ctx context.Context) (map[models.Tag]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag, COUNT(*) FROM messages GROUP BY tag`)
	if err != nil {
		return nil, fmt.Errorf("error counting messages by tag: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Tag]int)
	for rows.Next() {
		var (
			tag   string
			count int
		)
		if err := rows.Scan(&tag, &count); err != nil {
			return nil, fmt.Errorf("error scanning tag count: %w", err)
		}
		counts[models.Tag(tag)] = count
	}
	return counts, rows.Err()
}

func (s *sqlStorage) Close() error {
	s.logger.Debug("Closing database")
	return s.db.Close()
}
