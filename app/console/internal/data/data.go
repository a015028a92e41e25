package data

import (
	"database/sql"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/iWorld-y/annual_review/app/console/internal/conf"
)

// Data 运行历史存储；db 为空时仓库退化为内存实现
type Data struct {
	db     *sql.DB
	driver string
}

var schemas = map[string]string{
	"postgres": `
		CREATE TABLE IF NOT EXISTS runs (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			input_dir TEXT NOT NULL,
			run_dir TEXT NOT NULL,
			exit_code INTEGER NOT NULL,
			reports INTEGER NOT NULL DEFAULT 0,
			failures INTEGER NOT NULL DEFAULT 0,
			started_at BIGINT NOT NULL,
			finished_at BIGINT NOT NULL
		)`,
	"sqlite": `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			input_dir TEXT NOT NULL,
			run_dir TEXT NOT NULL,
			exit_code INTEGER NOT NULL,
			reports INTEGER NOT NULL DEFAULT 0,
			failures INTEGER NOT NULL DEFAULT 0,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		)`,
}

func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)
	if c == nil || c.Database == nil || c.Database.Source == "" {
		helper.Info("no database configured, run history kept in memory")
		return &Data{}, func() {}, nil
	}

	schema, ok := schemas[c.Database.Driver]
	if !ok {
		return nil, nil, fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	db, err := sql.Open(c.Database.Driver, c.Database.Source)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}

	// Init schema for runs
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to init runs table: %w", err)
	}

	cleanup := func() {
		helper.Info("closing the data resources")
		db.Close()
	}
	return &Data{db: db, driver: c.Database.Driver}, cleanup, nil
}

// rebind 把 ? 占位符改写为 postgres 的 $n 形式
func (d *Data) rebind(query string) string {
	if d.driver != "postgres" {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}
