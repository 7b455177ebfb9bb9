package database

import (
	"fmt"
)

func (s *MySql) createTables() error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s%s (
		id VARCHAR(64) NOT NULL,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		instagram VARCHAR(100) NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		is_used TINYINT(1) NOT NULL DEFAULT 0,
		used_at DATETIME(3) NULL,
		created_at DATETIME(3) NOT NULL,
		PRIMARY KEY (id),
		KEY idx_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, s.prefix, tableGuests)

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create table %s: %w", tableGuests, err)
	}
	return nil
}
