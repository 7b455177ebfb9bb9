package database

import (
	"database/sql"
	"fmt"
)

const guestColumns = "id, first_name, last_name, email, instagram, status, is_used, used_at, created_at"

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

func (s *MySql) stmtInsertGuest() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		"INSERT INTO %s%s (id, first_name, last_name, email, instagram, status, is_used, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		s.prefix, tableGuests,
	)
	return s.prepareStmt("insertGuest", query)
}

func (s *MySql) stmtSelectGuests() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY created_at DESC",
		guestColumns, s.prefix, tableGuests,
	)
	return s.prepareStmt("selectGuests", query)
}

func (s *MySql) stmtSelectGuest() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s%s WHERE id = ?",
		guestColumns, s.prefix, tableGuests,
	)
	return s.prepareStmt("selectGuest", query)
}

func (s *MySql) stmtUpdateGuestStatus() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		"UPDATE %s%s SET status = ? WHERE id = ? AND status = ?",
		s.prefix, tableGuests,
	)
	return s.prepareStmt("updateGuestStatus", query)
}

// the is_used = 0 predicate makes the update a compare-and-set
func (s *MySql) stmtMarkGuestUsed() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		"UPDATE %s%s SET is_used = 1, used_at = ? WHERE id = ? AND status = ? AND is_used = 0",
		s.prefix, tableGuests,
	)
	return s.prepareStmt("markGuestUsed", query)
}
