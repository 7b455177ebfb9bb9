package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"guestlist/entity"
	"guestlist/internal/config"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

const tableGuests = "guests"

type MySql struct {
	db         *sql.DB
	prefix     string
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		conf.MySQL.UserName, conf.MySQL.Password, conf.MySQL.HostName, conf.MySQL.Port, conf.MySQL.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 10-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(10 * time.Second)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	sdb := newMySql(db, conf.MySQL.Prefix)
	if err = sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sdb, nil
}

func newMySql(db *sql.DB, prefix string) *MySql {
	return &MySql{
		db:         db,
		prefix:     prefix,
		statements: make(map[string]*sql.Stmt),
	}
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

func (s *MySql) CreateGuest(ctx context.Context, guest *entity.Guest) error {
	stmt, err := s.stmtInsertGuest()
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx,
		guest.Id,
		guest.FirstName,
		guest.LastName,
		guest.Email,
		guest.Instagram,
		string(guest.Status),
		guest.IsUsed,
		guest.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert guest: %w", err)
	}
	return nil
}

func (s *MySql) ListGuests(ctx context.Context) ([]*entity.Guest, error) {
	stmt, err := s.stmtSelectGuests()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query guests: %w", err)
	}
	defer rows.Close()

	guests := make([]*entity.Guest, 0)
	for rows.Next() {
		guest, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		guests = append(guests, guest)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return guests, nil
}

// GetGuest returns nil without error when the guest does not exist.
func (s *MySql) GetGuest(ctx context.Context, id string) (*entity.Guest, error) {
	stmt, err := s.stmtSelectGuest()
	if err != nil {
		return nil, err
	}
	guest, err := scanGuest(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select guest: %w", err)
	}
	return guest, nil
}

// SetGuestStatus moves a pending guest to status; false means no pending guest with this id.
func (s *MySql) SetGuestStatus(ctx context.Context, id string, status entity.GuestStatus) (bool, error) {
	stmt, err := s.stmtUpdateGuestStatus()
	if err != nil {
		return false, err
	}
	res, err := stmt.ExecContext(ctx, string(status), id, string(entity.StatusPending))
	if err != nil {
		return false, fmt.Errorf("update status: %w", err)
	}
	return affected(res)
}

// MarkGuestUsed flips is_used for an approved, unused guest. Only one concurrent caller
// observes true.
func (s *MySql) MarkGuestUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	stmt, err := s.stmtMarkGuestUsed()
	if err != nil {
		return false, err
	}
	res, err := stmt.ExecContext(ctx, usedAt, id, string(entity.StatusApproved))
	if err != nil {
		return false, fmt.Errorf("mark used: %w", err)
	}
	return affected(res)
}

func (s *MySql) DeleteAllGuests(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s%s", s.prefix, tableGuests))
	if err != nil {
		return 0, fmt.Errorf("delete guests: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGuest(row scanner) (*entity.Guest, error) {
	var guest entity.Guest
	var status string
	var usedAt sql.NullTime
	if err := row.Scan(
		&guest.Id,
		&guest.FirstName,
		&guest.LastName,
		&guest.Email,
		&guest.Instagram,
		&status,
		&guest.IsUsed,
		&usedAt,
		&guest.CreatedAt,
	); err != nil {
		return nil, err
	}
	guest.Status = entity.GuestStatus(status)
	if usedAt.Valid {
		t := usedAt.Time
		guest.UsedAt = &t
	}
	return &guest, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
