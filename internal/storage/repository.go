package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect selects the SQL flavour spoken by a SQLRepository.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

const pgUniqueViolation = "23505"

// SQLite's LOWER only folds ASCII. fold_case lowers the way strings.ToLower
// does so note search behaves the same on every backend.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("fold_case", 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return strings.ToLower(v), nil
		case []byte:
			return strings.ToLower(string(v)), nil
		default:
			return v, nil
		}
	})
}

func (d Dialect) foldCase(expr string) string {
	if d == Postgres {
		return "LOWER(" + expr + ")"
	}
	return "fold_case(" + expr + ")"
}

const transactionColumns = `id, user_id, type, amount_cents, category, note, occurred_at, bill_image, created_at, updated_at`

const userColumns = `id, name, email, password_hash, profile_image, monthly_budget_cents, created_at, updated_at`

// SQLRepository implements Store on top of database/sql.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the SQLite file at dbPath
// and migrates it.
func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
	return open(context.Background(), SQLite, dsn)
}

// NewPostgresRepository connects to databaseURL and migrates the schema.
func NewPostgresRepository(ctx context.Context, databaseURL string) (*SQLRepository, error) {
	return open(ctx, Postgres, databaseURL)
}

func open(ctx context.Context, dialect Dialect, dsn string) (*SQLRepository, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLRepository{db: db, dialect: dialect, now: time.Now}, nil
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rebind rewrites ? placeholders to $n for Postgres.
func (r *SQLRepository) rebind(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *SQLRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	now := r.now().UTC()
	tx.Date = tx.Date.UTC()
	tx.CreatedAt, tx.UpdatedAt = now, now

	q := r.rebind(`INSERT INTO transactions (user_id, type, amount_cents, category, note, occurred_at, bill_image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.QueryRowContext(ctx, q,
		tx.UserID, string(tx.Type), tx.Amount.Cents, tx.Category, tx.Note, tx.Date, tx.BillImage, tx.CreatedAt, tx.UpdatedAt,
	).Scan(&tx.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents)

	return tx, nil
}

func (r *SQLRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	q := r.rebind(`SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`)
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Date = tx.Date.UTC()
	tx.UpdatedAt = r.now().UTC()

	q := r.rebind(`UPDATE transactions
		SET type = ?, amount_cents = ?, category = ?, note = ?, occurred_at = ?, bill_image = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`)
	res, err := r.db.ExecContext(ctx, q,
		string(tx.Type), tx.Amount.Cents, tx.Category, tx.Note, tx.Date, tx.BillImage, tx.UpdatedAt,
		tx.ID, tx.UserID,
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := expectAffected(res, "transaction", tx.ID); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (r *SQLRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM transactions WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectAffected(res, "transaction", id)
}

func (r *SQLRepository) ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter, limit int) ([]core.Transaction, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Search != "" {
		where = append(where, r.dialect.foldCase("note")+` LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(f.Search))+"%")
	}

	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY occurred_at DESC, id DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) SumByType(ctx context.Context, userID int64, t core.TransactionType) (core.Money, error) {
	q := r.rebind(`SELECT CAST(COALESCE(SUM(amount_cents), 0) AS BIGINT) FROM transactions WHERE user_id = ? AND type = ?`)
	var cents int64
	if err := r.db.QueryRowContext(ctx, q, userID, string(t)).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum %s: %w", t, err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *SQLRepository) ExpensesByCategory(ctx context.Context, userID int64) ([]core.CategoryAmount, error) {
	q := r.rebind(`SELECT category, CAST(SUM(amount_cents) AS BIGINT) AS total
		FROM transactions
		WHERE user_id = ? AND type = ?
		GROUP BY category
		ORDER BY total DESC, category`)
	rows, err := r.db.QueryContext(ctx, q, userID, string(core.Expense))
	if err != nil {
		return nil, fmt.Errorf("get category sums: %w", err)
	}
	defer rows.Close()

	out := []core.CategoryAmount{}
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Category, &ca.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category sums: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) ExpensesBetween(ctx context.Context, userID int64, from, to time.Time) ([]core.DatedAmount, error) {
	q := r.rebind(`SELECT occurred_at, amount_cents
		FROM transactions
		WHERE user_id = ? AND type = ? AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at`)
	rows, err := r.db.QueryContext(ctx, q, userID, string(core.Expense), from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("get expenses in range: %w", err)
	}
	defer rows.Close()

	out := []core.DatedAmount{}
	for rows.Next() {
		var da core.DatedAmount
		if err := rows.Scan(&da.Date, &da.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		da.Date = da.Date.UTC()
		out = append(out, da)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	now := r.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	q := r.rebind(`INSERT INTO users (name, email, password_hash, profile_image, monthly_budget_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.QueryRowContext(ctx, q,
		u.Name, u.Email, u.PasswordHash, u.ProfileImage, u.MonthlyBudget.Cents, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if isUniqueViolation(err) {
		return core.User{}, fmt.Errorf("email %q already registered: %w", u.Email, core.ErrConflict)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *SQLRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, r.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *SQLRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, r.rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %q: %w", email, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *SQLRepository) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	u.UpdatedAt = r.now().UTC()

	q := r.rebind(`UPDATE users
		SET name = ?, email = ?, password_hash = ?, profile_image = ?, monthly_budget_cents = ?, updated_at = ?
		WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q,
		u.Name, u.Email, u.PasswordHash, u.ProfileImage, u.MonthlyBudget.Cents, u.UpdatedAt, u.ID,
	)
	if isUniqueViolation(err) {
		return core.User{}, fmt.Errorf("email %q already registered: %w", u.Email, core.ErrConflict)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	if err := expectAffected(res, "user", u.ID); err != nil {
		return core.User{}, err
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		tx  core.Transaction
		typ string
	)
	err := s.Scan(&tx.ID, &tx.UserID, &typ, &tx.Amount.Cents, &tx.Category, &tx.Note,
		&tx.Date, &tx.BillImage, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	tx.Date = tx.Date.UTC()
	tx.CreatedAt = tx.CreatedAt.UTC()
	tx.UpdatedAt = tx.UpdatedAt.UTC()
	return tx, nil
}

func scanUser(s rowScanner) (core.User, error) {
	var u core.User
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.ProfileImage, &u.MonthlyBudget.Cents,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return core.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func expectAffected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, core.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
