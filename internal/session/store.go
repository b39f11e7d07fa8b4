package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zacharykka/support-console/internal/domain"
	"go.uber.org/zap"

	// 驱动注册
	_ "modernc.org/sqlite"
)

// 本地持久化仅包含两个键：令牌与用户档案，登录写入、登出清除。
const (
	tokenKey = "auth_token"
	userKey  = "user"
)

const schema = `CREATE TABLE IF NOT EXISTS session_state (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Store 维护登录会话的本地持久化状态（SQLite 键值表）。
// 会话生命周期显式化：登录时创建，登出时销毁，不做任何隐式刷新。
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore 打开本地会话库并初始化表结构。
func NewStore(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	if err := ensureDir(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping session store: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init session schema: %w", err)
	}

	logger.Info("session store opened", zap.String("dsn", dsn))
	return &Store{db: db, logger: logger}, nil
}

// Save 持久化令牌与用户档案，两者在同一事务内写入。
func (s *Store) Save(ctx context.Context, token string, user domain.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := upsert(ctx, tx, tokenKey, token); err != nil {
		return err
	}
	if err := upsert(ctx, tx, userKey, string(payload)); err != nil {
		return err
	}
	return tx.Commit()
}

// Token 返回持久化的 bearer 令牌；不存在时返回 domain.ErrNotFound。
func (s *Store) Token(ctx context.Context) (string, error) {
	return s.get(ctx, tokenKey)
}

// IsAuthenticated 判断本地是否存在令牌。
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	token, err := s.Token(ctx)
	return err == nil && token != ""
}

// CurrentUser 返回持久化的用户档案；缺失或损坏时返回 nil，从不报错。
func (s *Store) CurrentUser(ctx context.Context) *domain.User {
	raw, err := s.get(ctx, userKey)
	if err != nil {
		return nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("stored user profile is corrupt, treating as absent", zap.Error(err))
		return nil
	}
	return &user
}

// Clear 删除令牌与用户档案，实现登出语义。
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_state WHERE key IN (?, ?)`, tokenKey, userKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func upsert(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO session_state (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, key, value)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// ensureDir 为基于文件的 DSN 创建所在目录，内存库直接跳过。
func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	if path == "" || strings.HasPrefix(path, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session store directory: %w", err)
	}
	return nil
}
