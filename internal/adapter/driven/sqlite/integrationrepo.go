package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IntegrationStore = (*IntegrationRepo)(nil)

// IntegrationRepo is the SQLite implementation of the IntegrationStore port.
// Access and refresh tokens are encrypted with AES-256-GCM before write and
// decrypted after read; all other columns are stored in plaintext.
type IntegrationRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewIntegrationRepo creates a new IntegrationRepo. key must be 32 bytes for
// AES-256-GCM, or nil to disable the store (reads and writes return
// driven.ErrEncryptionKeyNotSet; Delete still works).
func NewIntegrationRepo(db *DB, key []byte) *IntegrationRepo {
	return &IntegrationRepo{db: db, key: key}
}

// Enabled reports whether the repo was given an encryption key.
func (r *IntegrationRepo) Enabled() bool {
	return r.key != nil
}

// Save stores or replaces the integration for cfg.Provider. connected_at is
// kept from the first save so reconnecting does not reset it.
func (r *IntegrationRepo) Save(ctx context.Context, cfg model.IntegrationConfig) error {
	accessToken, err := r.encrypt(cfg.AccessToken)
	if err != nil {
		return err
	}

	var refreshToken string
	if cfg.RefreshToken != "" {
		refreshToken, err = r.encrypt(cfg.RefreshToken)
		if err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	connectedAt := cfg.ConnectedAt
	if connectedAt.IsZero() {
		connectedAt = now
	}
	updatedAt := cfg.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	const query = `
		INSERT INTO integrations (
			provider, access_token, refresh_token, expires_at, scopes,
			workspace_id, workspace_name, workspace_url,
			account_id, account_name, account_email,
			connected_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET
			access_token   = excluded.access_token,
			refresh_token  = excluded.refresh_token,
			expires_at     = excluded.expires_at,
			scopes         = excluded.scopes,
			workspace_id   = excluded.workspace_id,
			workspace_name = excluded.workspace_name,
			workspace_url  = excluded.workspace_url,
			account_id     = excluded.account_id,
			account_name   = excluded.account_name,
			account_email  = excluded.account_email,
			updated_at     = excluded.updated_at`

	_, err = r.db.Writer.ExecContext(ctx, query,
		string(cfg.Provider),
		accessToken,
		refreshToken,
		nullTime(cfg.ExpiresAt),
		strings.Join(cfg.Scopes, " "),
		cfg.WorkspaceID,
		cfg.WorkspaceName,
		cfg.WorkspaceURL,
		cfg.AccountID,
		cfg.AccountName,
		cfg.AccountEmail,
		formatTime(connectedAt),
		formatTime(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("save integration %q: %w", cfg.Provider, err)
	}
	return nil
}

// Get retrieves the integration for the given provider with decrypted tokens.
func (r *IntegrationRepo) Get(ctx context.Context, provider model.Provider) (*model.IntegrationConfig, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `
		SELECT provider, access_token, refresh_token, expires_at, scopes,
			workspace_id, workspace_name, workspace_url,
			account_id, account_name, account_email,
			connected_at, updated_at
		FROM integrations WHERE provider = ?`

	cfg, err := r.scanIntegration(r.db.Reader.QueryRowContext(ctx, query, string(provider)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get integration %q: %w", provider, driven.ErrIntegrationNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get integration %q: %w", provider, err)
	}
	return cfg, nil
}

// List returns all integrations ordered by provider, with decrypted tokens.
func (r *IntegrationRepo) List(ctx context.Context) ([]model.IntegrationConfig, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `
		SELECT provider, access_token, refresh_token, expires_at, scopes,
			workspace_id, workspace_name, workspace_url,
			account_id, account_name, account_email,
			connected_at, updated_at
		FROM integrations ORDER BY provider`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	defer rows.Close()

	configs := []model.IntegrationConfig{}
	for rows.Next() {
		cfg, err := r.scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan integration: %w", err)
		}
		configs = append(configs, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate integrations: %w", err)
	}

	return configs, nil
}

// Delete removes the integration for the given provider.
func (r *IntegrationRepo) Delete(ctx context.Context, provider model.Provider) error {
	const query = `DELETE FROM integrations WHERE provider = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, string(provider))
	if err != nil {
		return fmt.Errorf("delete integration %q: %w", provider, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete integration %q: %w", provider, driven.ErrIntegrationNotFound)
	}

	return nil
}

func (r *IntegrationRepo) scanIntegration(s scanner) (*model.IntegrationConfig, error) {
	var (
		cfg                       model.IntegrationConfig
		provider                  string
		accessToken, refreshToken string
		expiresAt                 sql.NullString
		scopes                    string
		connectedAt, updatedAt    string
	)

	err := s.Scan(
		&provider, &accessToken, &refreshToken, &expiresAt, &scopes,
		&cfg.WorkspaceID, &cfg.WorkspaceName, &cfg.WorkspaceURL,
		&cfg.AccountID, &cfg.AccountName, &cfg.AccountEmail,
		&connectedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	cfg.Provider = model.Provider(provider)

	cfg.AccessToken, err = r.decrypt(accessToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token for %q: %w", provider, err)
	}
	if refreshToken != "" {
		cfg.RefreshToken, err = r.decrypt(refreshToken)
		if err != nil {
			return nil, fmt.Errorf("decrypt refresh token for %q: %w", provider, err)
		}
	}

	if scopes != "" {
		cfg.Scopes = strings.Fields(scopes)
	}

	if cfg.ExpiresAt, err = parseNullTime(expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	if cfg.ConnectedAt, err = parseTime(connectedAt); err != nil {
		return nil, fmt.Errorf("parse connected_at: %w", err)
	}
	if cfg.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &cfg, nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded string
// containing the nonce (12 bytes) prepended to the ciphertext.
func (r *IntegrationRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	gcm, err := newGCM(r.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *IntegrationRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := newGCM(r.key)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
