package repository

import (
	"testing"

	"github.com/hitoshi/vestgate/internal/token"
)

// PostgresSessionRepoはSessionRepositoryインターフェースを満たすことを検証
func TestPostgresSessionRepo_ImplementsInterface(t *testing.T) {
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

// PostgresMissionRepoはMissionRepositoryインターフェースを満たすことを検証
func TestPostgresMissionRepo_ImplementsInterface(t *testing.T) {
	var _ MissionRepository = (*PostgresMissionRepo)(nil)
}

// PostgresPrefsRepoはPreferencesRepositoryインターフェースを満たすことを検証
func TestPostgresPrefsRepo_ImplementsInterface(t *testing.T) {
	var _ PreferencesRepository = (*PostgresPrefsRepo)(nil)
}

// PostgresArticleRepoはArticleRepositoryインターフェースを満たすことを検証
func TestPostgresArticleRepo_ImplementsInterface(t *testing.T) {
	var _ ArticleRepository = (*PostgresArticleRepo)(nil)
}

// NewPostgresSessionRepoが正しく初期化されることを検証
func TestNewPostgresSessionRepo_Initializes(t *testing.T) {
	cipher, err := token.NewCipher("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewCipher がエラーを返した: %v", err)
	}
	repo := NewPostgresSessionRepo(nil, cipher)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresMissionRepoが正しく初期化されることを検証
func TestNewPostgresMissionRepo_Initializes(t *testing.T) {
	repo := NewPostgresMissionRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresPrefsRepoが正しく初期化されることを検証
func TestNewPostgresPrefsRepo_Initializes(t *testing.T) {
	repo := NewPostgresPrefsRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresArticleRepoが正しく初期化されることを検証
func TestNewPostgresArticleRepo_Initializes(t *testing.T) {
	repo := NewPostgresArticleRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}
