package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/medsyncsaude/api/internal/auth"
	"github.com/medsyncsaude/api/internal/organizacao"
	"github.com/medsyncsaude/api/internal/repo"
)

type fakeAuthRepo struct {
	usuarios map[string]repo.Usuario
	tokens   map[string]repo.TokenRefresh
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		usuarios: make(map[string]repo.Usuario),
		tokens:   make(map[string]repo.TokenRefresh),
	}
}

func (f *fakeAuthRepo) GetUsuarioByEmail(_ context.Context, email string) (repo.Usuario, error) {
	u, ok := f.usuarios[email]
	if !ok {
		return repo.Usuario{}, repo.ErrNotFound
	}
	return u, nil
}

func (f *fakeAuthRepo) GetUsuarioByID(_ context.Context, id uuid.UUID) (repo.Usuario, error) {
	for _, u := range f.usuarios {
		if u.ID == id {
			return u, nil
		}
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (f *fakeAuthRepo) CreateUsuario(_ context.Context, nome, email, senhaHash string) (repo.Usuario, error) {
	u := repo.Usuario{ID: uuid.New(), Nome: nome, Email: email, SenhaHash: senhaHash, Ativo: true, CriadoEm: time.Now()}
	f.usuarios[email] = u
	return u, nil
}

func (f *fakeAuthRepo) UpdateUsuario(_ context.Context, id uuid.UUID, nome, email string) error {
	for key, u := range f.usuarios {
		if u.ID == id {
			delete(f.usuarios, key)
			u.Nome, u.Email = nome, email
			f.usuarios[email] = u
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakeAuthRepo) InsertRefreshToken(_ context.Context, arg repo.InsertRefreshTokenParams) (repo.TokenRefresh, error) {
	t := repo.TokenRefresh{
		ID:        uuid.New(),
		Subject:   arg.Subject,
		Audience:  arg.Audience,
		TokenHash: arg.TokenHash,
		Expiracao: arg.Expiracao,
		CriadoEm:  time.Now(),
	}
	f.tokens[arg.TokenHash] = t
	return t, nil
}

func (f *fakeAuthRepo) GetRefreshTokenByHash(_ context.Context, tokenHash string) (repo.TokenRefresh, error) {
	t, ok := f.tokens[tokenHash]
	if !ok || t.Revogado {
		return repo.TokenRefresh{}, repo.ErrNotFound
	}
	return t, nil
}

func (f *fakeAuthRepo) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	if t, ok := f.tokens[tokenHash]; ok {
		t.Revogado = true
		f.tokens[tokenHash] = t
	}
	return nil
}

func (f *fakeAuthRepo) InvalidateOtherRefreshTokens(_ context.Context, subject uuid.UUID, audience, keepHash string) error {
	for hash, t := range f.tokens {
		if t.Subject == subject && t.Audience == audience && hash != keepHash {
			t.Revogado = true
			f.tokens[hash] = t
		}
	}
	return nil
}

type fakeMembros struct {
	vinculos []organizacao.MembroComOrganizacao
}

func (f *fakeMembros) ListByUsuario(_ context.Context, _ uuid.UUID) ([]organizacao.MembroComOrganizacao, error) {
	return f.vinculos, nil
}

// fakeRedis implementa o subconjunto usado pelas sessões.
type fakeRedis struct {
	valores map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{valores: make(map[string]string)}
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.valores[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.valores[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.valores[k]; ok {
			delete(f.valores, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func novoAuthService(t *testing.T) (*AuthService, *fakeAuthRepo, *fakeMembros, *fakeRedis) {
	t.Helper()
	r := newFakeAuthRepo()
	membros := &fakeMembros{}
	rds := newFakeRedis()
	jwtMgr := auth.NewJWTManager("segredo-de-teste", 15*time.Minute)
	return NewAuthService(r, membros, rds, jwtMgr, 24*time.Hour), r, membros, rds
}

func cadastrarUsuario(t *testing.T, r *fakeAuthRepo, email, senha string, ativo bool) repo.Usuario {
	t.Helper()
	hash, err := auth.Hash(senha)
	if err != nil {
		t.Fatal(err)
	}
	u := repo.Usuario{ID: uuid.New(), Nome: "Dra. Ana", Email: email, SenhaHash: hash, Ativo: ativo}
	r.usuarios[email] = u
	return u
}

func TestLoginComMembresias(t *testing.T) {
	svc, r, membros, _ := novoAuthService(t)
	cadastrarUsuario(t, r, "ana@medsync.com.br", "senha-forte", true)

	membros.vinculos = []organizacao.MembroComOrganizacao{
		{Organizacao: organizacao.Organizacao{ID: uuid.New(), Nome: "Rede Vida"}, Papel: organizacao.PapelDono, Ativo: true},
		{Organizacao: organizacao.Organizacao{ID: uuid.New(), Nome: "Rede Sul"}, Papel: organizacao.PapelMedico, Ativo: true},
		{Organizacao: organizacao.Organizacao{ID: uuid.New(), Nome: "Antiga"}, Papel: organizacao.PapelGestor, Ativo: false},
	}

	res, err := svc.Login(context.Background(), "ana@medsync.com.br", "senha-forte")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Error("tokens ausentes")
	}
	if len(res.Profile.Organizacoes) != 2 {
		t.Errorf("vínculo inativo não deveria aparecer, veio %d organizações", len(res.Profile.Organizacoes))
	}
	if len(res.Roles) != 2 {
		t.Errorf("roles esperados [Dono Medico], veio %v", res.Roles)
	}

	claims, err := svc.JWT().ParseAndValidate(res.AccessToken)
	if err != nil {
		t.Fatalf("token emitido inválido: %v", err)
	}
	if claims.Subject != res.Subject.String() {
		t.Error("subject do token difere do usuário")
	}
}

func TestLoginCredenciaisInvalidas(t *testing.T) {
	svc, r, _, _ := novoAuthService(t)
	cadastrarUsuario(t, r, "ana@medsync.com.br", "senha-forte", true)

	if _, err := svc.Login(context.Background(), "ana@medsync.com.br", "senha-errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("senha errada: esperava ErrInvalidCredentials, veio %v", err)
	}
	if _, err := svc.Login(context.Background(), "ninguem@medsync.com.br", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("usuário inexistente: esperava ErrInvalidCredentials, veio %v", err)
	}
}

func TestLoginContaDesativada(t *testing.T) {
	svc, r, _, _ := novoAuthService(t)
	cadastrarUsuario(t, r, "ana@medsync.com.br", "senha-forte", false)

	if _, err := svc.Login(context.Background(), "ana@medsync.com.br", "senha-forte"); !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("esperava ErrAccountDisabled, veio %v", err)
	}
}

func TestRefreshRotacionaToken(t *testing.T) {
	svc, r, _, _ := novoAuthService(t)
	cadastrarUsuario(t, r, "ana@medsync.com.br", "senha-forte", true)

	login, err := svc.Login(context.Background(), "ana@medsync.com.br", "senha-forte")
	if err != nil {
		t.Fatal(err)
	}

	renovado, err := svc.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if renovado.RefreshToken == login.RefreshToken {
		t.Error("refresh deveria rotacionar o token")
	}

	// O token antigo foi revogado na rotação.
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("token antigo reutilizado: esperava ErrRefreshInvalid, veio %v", err)
	}
}

func TestRefreshInvalidoSemRedis(t *testing.T) {
	svc, r, _, rds := novoAuthService(t)
	cadastrarUsuario(t, r, "ana@medsync.com.br", "senha-forte", true)

	login, err := svc.Login(context.Background(), "ana@medsync.com.br", "senha-forte")
	if err != nil {
		t.Fatal(err)
	}

	// Sessão derrubada no Redis invalida o refresh mesmo com registro no banco.
	rds.valores = map[string]string{}
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("esperava ErrRefreshInvalid, veio %v", err)
	}
}

func TestLogoutRevoga(t *testing.T) {
	svc, r, _, _ := novoAuthService(t)
	cadastrarUsuario(t, r, "ana@medsync.com.br", "senha-forte", true)

	login, err := svc.Login(context.Background(), "ana@medsync.com.br", "senha-forte")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Logout(context.Background(), login.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("refresh após logout: esperava ErrRefreshInvalid, veio %v", err)
	}
}

func TestRegistrarEmailDuplicado(t *testing.T) {
	svc, r, _, _ := novoAuthService(t)
	cadastrarUsuario(t, r, "ana@medsync.com.br", "senha-forte", true)

	if _, err := svc.Registrar(context.Background(), "Outra Ana", "ana@medsync.com.br", "outra-senha"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("esperava ErrEmailTaken, veio %v", err)
	}
}
