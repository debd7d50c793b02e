package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/medsyncsaude/api/internal/organizacao"
	"github.com/medsyncsaude/api/internal/storage"
)

type stubRepo struct {
	anexos map[uuid.UUID]*Anexo
}

func newStubRepo() *stubRepo {
	return &stubRepo{anexos: make(map[uuid.UUID]*Anexo)}
}

func (r *stubRepo) Create(_ context.Context, a Anexo) (*Anexo, error) {
	a.CriadoEm = time.Now()
	a.AtualizadoEm = a.CriadoEm
	r.anexos[a.ID] = &a
	copia := a
	return &copia, nil
}

func (r *stubRepo) GetByID(_ context.Context, id uuid.UUID) (*Anexo, error) {
	a, ok := r.anexos[id]
	if !ok {
		return nil, ErrNotFound
	}
	copia := *a
	return &copia, nil
}

func (r *stubRepo) ListByConversa(_ context.Context, conversaID uuid.UUID) ([]Anexo, error) {
	var out []Anexo
	for _, a := range r.anexos {
		if a.ConversaID == conversaID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubRepo) ListPendentes(_ context.Context, organizacaoID uuid.UUID) ([]Anexo, error) {
	var out []Anexo
	for _, a := range r.anexos {
		if a.OrganizacaoID == organizacaoID && a.Status == StatusPendente {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string, motivo *string) (*Anexo, error) {
	a, ok := r.anexos[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Status = status
	a.MotivoRejeicao = motivo
	a.AtualizadoEm = time.Now()
	copia := *a
	return &copia, nil
}

// stubOrgs mapeia usuário → papel dentro de uma única organização de teste.
type stubOrgs struct {
	organizacaoID uuid.UUID
	papeis        map[uuid.UUID]string
}

func (o *stubOrgs) EnsureMember(_ context.Context, usuarioID, organizacaoID uuid.UUID) error {
	if organizacaoID != o.organizacaoID {
		return organizacao.ErrForbidden
	}
	if _, ok := o.papeis[usuarioID]; !ok {
		return organizacao.ErrForbidden
	}
	return nil
}

func (o *stubOrgs) EnsureAdmin(ctx context.Context, usuarioID, organizacaoID uuid.UUID) error {
	if err := o.EnsureMember(ctx, usuarioID, organizacaoID); err != nil {
		return err
	}
	if !organizacao.PapelAdministrativo(o.papeis[usuarioID]) {
		return organizacao.ErrForbidden
	}
	return nil
}

func (o *stubOrgs) Papel(ctx context.Context, usuarioID, organizacaoID uuid.UUID) (string, error) {
	if err := o.EnsureMember(ctx, usuarioID, organizacaoID); err != nil {
		return "", err
	}
	return o.papeis[usuarioID], nil
}

type stubStorage struct {
	uploads []storage.UploadInput
	falha   error
}

func (s *stubStorage) Upload(_ context.Context, input storage.UploadInput) (*storage.UploadResult, error) {
	if s.falha != nil {
		return nil, s.falha
	}
	s.uploads = append(s.uploads, input)
	return &storage.UploadResult{URL: "https://bucket.local/" + input.Key}, nil
}

func (s *stubStorage) SignedURL(key string, expires time.Duration) (string, error) {
	return fmt.Sprintf("https://bucket.local/%s?X-Amz-Expires=%d", key, int(expires.Seconds())), nil
}

type fixture struct {
	svc     *Service
	repo    *stubRepo
	store   *stubStorage
	orgID   uuid.UUID
	admin   uuid.UUID
	medico  uuid.UUID
	medico2 uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:    newStubRepo(),
		store:   &stubStorage{},
		orgID:   uuid.New(),
		admin:   uuid.New(),
		medico:  uuid.New(),
		medico2: uuid.New(),
	}
	orgs := &stubOrgs{
		organizacaoID: f.orgID,
		papeis: map[uuid.UUID]string{
			f.admin:   organizacao.PapelAdministrador,
			f.medico:  organizacao.PapelMedico,
			f.medico2: organizacao.PapelMedico,
		},
	}
	f.svc = NewService(f.repo, orgs, f.store)
	return f
}

func (f *fixture) upload(t *testing.T, uploader uuid.UUID) *Anexo {
	t.Helper()
	anexo, err := f.svc.Upload(context.Background(), uploader, UploadAnexoInput{
		ConversaID:    uuid.New(),
		OrganizacaoID: f.orgID,
		NomeArquivo:   "laudo.pdf",
		ContentType:   "application/pdf",
		Conteudo:      []byte("%PDF-1.7 conteudo"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return anexo
}

func TestUploadCriaPendente(t *testing.T) {
	f := newFixture(t)

	anexo := f.upload(t, f.medico)

	if anexo.Status != StatusPendente {
		t.Errorf("status inicial deveria ser pending, veio %s", anexo.Status)
	}
	if anexo.UploaderID != f.medico {
		t.Error("uploader não registrado")
	}
	if len(f.store.uploads) != 1 {
		t.Fatalf("esperava 1 upload no storage, veio %d", len(f.store.uploads))
	}
	if !strings.HasPrefix(f.store.uploads[0].Key, f.orgID.String()+"/chat/") {
		t.Errorf("chave deveria ser escopada à organização: %s", f.store.uploads[0].Key)
	}
	if !strings.HasSuffix(f.store.uploads[0].Key, ".pdf") {
		t.Errorf("chave deveria preservar a extensão: %s", f.store.uploads[0].Key)
	}
}

func TestUploadNaoMembro(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Upload(context.Background(), uuid.New(), UploadAnexoInput{
		ConversaID:    uuid.New(),
		OrganizacaoID: f.orgID,
		NomeArquivo:   "laudo.pdf",
		Conteudo:      []byte("x"),
	})
	if !errors.Is(err, organizacao.ErrForbidden) {
		t.Errorf("esperava ErrForbidden, veio %v", err)
	}
}

func TestUploadNaoGravaQuandoStorageFalha(t *testing.T) {
	f := newFixture(t)
	f.store.falha = errors.New("bucket indisponível")

	_, err := f.svc.Upload(context.Background(), f.medico, UploadAnexoInput{
		ConversaID:    uuid.New(),
		OrganizacaoID: f.orgID,
		NomeArquivo:   "laudo.pdf",
		Conteudo:      []byte("x"),
	})
	if err == nil {
		t.Fatal("falha de storage deveria propagar")
	}
	if len(f.repo.anexos) != 0 {
		t.Error("anexo não deveria ser gravado quando o upload falha")
	}
}

func TestRejeitarTruncaMotivo(t *testing.T) {
	f := newFixture(t)
	anexo := f.upload(t, f.medico)

	motivo := strings.Repeat("ção", 300) // 900 runas, multibyte
	rejeitado, err := f.svc.Rejeitar(context.Background(), f.admin, anexo.ID, motivo)
	if err != nil {
		t.Fatalf("Rejeitar: %v", err)
	}

	if rejeitado.Status != StatusRejeitado {
		t.Errorf("status: %s", rejeitado.Status)
	}
	if rejeitado.MotivoRejeicao == nil {
		t.Fatal("motivo ausente")
	}
	if n := utf8.RuneCountInString(*rejeitado.MotivoRejeicao); n != MotivoMaxRunas {
		t.Errorf("motivo deveria ter %d runas, veio %d", MotivoMaxRunas, n)
	}
	if !utf8.ValidString(*rejeitado.MotivoRejeicao) {
		t.Error("truncamento quebrou caractere multibyte")
	}
}

func TestRejeitarExigeMotivo(t *testing.T) {
	f := newFixture(t)
	anexo := f.upload(t, f.medico)

	if _, err := f.svc.Rejeitar(context.Background(), f.admin, anexo.ID, "   "); err == nil {
		t.Error("motivo vazio aceito")
	}
}

func TestRevisaoExigeAdmin(t *testing.T) {
	f := newFixture(t)
	anexo := f.upload(t, f.medico)

	if _, err := f.svc.Aprovar(context.Background(), f.medico2, anexo.ID); !errors.Is(err, organizacao.ErrForbidden) {
		t.Errorf("aprovação por não-admin: esperava ErrForbidden, veio %v", err)
	}
	if _, err := f.svc.Rejeitar(context.Background(), f.medico2, anexo.ID, "não"); !errors.Is(err, organizacao.ErrForbidden) {
		t.Errorf("rejeição por não-admin: esperava ErrForbidden, veio %v", err)
	}
	if f.repo.anexos[anexo.ID].Status != StatusPendente {
		t.Error("status não deveria mudar após tentativas negadas")
	}
}

func TestDownloadURLGate(t *testing.T) {
	f := newFixture(t)
	anexo := f.upload(t, f.medico)
	ctx := context.Background()

	// Pendente: uploader e admin podem, outro membro não.
	if _, err := f.svc.DownloadURL(ctx, f.medico, anexo.ID); err != nil {
		t.Errorf("uploader deveria baixar o próprio anexo pendente: %v", err)
	}
	if _, err := f.svc.DownloadURL(ctx, f.admin, anexo.ID); err != nil {
		t.Errorf("admin deveria baixar anexo pendente: %v", err)
	}
	if _, err := f.svc.DownloadURL(ctx, f.medico2, anexo.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("membro comum não deveria baixar anexo pendente, veio %v", err)
	}

	// Não membro: negado mesmo após aceitação.
	if _, err := f.svc.Aprovar(ctx, f.admin, anexo.ID); err != nil {
		t.Fatalf("Aprovar: %v", err)
	}
	if _, err := f.svc.DownloadURL(ctx, uuid.New(), anexo.ID); !errors.Is(err, organizacao.ErrForbidden) {
		t.Errorf("não-membro deveria ser negado, veio %v", err)
	}

	// Aceito: qualquer membro baixa, com validade de 1 hora.
	url, err := f.svc.DownloadURL(ctx, f.medico2, anexo.ID)
	if err != nil {
		t.Fatalf("membro deveria baixar anexo aceito: %v", err)
	}
	if !strings.Contains(url, "X-Amz-Expires=3600") {
		t.Errorf("URL deveria valer por 1 hora: %s", url)
	}
}

func TestDownloadURLInexistente(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.DownloadURL(context.Background(), f.medico, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("esperava ErrNotFound, veio %v", err)
	}
}

func TestListByConversaFiltraVisibilidade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	anexo := f.upload(t, f.medico)
	conversaID := anexo.ConversaID

	// Outro membro não vê o pendente; uploader e admin veem.
	paraMedico2, err := f.svc.ListByConversa(ctx, f.medico2, f.orgID, conversaID)
	if err != nil {
		t.Fatal(err)
	}
	if len(paraMedico2) != 0 {
		t.Errorf("membro comum não deveria ver pendentes, viu %d", len(paraMedico2))
	}

	paraUploader, _ := f.svc.ListByConversa(ctx, f.medico, f.orgID, conversaID)
	if len(paraUploader) != 1 {
		t.Errorf("uploader deveria ver o próprio pendente, viu %d", len(paraUploader))
	}

	paraAdmin, _ := f.svc.ListByConversa(ctx, f.admin, f.orgID, conversaID)
	if len(paraAdmin) != 1 {
		t.Errorf("admin deveria ver pendentes, viu %d", len(paraAdmin))
	}

	if _, err := f.svc.Aprovar(ctx, f.admin, anexo.ID); err != nil {
		t.Fatal(err)
	}
	paraMedico2, _ = f.svc.ListByConversa(ctx, f.medico2, f.orgID, conversaID)
	if len(paraMedico2) != 1 {
		t.Errorf("anexo aceito deveria aparecer para todos os membros, viu %d", len(paraMedico2))
	}
}

func TestListPendentesExigeAdmin(t *testing.T) {
	f := newFixture(t)
	f.upload(t, f.medico)

	if _, err := f.svc.ListPendentes(context.Background(), f.medico, f.orgID); !errors.Is(err, organizacao.ErrForbidden) {
		t.Errorf("fila de revisão aberta a não-admin: %v", err)
	}

	pendentes, err := f.svc.ListPendentes(context.Background(), f.admin, f.orgID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pendentes) != 1 {
		t.Errorf("esperava 1 pendente, veio %d", len(pendentes))
	}
}
