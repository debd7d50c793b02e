package alerta

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medsyncsaude/api/internal/config"
	"github.com/medsyncsaude/api/internal/escala"
)

// plantaoLister devolve plantões sem profissional que começam até o horizonte.
type plantaoLister interface {
	ListAbertos(ctx context.Context, ate time.Time) ([]escala.PlantaoDetalhado, error)
}

// Service varre periodicamente a agenda em busca de plantões descobertos e
// avisa as organizações afetadas.
type Service struct {
	plantoes plantaoLister
	cfg      config.AlertaConfig
	notifier Notifier
	logger   zerolog.Logger

	once   sync.Once
	cancel context.CancelFunc
}

// NewService cria o monitor de cobertura.
func NewService(plantoes plantaoLister, cfg config.AlertaConfig, logger zerolog.Logger, notifier Notifier) *Service {
	return &Service{
		plantoes: plantoes,
		cfg:      cfg,
		notifier: notifier,
		logger:   logger,
	}
}

// Start inicia o loop periódico. Safe para chamar múltiplas vezes.
func (s *Service) Start(parent context.Context) {
	if !s.cfg.Enabled {
		return
	}
	s.once.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		s.cancel = cancel
		go s.runLoop(ctx)
	})
}

// Stop encerra o loop periódico.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Service) runLoop(ctx context.Context) {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", interval).Msg("alerta: loop iniciado")

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error().Err(err).Msg("alerta: primeira execução falhou")
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("alerta: loop encerrado")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("alerta: execução periódica falhou")
			}
		}
	}
}

// RunOnce faz uma varredura e dispara um aviso por organização afetada.
func (s *Service) RunOnce(ctx context.Context) error {
	horizonte := s.cfg.Horizon
	if horizonte <= 0 {
		horizonte = 48 * time.Hour
	}

	abertos, err := s.plantoes.ListAbertos(ctx, time.Now().Add(horizonte))
	if err != nil {
		return fmt.Errorf("listar plantões abertos: %w", err)
	}
	if len(abertos) == 0 {
		return nil
	}

	porOrganizacao := make(map[uuid.UUID][]escala.PlantaoDetalhado)
	for _, p := range abertos {
		porOrganizacao[p.OrganizacaoID] = append(porOrganizacao[p.OrganizacaoID], p)
	}

	for organizacaoID, plantoes := range porOrganizacao {
		msg := montarMensagem(organizacaoID, plantoes, horizonte)
		if s.notifier == nil {
			continue
		}
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.logger.Error().Err(err).
				Str("organizacao_id", organizacaoID.String()).
				Int("plantoes", len(plantoes)).
				Msg("alerta: falha ao notificar cobertura")
			continue
		}
		s.logger.Info().
			Str("organizacao_id", organizacaoID.String()).
			Int("plantoes", len(plantoes)).
			Msg("alerta: aviso de cobertura enviado")
	}

	return nil
}

func montarMensagem(organizacaoID uuid.UUID, plantoes []escala.PlantaoDetalhado, horizonte time.Duration) Mensagem {
	var b strings.Builder
	for i, p := range plantoes {
		if i == 5 {
			fmt.Fprintf(&b, "… e mais %d plantões.\n", len(plantoes)-i)
			break
		}
		linha := fmt.Sprintf("- %s, %s", p.ClinicaNome, p.Inicio.Format("02/01 15:04"))
		if p.SetorNome != nil {
			linha = fmt.Sprintf("- %s (%s), %s", p.ClinicaNome, *p.SetorNome, p.Inicio.Format("02/01 15:04"))
		}
		b.WriteString(linha + "\n")
	}

	return Mensagem{
		OrganizacaoID: organizacaoID,
		Titulo:        fmt.Sprintf("%d plantão(ões) sem profissional nas próximas %dh", len(plantoes), int(horizonte.Hours())),
		Texto:         strings.TrimRight(b.String(), "\n"),
	}
}
