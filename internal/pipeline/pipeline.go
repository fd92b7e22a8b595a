// Package pipeline drives an import session end to end: schema resolution,
// normalization, and categorization per file, then batch-wide transfer
// reconciliation and persistence.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tharunjacob/firetrackspendz/internal/categorize"
	"github.com/tharunjacob/firetrackspendz/internal/domain"
	"github.com/tharunjacob/firetrackspendz/internal/logger"
	"github.com/tharunjacob/firetrackspendz/internal/mapping"
	"github.com/tharunjacob/firetrackspendz/internal/oracle"
	"github.com/tharunjacob/firetrackspendz/internal/reconcile"
	"github.com/tharunjacob/firetrackspendz/internal/resolver"
)

// Phase tracks where a batch import stands. Reconciliation only runs once
// every file has normalized, because transfer legs live in different files.
type Phase string

const (
	PhaseNormalizing Phase = "NORMALIZING"
	PhaseReconciling Phase = "RECONCILING"
	PhaseDone        Phase = "DONE"
)

// InputFile is one file handed to an import session. Owner distinguishes
// accounts, typically the family member or bank the export belongs to.
type InputFile struct {
	Name  string
	Owner string
	Data  []byte
}

// FileStat reports the per-file outcome of a batch.
type FileStat struct {
	Name         string
	Owner        string
	Transactions int
	Err          error
}

// TransactionSink receives the finished batch. The local ledger store
// implements it; tests substitute a recorder.
type TransactionSink interface {
	Upsert(ctx context.Context, txs []*domain.Transaction) error
}

// Importer wires the resolution ladder's collaborators. Oracle, extractor,
// and sink are optional; the ladder simply skips what is missing.
type Importer struct {
	cache     mapping.Repository
	oracle    oracle.SchemaOracle
	extractor oracle.StatementExtractor
	resolver  *resolver.Resolver
	engine    *categorize.Engine
	sink      TransactionSink
}

// Config collects the Importer's collaborators.
type Config struct {
	Cache     mapping.Repository
	Oracle    oracle.SchemaOracle
	Extractor oracle.StatementExtractor
	Resolver  *resolver.Resolver
	Engine    *categorize.Engine
	Sink      TransactionSink
}

// New validates the required collaborators and builds an Importer.
func New(cfg Config) (*Importer, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("pipeline: mapping cache is required")
	}
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("pipeline: resolver is required")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("pipeline: categorize engine is required")
	}
	return &Importer{
		cache:     cfg.Cache,
		oracle:    cfg.Oracle,
		extractor: cfg.Extractor,
		resolver:  cfg.Resolver,
		engine:    cfg.Engine,
		sink:      cfg.Sink,
	}, nil
}

// State is the shared state a batch's steps execute against.
type State struct {
	BatchID string
	Phase   Phase

	Files        []InputFile
	FileStats    []FileStat
	Transactions []*domain.Transaction

	TransferCount int
}

// Step is a single stage of the batch import.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// Pipeline executes steps in order, stopping at the first failure.
type Pipeline struct {
	steps []Step
}

func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// ImportBatch runs a whole session: every file through the resolution ladder,
// then categorization, reconciliation, and persistence over the combined
// batch. Individual file failures are recorded in FileStats and do not abort
// the batch; the batch fails only when no file yields anything.
func (imp *Importer) ImportBatch(ctx context.Context, files []InputFile) (*State, error) {
	state := &State{
		BatchID: uuid.NewString(),
		Phase:   PhaseNormalizing,
		Files:   files,
	}

	batch := NewPipeline(
		&normalizeFilesStep{imp: imp},
		&reconcileStep{},
		&persistStep{imp: imp},
	)
	if err := batch.Execute(ctx, state); err != nil {
		return state, err
	}
	state.Phase = PhaseDone
	return state, nil
}

type normalizeFilesStep struct {
	imp *Importer
}

func (s *normalizeFilesStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	for _, f := range state.Files {
		txs, err := s.imp.TransformFile(ctx, f.Data, f.Name, f.Owner)
		stat := FileStat{Name: f.Name, Owner: f.Owner, Transactions: len(txs), Err: err}
		state.FileStats = append(state.FileStats, stat)
		if err != nil {
			log.Error().Err(err).Str("file", f.Name).Msg("file import failed")
			continue
		}
		state.Transactions = append(state.Transactions, txs...)
	}

	if len(state.Transactions) == 0 {
		return fmt.Errorf("no file in the batch produced transactions")
	}
	return nil
}

type reconcileStep struct{}

func (s *reconcileStep) Execute(ctx context.Context, state *State) error {
	state.Phase = PhaseReconciling
	txs, matched := reconcile.Transfers(state.Transactions)
	state.Transactions = txs
	state.TransferCount = matched
	log := logger.FromContext(ctx)
	log.Info().Int("transfer_pairs", matched).Msg("reconciled inter-account transfers")
	return nil
}

type persistStep struct {
	imp *Importer
}

func (s *persistStep) Execute(ctx context.Context, state *State) error {
	if s.imp.sink == nil {
		return nil
	}
	return s.imp.sink.Upsert(ctx, state.Transactions)
}
