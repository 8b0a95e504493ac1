// Package ledger is the transaction boundary of the ledger core. Every
// document mutation runs through Gateway in a single database transaction.
package ledger

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/erp/ledger/internal/domain/catalog"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/partner"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds the ledger policy switches
type Config struct {
	HomeState        string
	Series           trade.SeriesConfig
	AllowBackorders  bool
	AllowOverpayment bool
	AllowVoidPaid    bool
	VerifyOnRecord   bool
	Retry            RetryPolicy
	IdempotencyTTL   time.Duration
}

// Gateway composes the aggregator, stock ledger and payment allocator
type Gateway struct {
	scope       TransactionScope
	aggregator  *trade.Aggregator
	stock       *StockLedger
	allocator   finance.Allocator
	cfg         Config
	idempotency shared.IdempotencyStore
	validate    *validator.Validate
	logger      *zap.Logger
	metrics     Recorder
}

// NewGateway creates a gateway over scope
func NewGateway(scope TransactionScope, cfg Config, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.IdempotencyTTL == 0 {
		cfg.IdempotencyTTL = shared.DefaultIdempotencyTTL
	}
	return &Gateway{
		scope:      scope,
		aggregator: trade.NewAggregator(cfg.HomeState, cfg.Series),
		stock:      NewStockLedger(scope, inventory.StockPolicy{AllowBackorders: cfg.AllowBackorders}, cfg.VerifyOnRecord, logger),
		allocator:  finance.Allocator{AllowOverpayment: cfg.AllowOverpayment},
		cfg:        cfg,
		validate:   validator.New(),
		logger:     logger,
		metrics:    noopRecorder{},
	}
}

// SetIdempotencyStore enables the payment idempotency cache
func (g *Gateway) SetIdempotencyStore(store shared.IdempotencyStore) {
	g.idempotency = store
}

// SetRecorder sets the metrics recorder
func (g *Gateway) SetRecorder(r Recorder) {
	if r != nil {
		g.metrics = r
		g.stock.SetRecorder(r)
	}
}

// Stock returns the stock ledger sharing this gateway's scope
func (g *Gateway) Stock() *StockLedger {
	return g.stock
}

// CreateDocument builds a document, inserts it with its lines and appends one
// stock movement per line, all in one transaction.
func (g *Gateway) CreateDocument(ctx context.Context, cmd CreateDocumentCommand) (*trade.Document, error) {
	ctx, span := telemetry.StartOperation(ctx, "create_document",
		telemetry.DocumentType(string(cmd.Type)),
		telemetry.PartyID(cmd.PartyID),
	)
	defer span.End()

	if err := g.validateCommand(cmd); err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}
	lines := cmd.lineInputs()
	if err := trade.ValidateLines(lines); err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}

	var doc *trade.Document
	err := g.cfg.Retry.run(ctx, func() error {
		var err error
		doc, err = g.createDocumentTx(ctx, cmd, lines)
		return err
	}, g.onRetry(ctx, "create_document"))
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}

	span.SetAttributes(telemetry.DocumentID(doc.ID), telemetry.DocumentNumber(doc.Number))
	g.metrics.DocumentCreated(ctx, doc.Type, doc.GrandTotal)
	g.logger.Info("Document created",
		zap.String("type", string(doc.Type)),
		zap.String("number", doc.Number),
		zap.String("document_id", doc.ID.String()),
		zap.String("grand_total", doc.GrandTotal.StringFixed(2)),
		zap.Int("lines", len(doc.Lines)),
	)
	return doc, nil
}

func (g *Gateway) createDocumentTx(ctx context.Context, cmd CreateDocumentCommand, lines []trade.LineInput) (*trade.Document, error) {
	var doc *trade.Document
	err := g.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		party, err := repos.Parties().FindByID(ctx, cmd.PartyID)
		if err != nil {
			return err
		}
		if !party.IsActive {
			return shared.NewValidationError("party %s is inactive", party.Name)
		}

		products, err := lockProducts(ctx, repos, lineProductIDs(lines))
		if err != nil {
			return err
		}

		doc, err = g.aggregator.Build(ctx, trade.BuildRequest{
			Type:               cmd.Type,
			Party:              party,
			Lines:              lines,
			Products:           products,
			PlaceOfSupplyState: cmd.PlaceOfSupplyState,
			Date:               cmd.Date,
			DueDate:            cmd.DueDate,
			Notes:              cmd.Notes,
		}, repos.Series())
		if err != nil {
			return err
		}

		if err := repos.Documents().Create(ctx, doc); err != nil {
			return err
		}

		for _, line := range doc.Lines {
			m, err := inventory.NewStockMovement(line.ProductID, doc.Type.StockDelta(line.Qty), doc.Type.StockReason())
			if err != nil {
				return err
			}
			m.WithSource(doc.Type.String(), doc.ID).WithNote(doc.Number)
			if err := g.stock.record(ctx, repos, products[line.ProductID], m); err != nil {
				return err
			}
		}
		return nil
	})
	return doc, err
}

// AddPayment allocates a payment against a document under the document's
// row lock. With an idempotency key, a replay returns the original payment.
func (g *Gateway) AddPayment(ctx context.Context, cmd AddPaymentCommand) (*finance.Payment, error) {
	ctx, span := telemetry.StartOperation(ctx, "add_payment",
		telemetry.DocumentType(string(cmd.DocumentType)),
		telemetry.DocumentID(cmd.DocumentID),
		telemetry.Amount(cmd.Amount),
	)
	defer span.End()

	if err := g.validateCommand(cmd); err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}
	if !cmd.Amount.IsPositive() {
		err := shared.NewDomainError(shared.CodeInvalidAmount, "payment amount must be greater than zero")
		telemetry.Fail(span, err)
		return nil, err
	}

	if cmd.IdempotencyKey != "" {
		if p := g.recallPayment(ctx, cmd); p != nil {
			telemetry.Replayed(span, p.ID)
			return p, nil
		}
	}

	var payment *finance.Payment
	var replay bool
	tx := func() error {
		var err error
		payment, replay, err = g.addPaymentTx(ctx, cmd)
		return err
	}

	var err error
	if cmd.IdempotencyKey != "" {
		err = g.cfg.Retry.run(ctx, tx, g.onRetry(ctx, "add_payment"))
	} else {
		err = tx()
	}
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}

	span.SetAttributes(telemetry.PaymentID(payment.ID))
	if cmd.IdempotencyKey != "" {
		g.rememberPayment(ctx, cmd, payment)
	}
	if replay {
		return payment, nil
	}

	g.metrics.PaymentAllocated(ctx, payment.DocumentType, payment.Amount)
	g.logger.Info("Payment allocated",
		zap.String("document_type", string(payment.DocumentType)),
		zap.String("document_id", payment.DocumentID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
	)
	return payment, nil
}

func (g *Gateway) addPaymentTx(ctx context.Context, cmd AddPaymentCommand) (*finance.Payment, bool, error) {
	var payment *finance.Payment
	var replay bool
	err := g.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		doc, err := repos.Documents().FindByIDForUpdate(ctx, cmd.DocumentType, cmd.DocumentID)
		if err != nil {
			return err
		}

		if cmd.IdempotencyKey != "" {
			existing, err := repos.Payments().FindByIdempotencyKey(ctx, cmd.DocumentType, cmd.IdempotencyKey)
			switch {
			case err == nil:
				if existing.DocumentID != doc.ID {
					return shared.NewValidationError("idempotency key already used for another document")
				}
				payment, replay = existing, true
				return nil
			case !errors.Is(err, shared.ErrNotFound):
				return err
			}
		}

		previous, err := repos.Payments().FindByDocument(ctx, doc.ID)
		if err != nil {
			return err
		}

		expected := doc.Version
		payment, err = g.allocator.Allocate(doc, finance.SumPayments(previous), finance.AllocationRequest{
			Amount:         cmd.Amount,
			Date:           cmd.Date,
			Method:         cmd.Method,
			ReferenceNo:    cmd.ReferenceNo,
			IdempotencyKey: cmd.IdempotencyKey,
		})
		if err != nil {
			return err
		}
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return err
		}
		return repos.Documents().UpdateHeader(ctx, doc, expected)
	})
	return payment, replay, err
}

// VoidDocument marks a document void and appends reversal movements for every
// stock movement it caused. A second void fails with ALREADY_VOID and writes
// nothing.
func (g *Gateway) VoidDocument(ctx context.Context, docType trade.DocumentType, id uuid.UUID) (*trade.Document, error) {
	ctx, span := telemetry.StartOperation(ctx, "void_document",
		telemetry.DocumentType(string(docType)),
		telemetry.DocumentID(id),
	)
	defer span.End()

	if !docType.IsValid() {
		return nil, shared.NewValidationError("unknown document type %q", docType)
	}

	var doc *trade.Document
	var reversals int
	err := g.cfg.Retry.run(ctx, func() error {
		var err error
		doc, reversals, err = g.voidDocumentTx(ctx, docType, id)
		return err
	}, g.onRetry(ctx, "void_document"))
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}

	g.metrics.DocumentVoided(ctx, doc.Type)
	g.logger.Info("Document voided",
		zap.String("type", string(doc.Type)),
		zap.String("number", doc.Number),
		zap.Int("reversals", reversals),
	)
	return doc, nil
}

func (g *Gateway) voidDocumentTx(ctx context.Context, docType trade.DocumentType, id uuid.UUID) (*trade.Document, int, error) {
	var doc *trade.Document
	reversals := 0
	err := g.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		doc, err = repos.Documents().FindByIDForUpdate(ctx, docType, id)
		if err != nil {
			return err
		}
		expected := doc.Version
		if err := doc.Void(g.cfg.AllowVoidPaid); err != nil {
			return err
		}

		movements, err := repos.Movements().FindBySource(ctx, doc.ID)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(movements))
		for _, m := range movements {
			ids = append(ids, m.ProductID)
		}
		products, err := lockProducts(ctx, repos, ids)
		if err != nil {
			return err
		}

		for i := range movements {
			m := movements[i]
			if m.Reason == inventory.ReasonReversal {
				continue
			}
			if err := g.stock.record(ctx, repos, products[m.ProductID], m.Reverse()); err != nil {
				return err
			}
			reversals++
		}
		return repos.Documents().UpdateHeader(ctx, doc, expected)
	})
	return doc, reversals, err
}

// AdjustStock records a manual stock correction
func (g *Gateway) AdjustStock(ctx context.Context, cmd AdjustStockCommand) (*inventory.StockMovement, error) {
	ctx, span := telemetry.StartOperation(ctx, "adjust_stock",
		telemetry.ProductID(cmd.ProductID),
		telemetry.Quantity(cmd.Delta),
	)
	defer span.End()

	if err := g.validateCommand(cmd); err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}

	var m *inventory.StockMovement
	err := g.cfg.Retry.run(ctx, func() error {
		var err error
		m, err = g.stock.Record(ctx, RecordCommand{
			ProductID: cmd.ProductID,
			Delta:     cmd.Delta,
			Reason:    inventory.ReasonAdjustment,
			Note:      cmd.Note,
		})
		return err
	}, g.onRetry(ctx, "adjust_stock"))
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}
	return m, nil
}

// GetDocument loads a document with its payments
func (g *Gateway) GetDocument(ctx context.Context, docType trade.DocumentType, id uuid.UUID) (*DocumentView, error) {
	var view DocumentView
	err := g.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		doc, err := repos.Documents().FindByID(ctx, docType, id)
		if err != nil {
			return err
		}
		payments, err := repos.Payments().FindByDocument(ctx, doc.ID)
		if err != nil {
			return err
		}
		view = DocumentView{Document: doc, Payments: payments}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ListParties reads the party directory. Inactive parties are excluded unless
// requested; they stay valid on documents that already reference them.
func (g *Gateway) ListParties(ctx context.Context, filter partner.PartyFilter) ([]partner.Party, int64, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, 0, shared.NewValidationError("unknown party type %q", filter.Type)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	var parties []partner.Party
	var total int64
	err := g.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		parties, total, err = repos.Parties().List(ctx, filter)
		return err
	})
	return parties, total, err
}

func (g *Gateway) validateCommand(cmd any) error {
	if err := g.validate.Struct(cmd); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return shared.NewValidationError("%s failed on '%s'", fe.Namespace(), fe.Tag())
		}
		return shared.NewValidationError("%v", err)
	}
	return nil
}

func (g *Gateway) onRetry(ctx context.Context, op string) func(int, error) {
	return func(attempt int, err error) {
		g.metrics.ConflictRetried(ctx, op)
		g.logger.Warn("Retrying after concurrency conflict",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}

func idempotencyCacheKey(cmd AddPaymentCommand) string {
	return string(cmd.DocumentType) + ":" + cmd.IdempotencyKey
}

// recallPayment consults the idempotency cache. Cache errors are logged and
// treated as a miss; the database unique index remains authoritative.
func (g *Gateway) recallPayment(ctx context.Context, cmd AddPaymentCommand) *finance.Payment {
	if g.idempotency == nil {
		return nil
	}
	paymentID, ok, err := g.idempotency.Recall(ctx, idempotencyCacheKey(cmd))
	if err != nil {
		g.logger.Warn("Idempotency cache lookup failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return nil
	}

	var payment *finance.Payment
	err = g.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payment, err = repos.Payments().FindByID(ctx, id)
		return err
	})
	if err != nil || payment.DocumentID != cmd.DocumentID {
		return nil
	}
	return payment
}

func (g *Gateway) rememberPayment(ctx context.Context, cmd AddPaymentCommand, payment *finance.Payment) {
	if g.idempotency == nil {
		return
	}
	if _, err := g.idempotency.Remember(ctx, idempotencyCacheKey(cmd), payment.ID.String(), g.cfg.IdempotencyTTL); err != nil {
		g.logger.Warn("Idempotency cache write failed", zap.Error(err))
	}
}

func lineProductIDs(lines []trade.LineInput) []uuid.UUID {
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	return ids
}

// lockProducts locks each distinct product once, in ascending id order, so
// two transactions over overlapping products cannot deadlock.
func lockProducts(ctx context.Context, repos TransactionalRepositories, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})

	products := make(map[uuid.UUID]*catalog.Product, len(unique))
	for _, id := range unique {
		p, err := repos.Products().FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewValidationError("product %s not found", id)
			}
			return nil, err
		}
		products[id] = p
	}
	return products, nil
}
