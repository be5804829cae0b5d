package indexer_test

import (
	"context"
	"math/big"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sommelier-labs/cellars-indexer/internal/adapter"
	"github.com/sommelier-labs/cellars-indexer/internal/chain"
	"github.com/sommelier-labs/cellars-indexer/internal/domain"
	"github.com/sommelier-labs/cellars-indexer/internal/engine"
	"github.com/sommelier-labs/cellars-indexer/internal/entities"
	"github.com/sommelier-labs/cellars-indexer/internal/indexer"
	"github.com/sommelier-labs/cellars-indexer/internal/logger"
	"github.com/sommelier-labs/cellars-indexer/internal/pricing"
	"github.com/sommelier-labs/cellars-indexer/internal/store"
)

const (
	testCellar = "0x6b7f87279982d919bbf85182ddeab179b366d8f2"
	testWallet = "0x1111111111111111111111111111111111111111"
	testUSDC   = domain.USDCAddress
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// fakeVault serves a fixed holding asset, the rest is unused here
type fakeVault struct{}

func (f *fakeVault) ConvertToAssets(ctx context.Context, cellar string, shares *big.Int) (*big.Int, error) {
	return nil, chain.ErrReverted
}

func (f *fakeVault) TotalAssets(ctx context.Context, cellar string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeVault) TotalHoldings(ctx context.Context, cellar string) (*big.Int, error) {
	return nil, chain.ErrUnsupported
}

func (f *fakeVault) HoldingAsset(ctx context.Context, cellar string) (string, error) {
	return testUSDC, nil
}

func (f *fakeVault) Positions(ctx context.Context, cellar string) ([]string, error) {
	return nil, nil
}

type fakeERC20 struct{}

func (f *fakeERC20) Symbol(ctx context.Context, token string) (string, error) {
	return "USDC", nil
}

func (f *fakeERC20) Decimals(ctx context.Context, token string) (int32, error) {
	return 6, nil
}

func (f *fakeERC20) BalanceOf(ctx context.Context, token, owner string) (*big.Int, error) {
	return big.NewInt(0), nil
}

// Fake NATS plumbing over the adapter interfaces

type fakeMsg struct {
	data []byte

	mu     sync.Mutex
	acked  bool
	naked  bool
	termed bool
}

func (m *fakeMsg) Data() []byte { return m.data }

func (m *fakeMsg) Metadata() (*jetstream.MsgMetadata, error) {
	return &jetstream.MsgMetadata{NumDelivered: 1}, nil
}

func (m *fakeMsg) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = true
	return nil
}

func (m *fakeMsg) Nak() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.naked = true
	return nil
}

func (m *fakeMsg) Term() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.termed = true
	return nil
}

func (m *fakeMsg) state() (acked, naked, termed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acked, m.naked, m.termed
}

type fakeConsumeContext struct{}

func (f *fakeConsumeContext) Stop()  {}
func (f *fakeConsumeContext) Drain() {}
func (f *fakeConsumeContext) Closed() <-chan struct{} {
	return make(chan struct{})
}

type fakeConsumer struct {
	mu      sync.Mutex
	handler adapter.MessageHandler
}

func (f *fakeConsumer) Consume(handler adapter.MessageHandler, opts ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
	return &fakeConsumeContext{}, nil
}

func (f *fakeConsumer) Info(ctx context.Context) (*jetstream.ConsumerInfo, error) {
	return &jetstream.ConsumerInfo{Name: "cellars-indexer"}, nil
}

// deliver pushes a message through the registered consume callback
func (f *fakeConsumer) deliver(t *testing.T, msg adapter.Message) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.handler != nil
	}, 5*time.Second, 10*time.Millisecond, "consumer never registered")

	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	handler(msg)
}

type fakeJetStream struct {
	consumer *fakeConsumer
}

func (f *fakeJetStream) Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	return &jetstream.PubAck{}, nil
}

func (f *fakeJetStream) CreateOrUpdateConsumer(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (adapter.Consumer, error) {
	return f.consumer, nil
}

func (f *fakeJetStream) Consumer(ctx context.Context, stream string, consumer string) (adapter.Consumer, error) {
	return f.consumer, nil
}

type fakeNatsConn struct{}

func (f *fakeNatsConn) Close()               {}
func (f *fakeNatsConn) LastError() error     { return nil }
func (f *fakeNatsConn) ConnectedUrl() string { return "nats://fake" }

type fakeNatsJetStream struct {
	js *fakeJetStream
}

func (f *fakeNatsJetStream) Connect(url string, options ...nats.Option) (adapter.NatsConn, adapter.JetStream, error) {
	return &fakeNatsConn{}, f.js, nil
}

type fixture struct {
	store    store.Store
	consumer *fakeConsumer
	indexer  indexer.Indexer
	cancel   context.CancelFunc
	done     chan error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.NewMemoryStore()
	repo := entities.NewRepository(st)
	registry := domain.NewRegistry([]domain.CellarConfig{
		{Address: testCellar, Generation: domain.GenerationV1_5, StartBlock: 100},
	})
	readers := map[domain.Generation]chain.VaultReader{
		domain.GenerationV1_5: &fakeVault{},
	}
	oracle := pricing.NewCachedOracle(st, pricing.StaticSource{testUSDC: decimal.NewFromInt(1)})
	eng := engine.New(repo, registry, readers, &fakeERC20{}, oracle)

	consumer := &fakeConsumer{}
	natsJS := &fakeNatsJetStream{js: &fakeJetStream{consumer: consumer}}

	idx, err := indexer.NewIndexer(indexer.Config{
		URL:            "nats://fake",
		StreamName:     "EVENTS",
		ConsumerName:   "cellars-indexer",
		AckWaitTimeout: 30 * time.Second,
		MaxDeliver:     5,
	}, natsJS, eng, adapter.NewJSON())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- idx.Run(ctx) }()

	f := &fixture{store: st, consumer: consumer, indexer: idx, cancel: cancel, done: done}
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("indexer did not shut down")
		}
		idx.Close()
	})
	return f
}

func depositPayload(t *testing.T, block uint64) []byte {
	t.Helper()
	data, err := adapter.NewJSON().Marshal(&domain.CellarEvent{
		Chain:     domain.ChainEthereumMainnet,
		Kind:      domain.EventKindDeposit,
		Cellar:    testCellar,
		Wallet:    testWallet,
		Amount:    big.NewInt(1_000_000),
		TxHash:    "0xdeadbeef",
		Block:     block,
		Timestamp: time.Unix(1664805700, 0),
	})
	require.NoError(t, err)
	return data
}

func TestIndexerAppliesEventAndAcks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msg := &fakeMsg{data: depositPayload(t, 200)}
	f.consumer.deliver(t, msg)

	require.Eventually(t, func() bool {
		acked, _, _ := msg.state()
		return acked
	}, 5*time.Second, 10*time.Millisecond)

	cellar, err := f.store.GetCellar(ctx, testCellar)
	require.NoError(t, err)
	require.NotNil(t, cellar)
	// 1 USDC deposited, normalized to 18 decimals
	assert.Equal(t, "1000000000000000000", cellar.TvlActive.String())
}

func TestIndexerTerminatesUnparseableMessages(t *testing.T) {
	f := newFixture(t)

	msg := &fakeMsg{data: []byte("{not json")}
	f.consumer.deliver(t, msg)

	require.Eventually(t, func() bool {
		_, _, termed := msg.state()
		return termed
	}, 5*time.Second, 10*time.Millisecond)

	acked, naked, _ := msg.state()
	assert.False(t, acked)
	assert.False(t, naked)
}

func TestIndexerNaksFailedEvents(t *testing.T) {
	f := newFixture(t)

	data, err := adapter.NewJSON().Marshal(&domain.CellarEvent{
		Chain: domain.ChainEthereumMainnet,
		Kind:  domain.EventKind("bogus"),
		Block: 200,
	})
	require.NoError(t, err)

	msg := &fakeMsg{data: data}
	f.consumer.deliver(t, msg)

	require.Eventually(t, func() bool {
		_, naked, _ := msg.state()
		return naked
	}, 5*time.Second, 10*time.Millisecond)

	acked, _, _ := msg.state()
	assert.False(t, acked)
}
