package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/services/ledger"
	"github.com/hxuan190/block-etf/internal/services/registry"
	"github.com/hxuan190/block-etf/internal/services/router"
	"github.com/hxuan190/block-etf/internal/services/token"
)

const (
	ChainBucket    = "chain"
	TokensBucket   = "tokens"
	LedgerBucket   = "ledger"
	RegistryBucket = "registry"
	RouterBucket   = "router"
	VenuesBucket   = "venues"

	// Each bucket holds a single record under this key.
	currentKey = "current"

	DefaultDBPath = "./data/etf.db"
)

// State is everything needed to rebuild the fund after a restart.
type State struct {
	Height uint64
	Tokens token.Snapshot
	Ledger ledger.Snapshot
	Routes []registry.Entry
	Router router.AdminState
	Pools  []domain.Pool
}

type StoredChain struct {
	Height uint64 `json:"height"`
}

type StoredBalance struct {
	Token  string `json:"token"`
	Holder string `json:"holder"`
	Amount string `json:"amount"`
}

type StoredAllowance struct {
	Token   string `json:"token"`
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type StoredToken struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type StoredTokens struct {
	Tokens     []StoredToken     `json:"tokens"`
	Balances   []StoredBalance   `json:"balances"`
	Allowances []StoredAllowance `json:"allowances"`
}

type StoredHolding struct {
	Holder string `json:"holder"`
	Shares string `json:"shares"`
}

type StoredLedger struct {
	Balances []StoredHolding `json:"balances"`
	Managers []string        `json:"managers"`
}

type StoredRoute struct {
	Asset string `json:"asset"`
	UseV3 bool   `json:"useV3"`
	Fee   uint32 `json:"fee"`
}

type StoredRouter struct {
	Owner          string `json:"owner"`
	MaxSlippageBps uint16 `json:"maxSlippageBps"`
	Paused         bool   `json:"paused"`
}

type StoredPool struct {
	Address string `json:"address"`
	Venue   uint8  `json:"venue"`
	Token0  string `json:"token0"`
	Token1  string `json:"token1"`
	FeeTier uint32 `json:"feeTier"`
	FeeBps  uint16 `json:"feeBps"`
	Active  bool   `json:"active"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[etfStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveState writes every section in one batch.
func (s *Storage) SaveState(st *State) error {
	records := map[string]any{
		ChainBucket:    StoredChain{Height: st.Height},
		TokensBucket:   tokensToStored(st.Tokens),
		LedgerBucket:   ledgerToStored(st.Ledger),
		RegistryBucket: routesToStored(st.Routes),
		RouterBucket:   routerToStored(st.Router),
		VenuesBucket:   poolsToStored(st.Pools),
	}

	batch := s.db.NewBatch()
	for bucket, record := range records {
		data, err := sonic.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", bucket, err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(bucket),
			Key:    []byte(currentKey),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add %s to batch: %w", bucket, err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Uint64("height", st.Height).Msg("[etfStorage] FAILED to execute batch")
		return err
	}

	log.Debug().Uint64("height", st.Height).Msg("[etfStorage] saved state")
	return nil
}

// LoadState returns nil without error when nothing has been persisted yet.
func (s *Storage) LoadState() (*State, error) {
	var chainRec StoredChain
	found, err := s.load(ChainBucket, &chainRec)
	if err != nil || !found {
		return nil, err
	}

	var (
		tokensRec StoredTokens
		ledgerRec StoredLedger
		routesRec []StoredRoute
		routerRec StoredRouter
		poolsRec  []StoredPool
	)
	sections := []struct {
		bucket string
		out    any
	}{
		{TokensBucket, &tokensRec},
		{LedgerBucket, &ledgerRec},
		{RegistryBucket, &routesRec},
		{RouterBucket, &routerRec},
		{VenuesBucket, &poolsRec},
	}
	for _, sec := range sections {
		ok, err := s.load(sec.bucket, sec.out)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("incomplete state: missing %s", sec.bucket)
		}
	}

	st := &State{Height: chainRec.Height}
	if st.Tokens, err = storedToTokens(tokensRec); err != nil {
		return nil, err
	}
	if st.Ledger, err = storedToLedger(ledgerRec); err != nil {
		return nil, err
	}
	if st.Routes, err = storedToRoutes(routesRec); err != nil {
		return nil, err
	}
	if st.Router, err = storedToRouter(routerRec); err != nil {
		return nil, err
	}
	if st.Pools, err = storedToPools(poolsRec); err != nil {
		return nil, err
	}

	log.Info().
		Uint64("height", st.Height).
		Int("holders", len(st.Ledger.Balances)).
		Int("pools", len(st.Pools)).
		Msg("[etfStorage] state loaded")
	return st, nil
}

func (s *Storage) load(bucket string, out any) (bool, error) {
	data, err := s.db.List(bucket)
	if err != nil {
		return false, fmt.Errorf("failed to list %s: %w", bucket, err)
	}
	value, ok := data[currentKey]
	if !ok {
		return false, nil
	}
	if err := sonic.Unmarshal(value, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", bucket, err)
	}
	return true, nil
}

func tokensToStored(s token.Snapshot) StoredTokens {
	out := StoredTokens{
		Tokens:     make([]StoredToken, 0, len(s.Tokens)),
		Balances:   make([]StoredBalance, 0, len(s.Balances)),
		Allowances: make([]StoredAllowance, 0, len(s.Allowances)),
	}
	for _, m := range s.Tokens {
		out.Tokens = append(out.Tokens, StoredToken{Address: m.Address.Hex(), Symbol: m.Symbol, Decimals: m.Decimals})
	}
	for _, b := range s.Balances {
		out.Balances = append(out.Balances, StoredBalance{Token: b.Token.Hex(), Holder: b.Holder.Hex(), Amount: amountString(b.Amount)})
	}
	for _, a := range s.Allowances {
		out.Allowances = append(out.Allowances, StoredAllowance{
			Token:   a.Token.Hex(),
			Owner:   a.Owner.Hex(),
			Spender: a.Spender.Hex(),
			Amount:  amountString(a.Amount),
		})
	}
	return out
}

func storedToTokens(stored StoredTokens) (token.Snapshot, error) {
	var s token.Snapshot
	for _, t := range stored.Tokens {
		addr, err := parseAddress(t.Address)
		if err != nil {
			return s, fmt.Errorf("invalid token: %w", err)
		}
		s.Tokens = append(s.Tokens, token.Metadata{Address: addr, Symbol: t.Symbol, Decimals: t.Decimals})
	}
	for _, b := range stored.Balances {
		tok, err1 := parseAddress(b.Token)
		holder, err2 := parseAddress(b.Holder)
		amount, err3 := parseAmount(b.Amount)
		if err := firstErr(err1, err2, err3); err != nil {
			return s, fmt.Errorf("invalid balance: %w", err)
		}
		s.Balances = append(s.Balances, token.BalanceRecord{Token: tok, Holder: holder, Amount: amount})
	}
	for _, a := range stored.Allowances {
		tok, err1 := parseAddress(a.Token)
		owner, err2 := parseAddress(a.Owner)
		spender, err3 := parseAddress(a.Spender)
		amount, err4 := parseAmount(a.Amount)
		if err := firstErr(err1, err2, err3, err4); err != nil {
			return s, fmt.Errorf("invalid allowance: %w", err)
		}
		s.Allowances = append(s.Allowances, token.AllowanceRecord{Token: tok, Owner: owner, Spender: spender, Amount: amount})
	}
	return s, nil
}

func ledgerToStored(s ledger.Snapshot) StoredLedger {
	out := StoredLedger{
		Balances: make([]StoredHolding, 0, len(s.Balances)),
		Managers: make([]string, 0, len(s.Managers)),
	}
	for _, h := range s.Balances {
		out.Balances = append(out.Balances, StoredHolding{Holder: h.Holder.Hex(), Shares: amountString(h.Shares)})
	}
	for _, m := range s.Managers {
		out.Managers = append(out.Managers, m.Hex())
	}
	return out
}

func storedToLedger(stored StoredLedger) (ledger.Snapshot, error) {
	var s ledger.Snapshot
	for _, h := range stored.Balances {
		holder, err1 := parseAddress(h.Holder)
		shares, err2 := parseAmount(h.Shares)
		if err := firstErr(err1, err2); err != nil {
			return s, fmt.Errorf("invalid holding: %w", err)
		}
		s.Balances = append(s.Balances, ledger.Holding{Holder: holder, Shares: shares})
	}
	for _, m := range stored.Managers {
		addr, err := parseAddress(m)
		if err != nil {
			return s, fmt.Errorf("invalid manager: %w", err)
		}
		s.Managers = append(s.Managers, addr)
	}
	return s, nil
}

func routesToStored(entries []registry.Entry) []StoredRoute {
	out := make([]StoredRoute, 0, len(entries))
	for _, e := range entries {
		out = append(out, StoredRoute{Asset: e.Asset.Hex(), UseV3: e.Config.UseV3, Fee: e.Config.Fee})
	}
	return out
}

func storedToRoutes(stored []StoredRoute) ([]registry.Entry, error) {
	out := make([]registry.Entry, 0, len(stored))
	for _, r := range stored {
		asset, err := parseAddress(r.Asset)
		if err != nil {
			return nil, fmt.Errorf("invalid route: %w", err)
		}
		out = append(out, registry.Entry{Asset: asset, Config: domain.AssetConfig{UseV3: r.UseV3, Fee: r.Fee}})
	}
	return out, nil
}

func routerToStored(s router.AdminState) StoredRouter {
	return StoredRouter{Owner: s.Owner.Hex(), MaxSlippageBps: s.MaxSlippageBps, Paused: s.Paused}
}

func storedToRouter(stored StoredRouter) (router.AdminState, error) {
	owner, err := parseAddress(stored.Owner)
	if err != nil {
		return router.AdminState{}, fmt.Errorf("invalid router owner: %w", err)
	}
	return router.AdminState{Owner: owner, MaxSlippageBps: stored.MaxSlippageBps, Paused: stored.Paused}, nil
}

func poolsToStored(pools []domain.Pool) []StoredPool {
	out := make([]StoredPool, 0, len(pools))
	for _, p := range pools {
		out = append(out, StoredPool{
			Address: p.Address.Hex(),
			Venue:   uint8(p.Venue),
			Token0:  p.Key.Token0.Hex(),
			Token1:  p.Key.Token1.Hex(),
			FeeTier: p.Key.FeeTier,
			FeeBps:  p.FeeBps,
			Active:  p.Active,
		})
	}
	return out
}

func storedToPools(stored []StoredPool) ([]domain.Pool, error) {
	out := make([]domain.Pool, 0, len(stored))
	for _, p := range stored {
		addr, err1 := parseAddress(p.Address)
		t0, err2 := parseAddress(p.Token0)
		t1, err3 := parseAddress(p.Token1)
		if err := firstErr(err1, err2, err3); err != nil {
			return nil, fmt.Errorf("invalid pool: %w", err)
		}
		out = append(out, domain.Pool{
			Address: addr,
			Venue:   domain.VenueKind(p.Venue),
			Key:     domain.PoolKey{Token0: t0, Token1: t1, FeeTier: p.FeeTier},
			FeeBps:  p.FeeBps,
			Active:  p.Active,
		})
	}
	return out, nil
}

func amountString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func parseAmount(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", s, err)
	}
	return v, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("address %q", s)
	}
	return common.HexToAddress(s), nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
