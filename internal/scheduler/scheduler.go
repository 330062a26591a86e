package scheduler

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"SilverSnap/internal/broker"
	"SilverSnap/internal/calculator"
	"SilverSnap/internal/collector"
	"SilverSnap/internal/config"
	"SilverSnap/internal/model"
	"SilverSnap/internal/notifier"
	"SilverSnap/internal/recorder"
	"SilverSnap/internal/strategy"

	"github.com/robfig/cron/v3"
)

// Trigger names recorded with each cycle.
const (
	TriggerPostmarket   = "postmarket"
	TriggerExitReview   = "exit_review"
	TriggerSilverBullet = "silver_bullet"
	TriggerManual       = "manual"
)

// Scheduler manages all cron tasks. Every task funnels into runCycle, which
// collects market data, evaluates one signal, records it, and (optionally)
// executes it.
type Scheduler struct {
	Cron      *cron.Cron
	Cfg       *config.Config
	Collector *collector.Collector
	Engine    *strategy.Engine
	Broker    broker.Broker
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Ctx       context.Context

	loc *time.Location

	mu       sync.Mutex
	lastType model.SignalType
}

// NewScheduler creates a Scheduler running in the configured timezone.
func NewScheduler(ctx context.Context, cfg *config.Config, col *collector.Collector, eng *strategy.Engine, brk broker.Broker, ntf notifier.Notifier, rec recorder.Recorder) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Windows.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Cfg:       cfg,
		Collector: col,
		Engine:    eng,
		Broker:    brk,
		Notifier:  ntf,
		Recorder:  rec,
		Ctx:       ctx,
		loc:       loc,
		lastType:  model.SignalNone,
	}, nil
}

// RegisterAll registers the three evaluation windows.
func (s *Scheduler) RegisterAll() error {
	if _, err := s.Cron.AddFunc(s.Cfg.Schedule.PostmarketCron, func() {
		s.runCycle(TriggerPostmarket)
	}); err != nil {
		return fmt.Errorf("register postmarket task: %w", err)
	}
	if _, err := s.Cron.AddFunc(s.Cfg.Schedule.ExitCron, func() {
		s.runCycle(TriggerExitReview)
	}); err != nil {
		return fmt.Errorf("register exit task: %w", err)
	}
	if _, err := s.Cron.AddFunc(s.Cfg.Schedule.SilverBulletCron, func() {
		s.runCycle(TriggerSilverBullet)
	}); err != nil {
		return fmt.Errorf("register silver bullet task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes one evaluation cycle immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.runCycle(TriggerManual)
}

// runCycle is the single evaluation path: collect, snapshot the position,
// evaluate, record, notify, execute. One Signal per invocation.
func (s *Scheduler) runCycle(trigger string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Printf("[INFO] running %s cycle", trigger)

	snap, err := s.Collector.Collect()
	if err != nil {
		log.Printf("[ERROR] %s collect: %v", trigger, err)
		s.trySend(notifier.FormatError(trigger, err))
		return
	}

	pos, err := s.openPosition()
	if err != nil {
		log.Printf("[ERROR] %s positions: %v", trigger, err)
		s.trySend(notifier.FormatError(trigger, err))
		return
	}

	cycle := strategy.Cycle{
		Reference:         snap.Reference,
		ReferenceClose:    s.referenceClose(trigger, snap.ReferenceQuote),
		SessionLow:        sessionLow(snap.ReferenceQuote),
		ConservativePrice: snap.ConservativePrice,
		LeveragedPrice:    snap.LeveragedPrice,
		Position:          pos,
		Now:               time.Now().In(s.loc),
	}

	sig, err := s.Engine.Evaluate(cycle)
	if err != nil {
		log.Printf("[ERROR] %s evaluate: %v", trigger, err)
		s.trySend(notifier.FormatError(trigger, err))
		return
	}
	log.Printf("[INFO] %s cycle: signal=%s drop=%.2f%% filters(price=%v rsi=%v)",
		trigger, sig.Type, sig.DropPct*100, sig.Filters.PriceGreen, sig.Filters.RSIGreen)

	if err := s.Recorder.RecordSignal(sig); err != nil {
		log.Printf("[ERROR] record signal: %v", err)
	}
	if err := s.Recorder.RecordFilters(&recorder.FilterSnapshot{
		Symbol:     snap.Reference.Symbol,
		Price:      snap.ReferenceQuote.Last,
		PriceGreen: sig.Filters.PriceGreen,
		RSIGreen:   sig.Filters.RSIGreen,
		PriceSAR:   sig.Filters.PriceSAR,
		RSISAR:     sig.Filters.RSISAR,
		RSI:        sig.Filters.RSI,
	}); err != nil {
		log.Printf("[ERROR] record filters: %v", err)
	}

	// Quiet cycles only notify when the state changes; repeats of NO_SIGNAL
	// or FILTERS_OFF stay in the log.
	if sig.Actionable() || sig.Type != s.lastType {
		s.trySend(notifier.FormatSignal(sig))
	}
	s.lastType = sig.Type

	if sig.Actionable() {
		s.execute(sig, pos)
	}
}

// openPosition maps the broker's holdings onto the strategy's single slot.
// Leveraged wins when both symbols are somehow held.
func (s *Scheduler) openPosition() (*model.Position, error) {
	positions, err := s.Broker.Positions()
	if err != nil {
		return nil, fmt.Errorf("broker positions: %w", err)
	}
	if p, ok := positions[s.Cfg.Symbols.Leveraged]; ok && p.Quantity > 0 {
		p.Instrument = model.Leveraged
		return &p, nil
	}
	if p, ok := positions[s.Cfg.Symbols.Conservative]; ok && p.Quantity > 0 {
		p.Instrument = model.Conservative
		return &p, nil
	}
	return nil, nil
}

// referenceClose picks the anchor the drop is measured from. The silver
// bullet hour can anchor on the session open instead of the prior close.
func (s *Scheduler) referenceClose(trigger string, q model.Quote) float64 {
	if trigger == TriggerSilverBullet && s.Cfg.Windows.SilverBulletRef == "session_open" && q.SessionOpen > 0 {
		return q.SessionOpen
	}
	return q.RegularClose
}

func sessionLow(q model.Quote) float64 {
	low := q.SessionLow
	if low == 0 || q.Last < low {
		low = q.Last
	}
	return low
}

func (s *Scheduler) execute(sig *model.Signal, pos *model.Position) {
	if !s.Cfg.Execute {
		log.Printf("[INFO] execution disabled, %s for %s not placed", sig.Type, sig.Symbol)
		return
	}

	switch sig.Type {
	case model.SignalBuy:
		s.executeBuy(sig)
	case model.SignalSellTarget, model.SignalSellStop, model.SignalSellTime:
		s.executeSell(sig, pos)
	}
}

func (s *Scheduler) executeBuy(sig *model.Signal) {
	capital := s.Cfg.Account.Capital
	if bp, err := s.Broker.BuyingPower(); err != nil {
		log.Printf("[ERROR] buying power: %v", err)
		return
	} else if bp < capital {
		capital = bp
	}

	qty := int64(math.Floor(capital / sig.Price))
	if qty < 1 {
		log.Printf("[WARN] capital %.2f buys no shares of %s at %.2f", capital, sig.Symbol, sig.Price)
		return
	}

	res, err := s.Broker.Place(broker.Order{
		Symbol:   sig.Symbol,
		Quantity: qty,
		Side:     broker.Buy,
		Limit:    sig.Price,
		Session:  "SEAMLESS",
	})
	if err != nil {
		log.Printf("[ERROR] place buy: %v", err)
		s.trySend(notifier.FormatError("order", err))
		return
	}
	log.Printf("[INFO] buy placed: %s x%d @ %.2f (order %s, %s)", sig.Symbol, qty, sig.Price, res.OrderID, res.Status)

	if err := s.Recorder.RecordTrade(&recorder.TradeRecord{
		Symbol:     sig.Symbol,
		Side:       string(broker.Buy),
		Quantity:   qty,
		Price:      sig.Price,
		SignalType: sig.Type,
		Note:       fmt.Sprintf("drop %.2f%% from %.2f", sig.DropPct*100, sig.ReferenceClose),
	}); err != nil {
		log.Printf("[ERROR] record trade: %v", err)
	}
}

func (s *Scheduler) executeSell(sig *model.Signal, pos *model.Position) {
	if pos == nil || pos.Quantity < 1 {
		log.Printf("[WARN] %s with no open position, nothing to sell", sig.Type)
		return
	}

	res, err := s.Broker.Place(broker.Order{
		Symbol:   pos.Symbol,
		Quantity: pos.Quantity,
		Side:     broker.Sell,
		Limit:    sig.Price,
		Session:  "SEAMLESS",
	})
	if err != nil {
		log.Printf("[ERROR] place sell: %v", err)
		s.trySend(notifier.FormatError("order", err))
		return
	}
	log.Printf("[INFO] sell placed: %s x%d @ %.2f (order %s, %s)", pos.Symbol, pos.Quantity, sig.Price, res.OrderID, res.Status)

	if err := s.Recorder.RecordTrade(&recorder.TradeRecord{
		Symbol:     pos.Symbol,
		Side:       string(broker.Sell),
		Quantity:   pos.Quantity,
		Price:      sig.Price,
		SignalType: sig.Type,
		PnL:        pos.PnL(sig.Price),
		PnLPct:     pos.PnLPct(sig.Price),
		Note:       fmt.Sprintf("entry %.2f @ %s", pos.EntryPrice, pos.EntryTime.Format("2006-01-02 15:04")),
	}); err != nil {
		log.Printf("[ERROR] record trade: %v", err)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/run":
		go s.runCycle(TriggerManual)
		return "Cycle started."
	case "/status":
		return s.statusReport()
	case "/position":
		pos, err := s.openPosition()
		if err != nil {
			return fmt.Sprintf("Position lookup failed: %v", err)
		}
		if pos == nil {
			return notifier.FormatNoPosition()
		}
		price := 0.0
		if q, err := s.Collector.Fetcher.FetchQuote(pos.Symbol); err == nil {
			price = q.Last
		}
		return notifier.FormatPosition(pos, price)
	default:
		return "Commands:\n• /run — evaluate now\n• /status — filter status\n• /position — open position"
	}
}

func (s *Scheduler) statusReport() string {
	snap, err := s.Collector.Collect()
	if err != nil {
		return fmt.Sprintf("Collect failed: %v", err)
	}
	fs, err := calculator.Filters(snap.Reference, s.Cfg.Indicators.RSIPeriod,
		calculator.SARParams{Step: s.Cfg.Indicators.PSARStep, Max: s.Cfg.Indicators.PSARMax})
	if err != nil {
		return fmt.Sprintf("Filter computation failed: %v", err)
	}
	return notifier.FormatFilterReport(snap.Reference.Symbol, fs)
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.Send(s.Ctx, text); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
