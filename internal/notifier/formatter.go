package notifier

import (
	"fmt"
	"math"
	"strings"
	"time"

	"SilverSnap/internal/model"
)

func colorWord(green bool) string {
	if green {
		return "🟢 GREEN"
	}
	return "🔴 RED"
}

// FormatSignal formats an evaluation result into a Telegram message.
func FormatSignal(sig *model.Signal) string {
	var b strings.Builder

	icon := "ℹ️"
	switch sig.Type {
	case model.SignalBuy:
		icon = "🟢"
	case model.SignalSellTarget:
		icon = "💰"
	case model.SignalSellStop:
		icon = "🛑"
	case model.SignalSellTime:
		icon = "⏰"
	case model.SignalFiltersOff:
		icon = "⚠️"
	}

	b.WriteString(fmt.Sprintf("%s <b>SilverSnap</b> | %s\n\n", icon, sig.Time.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Signal: <b>%s</b>\n", sig.Type))
	if sig.Symbol != "" {
		b.WriteString(fmt.Sprintf("Symbol: %s (%s)\n", sig.Symbol, sig.Instrument))
	}
	if sig.Price > 0 {
		b.WriteString(fmt.Sprintf("Price: %.2f\n", sig.Price))
	}
	if sig.ReferenceClose > 0 {
		b.WriteString(fmt.Sprintf("Reference close: %.2f (drop %.2f%%)\n", sig.ReferenceClose, sig.DropPct*100))
	}
	b.WriteString("\n")
	b.WriteString(formatFilterLines(sig.Filters))
	if sig.Reason != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", sig.Reason))
	}
	return b.String()
}

// FormatFilterReport formats the current filter state for the /status command.
func FormatFilterReport(symbol string, fs model.FilterStatus) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Filter status</b> | %s\n\n", symbol))
	b.WriteString(formatFilterLines(fs))
	b.WriteString(fmt.Sprintf("\nUpdated: %s\n", time.Now().Format("2006-01-02 15:04")))
	return b.String()
}

func formatFilterLines(fs model.FilterStatus) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Price SAR: %s\n", colorWord(fs.PriceGreen)))
	b.WriteString(fmt.Sprintf("RSI SAR: %s\n", colorWord(fs.RSIGreen)))
	b.WriteString(fmt.Sprintf("RSI: %s\n", FormatRSI(fs.RSI)))
	return b.String()
}

// FormatPosition formats an open position for display.
func FormatPosition(pos *model.Position, currentPrice float64) string {
	var b strings.Builder
	b.WriteString("📦 <b>Open position</b>\n\n")
	b.WriteString(fmt.Sprintf("Symbol: %s (%s)\n", pos.Symbol, pos.Instrument))
	b.WriteString(fmt.Sprintf("Quantity: %d\n", pos.Quantity))
	b.WriteString(fmt.Sprintf("Entry: %.2f @ %s\n", pos.EntryPrice, pos.EntryTime.Format("2006-01-02 15:04")))
	if currentPrice > 0 {
		pnl := pos.PnL(currentPrice)
		b.WriteString(fmt.Sprintf("Current: %.2f (P&L %+.2f, %+.2f%%)\n", currentPrice, pnl, pos.PnLPct(currentPrice)*100))
	}
	held := time.Since(pos.EntryTime)
	b.WriteString(fmt.Sprintf("Held: %.1fh\n", held.Hours()))
	return b.String()
}

// FormatNoPosition is the reply when /position finds nothing open.
func FormatNoPosition() string {
	return "📦 No open position."
}

// FormatError formats a failed evaluation cycle.
func FormatError(trigger string, err error) string {
	return fmt.Sprintf("❌ <b>SilverSnap</b> cycle failed (%s)\n\n%v", trigger, err)
}

// FormatRSI renders an RSI value, tolerating the warm-up gap.
func FormatRSI(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v)
}
