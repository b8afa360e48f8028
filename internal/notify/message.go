package notify

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/trade-analytics-api/internal/gamma"
)

// FormatRegimeChangeMessage creates the alert body for a regime flip.
func FormatRegimeChangeMessage(symbol string, from, to gamma.Regime, exposure *gamma.Exposure) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s flipped %s -> %s\n", symbol, from, to))

	if exposure != nil {
		sb.WriteString(fmt.Sprintf("Spot: %.2f\n", exposure.CurrentPrice))
		sb.WriteString(fmt.Sprintf("Gamma Flip: %.2f\n", exposure.GammaFlip))
		sb.WriteString(fmt.Sprintf("Call Wall: %.2f / Put Wall: %.2f\n", exposure.CallWall, exposure.PutWall))
		sb.WriteString(fmt.Sprintf("Dealers: %s\n", exposure.DealerPositioning))
		sb.WriteString(exposure.TradingImplication)
	}

	return sb.String()
}
